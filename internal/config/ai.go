package config

import (
	"strings"
	"time"
)

// DefaultEndpoint is the OpenAI-compatible chat completions URL used when none is configured.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// LLMConfig holds the generation service settings
type LLMConfig struct {
	APIKey      string  `koanf:"api_key" json:"-"` // Never serialize
	Endpoint    string  `koanf:"endpoint" json:"endpoint"`
	Model       string  `koanf:"model" json:"model"`
	TimeoutMS   int     `koanf:"timeout_ms" json:"timeoutMs"`
	RatePerSec  float64 `koanf:"rate_per_sec" json:"ratePerSec"`
	RateBurst   int     `koanf:"rate_burst" json:"rateBurst"`
	Temperature float64 `koanf:"temperature" json:"temperature"`
	MaxTokens   int     `koanf:"max_tokens" json:"maxTokens"`
}

// IsEnabled returns true if a credential is configured
func (c LLMConfig) IsEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// BaseURL strips the chat completions path from the endpoint; the client appends it again.
func (c LLMConfig) BaseURL() string {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")
	return strings.TrimSuffix(endpoint, "/chat/completions")
}

// Timeout returns the per-call timeout
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
