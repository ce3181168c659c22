package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the process-wide configuration. It is read-only once loaded.
type Config struct {
	LLM    LLMConfig    `koanf:"llm"`
	Engine EngineConfig `koanf:"engine"`
	Store  StoreConfig  `koanf:"store"`
	Auth   AuthConfig   `koanf:"auth"`
	HTTP   HTTPConfig   `koanf:"http"`
	Log    LogConfig    `koanf:"log"`
}

// EngineConfig tunes the mediation engine
type EngineConfig struct {
	AlertThreshold     int    `koanf:"alert_threshold"`
	TemplatesPath      string `koanf:"templates_path"`
	GroupCooldownSec   int    `koanf:"group_cooldown_sec"`
	SupportSessionSec  int    `koanf:"support_session_sec"`
	GroupHistoryWindow int    `koanf:"group_history_window"`
	UserHistoryWindow  int    `koanf:"user_history_window"`
}

// GroupCooldown is the minimum interval between facilitation cycles in one group
func (c EngineConfig) GroupCooldown() time.Duration {
	return time.Duration(c.GroupCooldownSec) * time.Second
}

// SupportSessionTTL is how long an idle individual-support session stays active
func (c EngineConfig) SupportSessionTTL() time.Duration {
	return time.Duration(c.SupportSessionSec) * time.Second
}

type StoreConfig struct {
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
	RedisURI      string `koanf:"redis_uri"`
}

type AuthConfig struct {
	JWTSecret        string `koanf:"jwt_secret"`
	OperatorUsername string `koanf:"operator_username"`
	OperatorPassword string `koanf:"operator_password"`
}

type HTTPConfig struct {
	Port               string `koanf:"port"`
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

type LogConfig struct {
	Mode string `koanf:"mode"`
}

// envKeys maps the recognised environment variables onto config keys.
var envKeys = map[string]string{
	"LLM_API_KEY":             "llm.api_key",
	"LLM_API_ENDPOINT":        "llm.endpoint",
	"LLM_MODEL":               "llm.model",
	"LLM_TIMEOUT_MS":          "llm.timeout_ms",
	"LLM_RATE_PER_SEC":        "llm.rate_per_sec",
	"LLM_RATE_BURST":          "llm.rate_burst",
	"ALERT_THRESHOLD":         "engine.alert_threshold",
	"PROMPT_TEMPLATES_PATH":   "engine.templates_path",
	"GROUP_COOLDOWN_SEC":      "engine.group_cooldown_sec",
	"SUPPORT_SESSION_TTL_SEC": "engine.support_session_sec",
	"GROUP_HISTORY_WINDOW":    "engine.group_history_window",
	"USER_HISTORY_WINDOW":     "engine.user_history_window",
	"MONGO_URI":               "store.mongo_uri",
	"MONGO_DATABASE":          "store.mongo_database",
	"REDIS_URI":               "store.redis_uri",
	"JWT_SECRET":              "auth.jwt_secret",
	"OPERATOR_USERNAME":       "auth.operator_username",
	"OPERATOR_PASSWORD":       "auth.operator_password",
	"PORT":                    "http.port",
	"CORS_ALLOWED_ORIGINS":    "http.cors_allowed_origins",
	"LOG_MODE":                "log.mode",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"llm.endpoint":                DefaultEndpoint,
		"llm.model":                   "gpt-4",
		"llm.timeout_ms":              30000,
		"llm.rate_per_sec":            5.0,
		"llm.rate_burst":              5,
		"llm.temperature":             0.7,
		"llm.max_tokens":              500,
		"engine.alert_threshold":      70,
		"engine.templates_path":       "prompt_templates.json",
		"engine.group_cooldown_sec":   300,
		"engine.support_session_sec":  1800,
		"engine.group_history_window": 20,
		"engine.user_history_window":  10,
		"store.mongo_uri":             "mongodb://localhost:27017",
		"store.mongo_database":        "auticonnect",
		"store.redis_uri":             "localhost:6379",
		"auth.jwt_secret":             "change-me-in-production",
		"auth.operator_username":      "bridge",
		"auth.operator_password":      "bridge-password",
		"http.port":                   "8080",
		"http.cors_allowed_origins":   "*",
		"log.mode":                    "development",
	}
}

// Load builds the configuration from defaults, an optional TOML file and the environment, in that order.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.Engine.AlertThreshold = ClampUrgency(cfg.Engine.AlertThreshold)
	return &cfg, nil
}

// ClampUrgency bounds a value to the 0-100 urgency scale
func ClampUrgency(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
