package llm

import (
	"auticonnect/internal/config"
	"auticonnect/internal/logger"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

const (
	// DegradedReply is returned in place of generated text whenever the service cannot be used.
	DegradedReply = "Desculpe, ocorreu um erro ao processar sua solicitação."

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

var errEmptyResponse = errors.New("empty choice list in generation response")

// Role of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn sent to the generation service
type Message struct {
	Role    Role
	Content string
}

// Result is always well-formed. Degraded results carry DegradedReply and a nil Raw payload.
type Result struct {
	Text     string
	Raw      *llms.ContentResponse
	Degraded bool
}

// Generator is the part of a langchaingo model the client needs
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Completer is what the mediation engine depends on
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts ...Option) Result
}

type callOptions struct {
	temperature float64
	maxTokens   int
}

// Option tunes a single completion
type Option func(*callOptions)

func WithTemperature(t float64) Option {
	return func(o *callOptions) { o.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *callOptions) { o.maxTokens = n }
}

// Client performs one attempt per call against the generation service and folds every failure into a
// degraded result.
type Client struct {
	model    Generator
	cfg      config.LLMConfig
	limiter  *rate.Limiter
	log      *logger.Logger
	warnOnce sync.Once
}

// NewClient builds an OpenAI-compatible client. Without a credential the client is still usable and
// answers every call with DegradedReply.
func NewClient(cfg config.LLMConfig, log *logger.Logger) (*Client, error) {
	if !cfg.IsEnabled() {
		return NewWithGenerator(nil, cfg, log), nil
	}
	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL()),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	)
	if err != nil {
		return nil, err
	}
	return NewWithGenerator(model, cfg, log), nil
}

// NewWithGenerator wraps an existing model. A nil model behaves like a missing credential.
func NewWithGenerator(model Generator, cfg config.LLMConfig, log *logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		model:   model,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Complete sends the conversation and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...Option) Result {
	o := callOptions{temperature: DefaultTemperature, maxTokens: DefaultMaxTokens}
	if c.cfg.Temperature > 0 {
		o.temperature = c.cfg.Temperature
	}
	if c.cfg.MaxTokens > 0 {
		o.maxTokens = c.cfg.MaxTokens
	}
	for _, opt := range opts {
		opt(&o)
	}

	if c.model == nil || !c.cfg.IsEnabled() {
		c.warnOnce.Do(func() {
			c.log.Warn("generation credential not configured, replies are degraded")
		})
		return degraded()
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		c.log.Error("generation rate limiter wait failed", "error", err)
		return degraded()
	}

	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages),
		llms.WithTemperature(o.temperature),
		llms.WithMaxTokens(o.maxTokens),
	)
	if err == nil && (resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil) {
		err = errEmptyResponse
	}
	if err != nil {
		c.log.Error("generation request failed", "model", c.cfg.Model, "error", err)
		return degraded()
	}

	return Result{Text: resp.Choices[0].Content, Raw: resp}
}

func degraded() Result {
	return Result{Text: DegradedReply, Degraded: true}
}

func toMessageContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		out = append(out, llms.TextParts(chatType(m.Role), m.Content))
	}
	return out
}

func chatType(r Role) schema.ChatMessageType {
	switch Role(strings.ToLower(string(r))) {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
