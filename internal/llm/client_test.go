package llm

import (
	"auticonnect/internal/config"
	"auticonnect/internal/logger"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeGenerator struct {
	resp     *llms.ContentResponse
	err      error
	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.resp, f.err
}

func enabledConfig() config.LLMConfig {
	return config.LLMConfig{APIKey: "sk-test", Model: "gpt-4", TimeoutMS: 2000}
}

func TestCompleteWithoutCredentialIsDegraded(t *testing.T) {
	gen := &fakeGenerator{}
	c := NewWithGenerator(gen, config.LLMConfig{}, logger.Nop())

	res := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "oi"}})

	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedReply, res.Text)
	assert.Nil(t, res.Raw)
	assert.Zero(t, gen.calls)
}

func TestNewClientWithoutCredential(t *testing.T) {
	c, err := NewClient(config.LLMConfig{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DegradedReply, c.Complete(context.Background(), nil).Text)
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	gen := &fakeGenerator{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Olá a todos"}}}}
	c := NewWithGenerator(gen, enabledConfig(), logger.Nop())

	res := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "Ana: oi"},
	}, WithTemperature(0.6))

	assert.False(t, res.Degraded)
	assert.Equal(t, "Olá a todos", res.Text)
	assert.Same(t, gen.resp, res.Raw)
	require.Len(t, gen.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, gen.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, gen.messages[1].Role)
	assert.Equal(t, 0.6, gen.options.Temperature)
	assert.Equal(t, DefaultMaxTokens, gen.options.MaxTokens)
}

func TestCompleteFoldsErrorsIntoDegradedReply(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"transport error": {err: errors.New("connection refused")},
		"nil response":    {},
		"no choices":      {resp: &llms.ContentResponse{}},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewWithGenerator(gen, enabledConfig(), logger.Nop())
			res := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "oi"}})
			assert.True(t, res.Degraded)
			assert.Equal(t, DegradedReply, res.Text)
			assert.Equal(t, 1, gen.calls, "single attempt, no retry")
		})
	}
}

func TestCompleteAgainstOpenAICompatibleServer(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "[OBSERVANDO]"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer srv.Close()

	cfg := enabledConfig()
	cfg.Endpoint = srv.URL + "/v1/chat/completions"
	c, err := NewClient(cfg, logger.Nop())
	require.NoError(t, err)

	res := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "tudo bem?"}})

	assert.False(t, res.Degraded)
	assert.Equal(t, "[OBSERVANDO]", res.Text)
	assert.NotNil(t, res.Raw)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestCompleteServerErrorIsDegraded(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	cfg := enabledConfig()
	cfg.Endpoint = srv.URL + "/v1/chat/completions"
	c, err := NewClient(cfg, logger.Nop())
	require.NoError(t, err)

	res := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "oi"}})
	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedReply, res.Text)
	assert.Equal(t, int32(1), hits.Load(), "a failed call is not retried")
}

func TestCompleteCancelledContextIsDegraded(t *testing.T) {
	gen := &fakeGenerator{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "x"}}}}
	cfg := enabledConfig()
	cfg.RatePerSec = 0.001
	cfg.RateBurst = 1
	c := NewWithGenerator(gen, cfg, logger.Nop())

	// drain the single token so the next call has to wait
	c.Complete(context.Background(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Complete(ctx, nil)
	assert.True(t, res.Degraded)
	assert.Equal(t, 1, gen.calls)
}
