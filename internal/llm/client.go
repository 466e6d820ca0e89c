// Package llm provides the chat-completion clients used by the tutor agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"duet/internal/config"

	"go.uber.org/zap"
)

// Client is a single-turn completion client.
type Client interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderQwen      = "qwen"
	ProviderDashScope = "dashscope"
	ProviderGemini    = "gemini"
)

// DefaultBaseURL is the OpenAI-compatible DashScope endpoint.
const DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

var (
	// ErrEmptyCompletion is returned when a provider answers with no text.
	ErrEmptyCompletion = errors.New("llm returned empty completion")
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("llm API key is required")
)

// NewClient builds the client for cfg.Provider. Each call is bounded by
// timeout when it is positive.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	var (
		client Client
		err    error
	)
	switch provider := strings.ToLower(cfg.Provider); provider {
	case ProviderOpenAI, ProviderQwen, ProviderDashScope, "":
		client = newOpenAIClient(cfg)
	case ProviderGemini:
		client, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("llm client ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))
	return &boundedClient{next: client, timeout: timeout, logger: logger}, nil
}

// boundedClient applies the per-call timeout and logs each completion.
type boundedClient struct {
	next    Client
	timeout time.Duration
	logger  *zap.Logger
}

func (c *boundedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.next.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		c.logger.Warn("completion failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}
	c.logger.Debug("completion",
		zap.Int("prompt_chars", len(systemPrompt)+len(userPrompt)),
		zap.Int("completion_chars", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
