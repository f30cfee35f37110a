package llm

import (
	"context"
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create clients and
// embedders. This is defined in the llm package to avoid importing the
// config package, keeping the llm package free of infrastructure
// dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "gemini").
	Provider string
	// Temperature is the LLM temperature setting.
	Temperature float64
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int
	// EmbeddingModel overrides the provider's default embedding model.
	EmbeddingModel string
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
}

// NewClient creates a completion client based on the configuration.
// Supports "openai" and "gemini" providers. Returns an error for
// unsupported or empty provider values.
func NewClient(cfg FactoryConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	case "gemini":
		return NewGeminiClient(cfg.Gemini, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewClientWithFallback wraps primary so that failed completions are
// retried once against fallback. A nil fallback returns primary as is.
func NewClientWithFallback(primary, fallback Client) Client {
	if fallback == nil {
		return primary
	}
	return &fallbackClient{primary: primary, fallback: fallback}
}

type fallbackClient struct {
	primary  Client
	fallback Client
}

func (c *fallbackClient) Complete(ctx context.Context, req Request) (string, error) {
	result, err := c.primary.Complete(ctx, req)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	result, fbErr := c.fallback.Complete(ctx, req)
	if fbErr != nil {
		return "", fmt.Errorf("primary provider %s failed (%v); fallback provider %s failed: %w",
			c.primary.Provider(), err, c.fallback.Provider(), fbErr)
	}
	return result, nil
}

func (c *fallbackClient) Provider() string { return c.primary.Provider() }

func (c *fallbackClient) Model() string { return c.primary.Model() }

// NewEmbedder creates an embedding client for the configured provider.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.OpenAI, cfg.EmbeddingModel, cfg.Timeout), nil
	case "gemini":
		return NewGeminiEmbedder(cfg.Gemini, cfg.EmbeddingModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
