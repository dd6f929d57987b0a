// Package llm abstracts the hosted language model behind a single Complete call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUpstream wraps every transport or vendor failure.
	ErrUpstream = errors.New("language model call failed")
	// ErrEmptyResponse means the vendor answered without any text.
	ErrEmptyResponse = errors.New("language model returned no text")
	// ErrDisabled is returned by the client used when no provider is configured.
	ErrDisabled = errors.New("language model disabled")
)

// Options tune a single completion.
type Options struct {
	// Purpose names the calling component for logs and metrics.
	Purpose     string
	System      string
	MaxTokens   int
	Temperature float64
}

// Client sends one prompt and returns the raw text of the reply.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	Name() string
}

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns sensible defaults for provider.
func DefaultConfig(provider string) Config {
	cfg := Config{
		Provider:    provider,
		MaxTokens:   1024,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
	switch provider {
	case ProviderAnthropic:
		cfg.Model = "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		cfg.Model = "gpt-4o-mini"
	}
	return cfg
}

// New builds the client for cfg.Provider.
func New(cfg Config) (Client, error) {
	defaults := DefaultConfig(cfg.Provider)
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or base URL")
		}
		return NewOpenAI(cfg), nil
	case ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// merge fills zero-valued per-call options from the client config.
func merge(cfg Config, opts Options) Options {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = cfg.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = cfg.Temperature
	}
	return opts
}

// Disabled fails every call so callers take their deterministic fallback.
type Disabled struct{}

// Complete always returns ErrDisabled.
func (Disabled) Complete(context.Context, string, Options) (string, error) {
	return "", fmt.Errorf("%w: %w", ErrUpstream, ErrDisabled)
}

// Name implements Client.
func (Disabled) Name() string { return ProviderNone }
