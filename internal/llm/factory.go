package llm

import (
	"fmt"
	"strings"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewClient creates a provider client from cfg, rate limited when
// cfg.RateLimit is positive.
func NewClient(cfg Config) (Client, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		client, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if cfg.RateLimit > 0 {
		client = newRateLimitedClient(client, cfg.RateLimit)
	}
	return client, nil
}
