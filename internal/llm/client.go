package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int // 0 means the client default
}

// Config holds configuration for LLM clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	RateLimit   int // requests per minute; 0 disables limiting
	Temperature float64
	MaxTokens   int
}
