package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient spaces requests to stay under a per-minute budget.
type rateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

func newRateLimitedClient(next Client, requestsPerMinute int) *rateLimitedClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (c *rateLimitedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter canceled: %w", err)
	}
	return c.next.Complete(ctx, req)
}
