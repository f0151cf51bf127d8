package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider throttles completions against an upstream quota. Wait
// blocks until a token is available or the context is cancelled, so caller
// timeouts still bound the total call.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// RateLimited wraps p with a token-bucket limiter of rps requests per second
// and the given burst. A non-positive rps disables throttling.
func RateLimited(p Provider, rps float64, burst int) *RateLimitedProvider {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &RateLimitedProvider{inner: p, limiter: limiter}
}

func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

func (p *RateLimitedProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return p.inner.Chat(ctx, req)
}
