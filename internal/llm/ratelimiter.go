package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a token bucket rate limiter.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider wraps the given provider with a limiter that
// allows at most rpm requests per minute, bursting up to rpm. A
// non-positive rpm returns the provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

// Complete waits for a token or for ctx to end, whichever comes first.
func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}
