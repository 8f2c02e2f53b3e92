package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Generator with a token-bucket rate limit so batch
// ingestion cannot flood the provider. Waiting respects the caller's
// context deadline.
type RateLimited struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimited returns g limited to requestsPerSecond with the given
// burst. A non-positive rate disables limiting and returns g unchanged.
func NewRateLimited(g Generator, requestsPerSecond float64, burst int) Generator {
	if requestsPerSecond <= 0 {
		return g
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   g,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Model() string {
	return r.inner.Model()
}

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}
