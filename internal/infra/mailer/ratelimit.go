package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing messages with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows requestsPerSecond sustained sends with the given burst.
// A non-positive rate disables pacing.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	return &RateLimiter{limiter: rate.NewLimiter(r, max(burst, 1))}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
