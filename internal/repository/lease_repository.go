package repository

import (
	"context"
	"time"
)

// LeaseRepository grants a named, time-limited exclusive lease to one holder.
type LeaseRepository interface {
	// TryAcquire takes the lease for holder if it is free, expired, or already
	// held by holder. It returns false when another holder owns a live lease.
	TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	// Release gives the lease up if holder still owns it.
	Release(ctx context.Context, name, holder string) error
}
