package repository

import (
	"context"
	"time"

	"news-notifier/internal/domain/entity"
)

type SourceRepository interface {
	// GetActive returns the active feed source with the lowest id.
	// Returns (nil, nil) when no source is active.
	GetActive(ctx context.Context) (*entity.Source, error)
	// RecordFetchResult stores the fetch timestamp and the last error text.
	// A nil lastErr clears the previous error.
	RecordFetchResult(ctx context.Context, id int64, at time.Time, lastErr *string) error
}
