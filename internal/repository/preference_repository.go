package repository

import (
	"context"

	"news-notifier/internal/domain/entity"
)

// PreferenceRepository provides read-only snapshots of user notification preferences.
type PreferenceRepository interface {
	// ListActiveSubscriptions returns subscriptions with is_subscribed = TRUE
	// whose category is active.
	ListActiveSubscriptions(ctx context.Context) ([]entity.CategorySubscription, error)
	// ListActiveKeywordWatches returns watches with is_active = TRUE.
	ListActiveKeywordWatches(ctx context.Context) ([]entity.KeywordWatch, error)
	// GetRecipients resolves contact details for the given users. Users without
	// a usable email address are absent from the result.
	GetRecipients(ctx context.Context, userIDs []int64) (map[int64]entity.Recipient, error)
}

type BannedKeywordRepository interface {
	ListActive(ctx context.Context) ([]entity.BannedKeyword, error)
}
