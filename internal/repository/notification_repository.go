package repository

import (
	"context"

	"news-notifier/internal/domain/entity"
)

type NotificationRepository interface {
	// CreateAndMarkProcessed persists the candidates as unread, unemailed
	// notifications and marks the given articles processed in a single
	// transaction. A (user, article) collision returns entity.ErrDuplicate.
	CreateAndMarkProcessed(ctx context.Context, candidates []entity.NotificationCandidate, articleIDs []int64) ([]*entity.Notification, error)
	// MarkEmailed flips is_emailed for exactly the given notification ids.
	MarkEmailed(ctx context.Context, ids []int64) error
}
