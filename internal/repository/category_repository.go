package repository

import (
	"context"

	"news-notifier/internal/domain/entity"
)

type CategoryRepository interface {
	// ListActive returns all active categories ordered by id.
	ListActive(ctx context.Context) ([]*entity.Category, error)
}
