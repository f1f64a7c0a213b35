package repository

import (
	"context"

	"news-notifier/internal/domain/entity"
)

type ArticleRepository interface {
	// ExistsByURLBatch reports which of the given canonical URLs are already stored.
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// Create inserts the article and its category links. It sets article.ID and
	// article.CreatedAt. A canonical URL collision returns entity.ErrDuplicate.
	Create(ctx context.Context, article *entity.Article) error
	// ListUnprocessed returns every article not yet evaluated for notifications,
	// with categories loaded.
	ListUnprocessed(ctx context.Context) ([]*entity.Article, error)
	// MarkProcessed flips the processed flag for the given articles.
	MarkProcessed(ctx context.Context, ids []int64) error
}
