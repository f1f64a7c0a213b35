package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// ExistsByURLBatch はバッチでURL存在チェックを行い、N+1問題を解消する
func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return make(map[string]bool), nil
	}

	const query = `SELECT url FROM articles WHERE url = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]bool, len(urls))
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[url] = true
	}
	return result, rows.Err()
}

func (repo *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO articles
       (url, title, body, author, source_name, image_url, published_at, active, processed)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, FALSE)
RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		article.URL, article.Title, article.Body,
		article.Author, article.SourceName, article.ImageURL, article.PublishedAt,
	).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}

	const linkQuery = `INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)`
	for _, c := range article.Categories {
		if _, err := tx.ExecContext(ctx, linkQuery, article.ID, c.ID); err != nil {
			return fmt.Errorf("Create: link category %d: %w", c.ID, mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create: commit: %w", err)
	}
	article.Active = true
	article.Processed = false
	return nil
}

func (repo *ArticleRepo) ListUnprocessed(ctx context.Context) ([]*entity.Article, error) {
	const query = `
SELECT id, url, title, body, author, source_name, image_url, published_at, created_at, active, processed
FROM articles
WHERE processed = FALSE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListUnprocessed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 100)
	byID := make(map[int64]*entity.Article)
	for rows.Next() {
		var a entity.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Body, &a.Author, &a.SourceName,
			&a.ImageURL, &a.PublishedAt, &a.CreatedAt, &a.Active, &a.Processed); err != nil {
			return nil, fmt.Errorf("ListUnprocessed: Scan: %w", err)
		}
		articles = append(articles, &a)
		byID[a.ID] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnprocessed: %w", err)
	}
	if len(articles) == 0 {
		return articles, nil
	}

	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	if err := repo.loadCategories(ctx, ids, byID); err != nil {
		return nil, fmt.Errorf("ListUnprocessed: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) loadCategories(ctx context.Context, ids []int64, byID map[int64]*entity.Article) error {
	const query = `
SELECT ac.article_id, c.id, c.name, c.slug, c.active
FROM article_categories ac
INNER JOIN categories c ON c.id = ac.category_id
WHERE ac.article_id = ANY($1)
ORDER BY ac.article_id ASC, c.id ASC`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("loadCategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var articleID int64
		var c entity.Category
		if err := rows.Scan(&articleID, &c.ID, &c.Name, &c.Slug, &c.Active); err != nil {
			return fmt.Errorf("loadCategories: Scan: %w", err)
		}
		if a, ok := byID[articleID]; ok {
			a.Categories = append(a.Categories, &c)
		}
	}
	return rows.Err()
}

func (repo *ArticleRepo) MarkProcessed(ctx context.Context, ids []int64) error {
	if err := markArticlesProcessed(ctx, repo.db, ids); err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	return nil
}

func markArticlesProcessed(ctx context.Context, q dbtx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE articles SET processed = TRUE WHERE id = ANY($1) AND processed = FALSE`
	_, err := q.ExecContext(ctx, query, pq.Array(ids))
	return err
}
