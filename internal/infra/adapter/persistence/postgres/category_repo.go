package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) repository.CategoryRepository {
	return &CategoryRepo{db: db}
}

func (repo *CategoryRepo) ListActive(ctx context.Context) ([]*entity.Category, error) {
	const query = `
SELECT id, name, slug, active
FROM categories
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]*entity.Category, 0, 32)
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Active); err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
