package category

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wichananm65/storefront-backend/internal/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const listCategoriesQuery = `
	SELECT category, count(*)
	FROM products
	WHERE is_active = true AND category IS NOT NULL AND category <> ''
	GROUP BY category
	ORDER BY category
`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return []Category{}, nil
		}
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
