package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type CategoryRepo struct{ q sqlx.ExtContext }

// List derives categories from the catalog, alphabetically.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT category AS name,
		       COUNT(*) AS product_count,
		       SUM(CASE WHEN in_stock THEN 1 ELSE 0 END) AS in_stock_count
		FROM products
		GROUP BY category
		ORDER BY category
	`)
	return out, err
}
