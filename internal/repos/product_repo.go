package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

const productCols = `id, name, price, image_url, in_stock, category, created_at, updated_at`

type ProductFilter struct {
	Search   string
	Category string
	SortBy   string // price | inStock | name | createdAt
	Desc     bool
	Page     int
	PageSize int
}

var productSort = map[string]string{
	"price":     "price",
	"inStock":   "in_stock",
	"name":      "name",
	"createdAt": "created_at",
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetMany returns the products found for ids keyed by id; missing ids are absent.
func (r *ProductRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// List returns one page of products and the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Category != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(f.Category))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, r.q.Rebind(`SELECT COUNT(*) FROM products`+cond), args...); err != nil {
		return nil, 0, err
	}

	col, ok := productSort[f.SortBy]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, productCols, cond, col, dir)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	out := []domain.Product{}
	if err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
