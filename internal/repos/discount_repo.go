package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type DiscountRepo struct{ q sqlx.ExtContext }

// Get looks a code up case-insensitively. Expiry is the caller's concern.
func (r *DiscountRepo) Get(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var d domain.DiscountCode
	err := sqlx.GetContext(ctx, r.q, &d, r.q.Rebind(`
		SELECT code, percentage, expires_at FROM discount_codes WHERE code = ?
	`), strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
