package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type AddressRepo struct{ q sqlx.ExtContext }

const addressCols = `id, user_id, street, city, state, zip_code, is_default, created_at, updated_at`

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO addresses(`+addressCols+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), a.ID, a.UserID, a.Street, a.City, a.State, a.ZipCode, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	return err
}

// Get returns the address only if it belongs to userID.
func (r *AddressRepo) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	var a domain.Address
	err := sqlx.GetContext(ctx, r.q, &a, r.q.Rebind(`
		SELECT `+addressCols+` FROM addresses WHERE id = ? AND user_id = ?
	`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List orders the default address first, then newest.
func (r *AddressRepo) List(ctx context.Context, userID string) ([]domain.Address, error) {
	out := []domain.Address{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+addressCols+` FROM addresses WHERE user_id = ?
		ORDER BY is_default DESC, created_at DESC, id ASC
	`), userID)
	return out, err
}

func (r *AddressRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM addresses WHERE user_id = ?`), userID)
	return n, err
}

func (r *AddressRepo) Update(ctx context.Context, a *domain.Address) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE addresses SET street = ?, city = ?, state = ?, zip_code = ?, is_default = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), a.Street, a.City, a.State, a.ZipCode, a.IsDefault, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ClearDefault unsets the default flag on every address of the user.
func (r *AddressRepo) ClearDefault(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE addresses SET is_default = FALSE WHERE user_id = ? AND is_default = TRUE
	`), userID)
	return err
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM addresses WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
