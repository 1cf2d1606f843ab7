package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type CartRepo struct{ q sqlx.ExtContext }

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
	       p.id AS "product.id", p.name AS "product.name", p.price AS "product.price",
	       p.image_url AS "product.image_url", p.in_stock AS "product.in_stock",
	       p.category AS "product.category", p.created_at AS "product.created_at",
	       p.updated_at AS "product.updated_at"
	FROM cart_items ci
	JOIN carts c ON c.id = ci.cart_id
	JOIN products p ON p.id = ci.product_id`

// EnsureCart returns the user's cart id, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO carts(id, user_id, created_at, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`), uuid.NewString(), userID, now, now); err != nil {
		return "", err
	}
	return r.CartID(ctx, userID)
}

func (r *CartRepo) CartID(ctx context.Context, userID string) (string, error) {
	var id string
	err := sqlx.GetContext(ctx, r.q, &id, r.q.Rebind(`SELECT id FROM carts WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return id, err
}

// UpsertItem adds quantity to the (cart, product) line, inserting it when absent.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty int) (string, error) {
	now := time.Now().UTC()
	var id string
	err := sqlx.GetContext(ctx, r.q, &id, r.q.Rebind(`
		INSERT INTO cart_items(id, cart_id, product_id, quantity, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = excluded.updated_at
		RETURNING id
	`), uuid.NewString(), cartID, productID, qty, now, now)
	if err != nil {
		return "", err
	}
	_, err = r.q.ExecContext(ctx, r.q.Rebind(`UPDATE carts SET updated_at = ? WHERE id = ?`), now, cartID)
	return id, err
}

// Items lists the user's cart lines with product details, oldest first.
func (r *CartRepo) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(cartItemSelect+`
		WHERE c.user_id = ?
		ORDER BY ci.created_at ASC, ci.id ASC
	`), userID)
	return out, err
}

// Item returns one line of the user's cart; lines of other carts are not found.
func (r *CartRepo) Item(ctx context.Context, userID, itemID string) (*domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.q, &it, r.q.Rebind(cartItemSelect+`
		WHERE c.user_id = ? AND ci.id = ?
	`), userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, itemID string, qty int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE id = ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`), qty, time.Now().UTC(), itemID, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteItem reports whether a row was removed.
func (r *CartRepo) DeleteItem(ctx context.Context, userID, itemID string) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		DELETE FROM cart_items
		WHERE id = ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`), itemID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Clear empties the user's cart and keeps the cart row.
func (r *CartRepo) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RemoveOrdered takes qty of a product out of the user's cart, deleting the
// line once nothing is left. A line the user already removed is ignored.
func (r *CartRepo) RemoveOrdered(ctx context.Context, userID, productID string, qty int) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
		DELETE FROM cart_items
		WHERE product_id = ? AND quantity <= ?
		  AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`), productID, qty, userID); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE cart_items SET quantity = quantity - ?, updated_at = ?
		WHERE product_id = ? AND quantity > ?
		  AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)
	`), qty, time.Now().UTC(), productID, qty, userID)
	return err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
