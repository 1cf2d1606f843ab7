package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type OrderRepo struct{ q sqlx.ExtContext }

const orderCols = `id, user_id, subtotal_amount, tax_amount, discount_amount, total_amount,
	discount_code, delivery_type, status, shipping_address_id, payment_session_id, from_cart,
	created_at, updated_at`

const orderItemSelect = `
	SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase,
	       p.id AS "product.id", p.name AS "product.name", p.price AS "product.price",
	       p.image_url AS "product.image_url", p.in_stock AS "product.in_stock",
	       p.category AS "product.category", p.created_at AS "product.created_at",
	       p.updated_at AS "product.updated_at"
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id`

// Create inserts a new order header.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO orders(id, user_id, subtotal_amount, tax_amount, discount_amount, total_amount,
		                   discount_code, delivery_type, status, shipping_address_id, payment_session_id,
		                   from_cart, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), o.ID, o.UserID, o.SubtotalAmount, o.TaxAmount, o.DiscountAmount, o.TotalAmount,
		o.DiscountCode, o.DeliveryType, o.Status, o.ShippingAddressID, o.PaymentSessionID,
		o.FromCart, o.CreatedAt, o.UpdatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(ctx context.Context, it *domain.OrderItem) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO order_items(id, order_id, product_id, quantity, price_at_purchase)
		VALUES(?, ?, ?, ?, ?)
	`), it.ID, it.OrderID, it.ProductID, it.Quantity, it.PriceAtPurchase)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, r.q, &o, r.q.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetForUser loads an order with its items; orders of other users are not found.
func (r *OrderRepo) GetForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	items := []domain.OrderItem{}
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(orderItemSelect+`
		WHERE oi.order_id = ? ORDER BY p.name
	`), id); err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

var orderSort = map[string]string{
	"date":  "created_at",
	"total": "total_amount",
}

// ListByUser returns the user's orders with items. sortBy is date or total.
func (r *OrderRepo) ListByUser(ctx context.Context, userID, sortBy string, desc bool) ([]domain.Order, error) {
	col, ok := orderSort[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	orders := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.q, &orders, r.q.Rebind(fmt.Sprintf(
		`SELECT %s FROM orders WHERE user_id = ? ORDER BY %s %s, id ASC`, orderCols, col, dir,
	)), userID); err != nil {
		return nil, err
	}

	var items []domain.OrderItem
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(orderItemSelect+`
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? ORDER BY p.name
	`), userID); err != nil {
		return nil, err
	}
	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// TransitionStatus moves the order from one status to another only if it is
// still in from. It reports whether a row changed.
func (r *OrderRepo) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`), to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *OrderRepo) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE orders SET payment_session_id = ?, updated_at = ? WHERE id = ?
	`), sessionID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
