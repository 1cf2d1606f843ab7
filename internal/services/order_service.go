package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	"freshmart/internal/events"
	applog "freshmart/internal/log"
	"freshmart/internal/pricing"
	"freshmart/internal/repos"
)

type OrderService struct {
	Store *repos.Store
	Topic string
	Now   func() time.Time
}

func NewOrderService(store *repos.Store, topic string) *OrderService {
	return &OrderService{Store: store, Topic: topic, Now: time.Now}
}

type OrderLineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	// PriceAtPurchase is what the client displayed; the stored price always wins.
	PriceAtPurchase *decimal.Decimal `json:"priceAtPurchase,omitempty"`
}

// PlaceOrderInput without CartItems orders the user's stored cart.
type PlaceOrderInput struct {
	CartItems         []OrderLineInput `json:"cartItems" validate:"omitempty,dive"`
	DeliveryType      string           `json:"deliveryType" validate:"required"`
	ShippingAddressID string           `json:"shippingAddressId"`
	DiscountCode      string           `json:"discountCode"`
}

// Place creates a PENDING order from the input and empties the stored cart
// when the cart was the source, all in one transaction.
func (s *OrderService) Place(ctx context.Context, userID string, in PlaceOrderInput) (*domain.Order, error) {
	var out *domain.Order
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		var err error
		out, err = s.createPending(ctx, tx, userID, in, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// createPending runs inside tx. clearCart controls whether a cart-sourced
// order empties the cart now or leaves that to payment confirmation.
func (s *OrderService) createPending(ctx context.Context, tx *repos.Tx, userID string, in PlaceOrderInput, clearCart bool) (*domain.Order, error) {
	dt, err := domain.ParseDeliveryType(in.DeliveryType)
	if err != nil {
		return nil, err
	}

	var addressID *string
	if dt == domain.DeliveryDelivery {
		id := strings.TrimSpace(in.ShippingAddressID)
		if id == "" {
			return nil, domain.Invalid("shippingAddressId is required for delivery")
		}
		if _, err := tx.Addresses.Get(ctx, userID, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("shipping address not found")
			}
			return nil, err
		}
		addressID = &id
	}

	items, fromCart, err := s.resolveLines(ctx, tx, userID, in.CartItems)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	for _, it := range items {
		if !it.Product.InStock {
			return nil, domain.Invalid("%s is out of stock", it.Product.Name)
		}
	}

	now := s.Now().UTC()
	disc, err := resolveDiscount(ctx, tx.Discounts, in.DiscountCode, now)
	if err != nil {
		return nil, err
	}
	var (
		pct  *decimal.Decimal
		code *string
	)
	if disc != nil {
		pct = &disc.Percentage
		code = &disc.Code
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.PriceAtPurchase, Quantity: it.Quantity})
	}
	sum := pricing.Calculate(lines, pct)

	o := &domain.Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		SubtotalAmount:    sum.Subtotal,
		TaxAmount:         sum.Tax,
		DiscountAmount:    sum.Discount,
		TotalAmount:       sum.Total,
		DiscountCode:      code,
		DeliveryType:      dt,
		Status:            domain.OrderPending,
		ShippingAddressID: addressID,
		FromCart:          fromCart,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = o.ID
		if err := tx.Orders.InsertItem(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	o.Items = items

	if fromCart && clearCart {
		if _, err := tx.Carts.Clear(ctx, userID); err != nil {
			return nil, err
		}
	}

	ev, err := events.ForOrder(s.Topic, events.OrderPlaced, o, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Outbox.Add(ctx, ev); err != nil {
		return nil, err
	}
	return o, nil
}

// resolveLines prices the order from the database. Client lines win over the
// stored cart when given; fromCart reports which source was used.
func (s *OrderService) resolveLines(ctx context.Context, tx *repos.Tx, userID string, in []OrderLineInput) ([]domain.OrderItem, bool, error) {
	if len(in) == 0 {
		cart, err := tx.Carts.Items(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		out := make([]domain.OrderItem, 0, len(cart))
		for _, ci := range cart {
			out = append(out, domain.OrderItem{
				ProductID:       ci.ProductID,
				Quantity:        ci.Quantity,
				PriceAtPurchase: ci.Product.Price,
				Product:         ci.Product,
			})
		}
		return out, true, nil
	}

	ids := make([]string, 0, len(in))
	for _, l := range in {
		if l.Quantity <= 0 {
			return nil, false, domain.Invalid("quantity must be a positive integer")
		}
		ids = append(ids, l.ProductID)
	}
	products, err := tx.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	// repeated products collapse into one line
	idx := make(map[string]int, len(in))
	out := make([]domain.OrderItem, 0, len(in))
	for _, l := range in {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, false, fmt.Errorf("product %s: %w", l.ProductID, domain.ErrNotFound)
		}
		if l.PriceAtPurchase != nil && !l.PriceAtPurchase.Equal(p.Price) {
			applog.WarnCtx(ctx, "order.price_mismatch",
				zap.String("user_id", userID),
				zap.String("product_id", p.ID),
				zap.String("client_price", l.PriceAtPurchase.String()),
				zap.String("server_price", p.Price.String()))
		}
		if i, seen := idx[p.ID]; seen {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, domain.OrderItem{ProductID: p.ID, Quantity: l.Quantity, PriceAtPurchase: p.Price, Product: p})
	}
	return out, false, nil
}

// Get returns one of the user's orders with items and shipping address.
func (s *OrderService) Get(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := s.Store.Orders.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if o.ShippingAddressID != nil {
		a, err := s.Store.Addresses.Get(ctx, userID, *o.ShippingAddressID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		o.ShippingAddress = a
	}
	return o, nil
}

// List returns the user's orders, newest first unless asked otherwise.
func (s *OrderService) List(ctx context.Context, userID, sortBy, order string) ([]domain.Order, error) {
	if sortBy == "" {
		sortBy = "date"
	}
	if sortBy != "date" && sortBy != "total" {
		return nil, domain.Invalid("sortBy must be date or total")
	}
	desc := true
	switch strings.ToLower(order) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, domain.Invalid("order must be asc or desc")
	}

	orders, err := s.Store.Orders.ListByUser(ctx, userID, sortBy, desc)
	if err != nil {
		return nil, err
	}
	addrs, err := s.Store.Addresses.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Address, len(addrs))
	for i := range addrs {
		byID[addrs[i].ID] = &addrs[i]
	}
	for i := range orders {
		if id := orders[i].ShippingAddressID; id != nil {
			orders[i].ShippingAddress = byID[*id]
		}
	}
	return orders, nil
}
