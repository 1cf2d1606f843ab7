// Package payments talks to the card processor: hosted checkout sessions on
// the way out and signed webhook events on the way back.
package payments

import (
	"context"
	"errors"
)

// ErrGateway wraps any failure reported by the processor. ErrUnavailable is
// returned without calling the processor while the breaker is open.
var (
	ErrGateway          = errors.New("payment gateway error")
	ErrUnavailable      = errors.New("payment gateway unavailable")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type LineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID           string
	UserID            string
	DeliveryType      string
	ShippingAddressID string
	Lines             []LineItem
	// DiscountAmount is taken off once through a single-use coupon.
	DiscountAmount int64
	DiscountCode   string
	Currency       string
	SuccessURL     string
	CancelURL      string
}

// Metadata is attached to both the session and its payment so either
// webhook can find the order.
func (r CheckoutRequest) Metadata() map[string]string {
	return map[string]string{
		"orderId":           r.OrderID,
		"userId":            r.UserID,
		"deliveryType":      r.DeliveryType,
		"shippingAddressId": r.ShippingAddressID,
	}
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

const (
	EventChargeSucceeded         = "charge.succeeded"
	EventCheckoutSessionComplete = "checkout.session.completed"
)

type Event struct {
	ID       string
	Type     string
	Metadata map[string]string
}

func (e *Event) OrderID() string { return e.Metadata["orderId"] }

type WebhookVerifier interface {
	ParseEvent(payload []byte, signature string) (*Event, error)
}
