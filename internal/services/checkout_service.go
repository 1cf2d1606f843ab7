package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/pricing"
	"freshmart/internal/repos"
)

type CheckoutService struct {
	Orders   *OrderService
	Gateway  payments.Gateway
	BaseURL  string
	Currency string
}

type CheckoutResult struct {
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
}

// Start creates a PENDING order and a hosted payment session for it. The cart
// stays untouched until payment is confirmed. When the gateway refuses, the
// order is cancelled and the gateway error is returned.
func (s *CheckoutService) Start(ctx context.Context, userID string, in PlaceOrderInput) (*CheckoutResult, error) {
	var o *domain.Order
	err := s.Orders.Store.InTx(ctx, func(tx *repos.Tx) error {
		var err error
		o, err = s.Orders.createPending(ctx, tx, userID, in, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	req := s.request(o)
	sess, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		if _, cerr := s.Orders.Store.Orders.TransitionStatus(ctx, o.ID, domain.OrderPending, domain.OrderCancelled); cerr != nil {
			applog.ErrorCtx(ctx, "checkout.cancel_failed", cerr, zap.String("order_id", o.ID))
		}
		applog.WarnCtx(ctx, "checkout.gateway_failed", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}
	// the session is live at the processor either way, and the webhook finds
	// the order through its metadata
	if err := s.Orders.Store.Orders.SetPaymentSession(ctx, o.ID, sess.ID); err != nil {
		applog.ErrorCtx(ctx, "checkout.session_not_saved", err, zap.String("order_id", o.ID), zap.String("session_id", sess.ID))
	}
	applog.InfoCtx(ctx, "checkout.session_created", zap.String("order_id", o.ID), zap.String("session_id", sess.ID))
	return &CheckoutResult{URL: sess.URL, OrderID: o.ID, SessionID: sess.ID}, nil
}

func (s *CheckoutService) request(o *domain.Order) payments.CheckoutRequest {
	base := strings.TrimRight(s.BaseURL, "/")
	currency := s.Currency
	if currency == "" {
		currency = "usd"
	}
	req := payments.CheckoutRequest{
		OrderID:      o.ID,
		UserID:       o.UserID,
		DeliveryType: string(o.DeliveryType),
		Currency:     currency,
		SuccessURL:   base + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:    base + "/checkout-cancelled",
	}
	if o.ShippingAddressID != nil {
		req.ShippingAddressID = *o.ShippingAddressID
	}
	for _, it := range o.Items {
		req.Lines = append(req.Lines, payments.LineItem{
			Name:       it.Product.Name,
			UnitAmount: pricing.ToMinorUnits(it.PriceAtPurchase),
			Quantity:   int64(it.Quantity),
		})
	}
	if tax := pricing.ToMinorUnits(o.TaxAmount); tax > 0 {
		req.Lines = append(req.Lines, payments.LineItem{Name: "Sales tax", UnitAmount: tax, Quantity: 1})
	}
	if o.DiscountCode != nil && o.DiscountAmount.IsPositive() {
		req.DiscountCode = *o.DiscountCode
		req.DiscountAmount = pricing.ToMinorUnits(o.DiscountAmount)
	}
	return req
}

