package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"freshmart/internal/domain"
	"freshmart/internal/events"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
)

type PaymentService struct {
	Store    *repos.Store
	Verifier payments.WebhookVerifier
	Topic    string
}

// WebhookResult says what a delivery did. Ignored events and re-deliveries
// are acknowledged without a state change.
type WebhookResult struct {
	Received bool   `json:"received"`
	OrderID  string `json:"orderId,omitempty"`
	Updated  bool   `json:"updated"`
}

// HandleWebhook verifies a processor callback and moves the order from
// PENDING to PROCESSING. The transition, cart update and outbox row commit
// together, so a repeated delivery finds the order already moved and does
// nothing.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := s.Verifier.ParseEvent(payload, signature)
	if err != nil {
		return nil, err
	}
	switch ev.Type {
	case payments.EventChargeSucceeded, payments.EventCheckoutSessionComplete:
	default:
		applog.InfoCtx(ctx, "webhook.ignored", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return &WebhookResult{Received: true}, nil
	}
	orderID := ev.OrderID()
	if orderID == "" {
		return nil, domain.Invalid("event %s has no orderId metadata", ev.ID)
	}

	res := &WebhookResult{Received: true, OrderID: orderID}
	err = s.Store.InTx(ctx, func(tx *repos.Tx) error {
		changed, err := tx.Orders.TransitionStatus(ctx, orderID, domain.OrderPending, domain.OrderProcessing)
		if err != nil {
			return err
		}
		o, err := tx.Orders.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s: %w", orderID, err)
		}
		if !changed {
			return nil
		}
		res.Updated = true
		if o.FromCart {
			if err := removePaidLines(ctx, tx, o); err != nil {
				return err
			}
		}
		out, err := events.ForOrder(s.Topic, events.OrderPaid, o, domain.OrderPending)
		if err != nil {
			return err
		}
		return tx.Outbox.Add(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	if res.Updated {
		applog.InfoCtx(ctx, "webhook.order_paid", zap.String("event_id", ev.ID), zap.String("order_id", orderID))
	} else {
		applog.InfoCtx(ctx, "webhook.duplicate", zap.String("event_id", ev.ID), zap.String("order_id", orderID))
	}
	return res, nil
}

// removePaidLines takes the ordered quantities out of a cart-sourced order's
// cart. Lines added after checkout started stay.
func removePaidLines(ctx context.Context, tx *repos.Tx, o *domain.Order) error {
	full, err := tx.Orders.GetForUser(ctx, o.UserID, o.ID)
	if err != nil {
		return err
	}
	for _, it := range full.Items {
		if err := tx.Carts.RemoveOrdered(ctx, o.UserID, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
