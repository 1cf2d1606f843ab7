package services

import (
	"context"
	"fmt"

	"freshmart/internal/domain"
	"freshmart/internal/events"
	"freshmart/internal/repos"
)

type AdminService struct {
	Store *repos.Store
	Topic string
}

// UpdateOrderStatus moves an order along the status machine. Transitions the
// machine does not allow fail with ErrInvalidTransition, as does a concurrent
// change that got there first.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Known() {
		return nil, domain.Invalid("unknown status %q", next)
	}
	var out *domain.Order
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		o, err := tx.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		prev := o.Status
		if !prev.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
		}
		changed, err := tx.Orders.TransitionStatus(ctx, id, prev, next)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: order changed concurrently", domain.ErrInvalidTransition)
		}
		o.Status = next
		ev, err := events.ForOrder(s.Topic, events.OrderStatusChanged, o, prev)
		if err != nil {
			return err
		}
		if err := tx.Outbox.Add(ctx, ev); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
