// Package events turns order state changes into outbox rows and relays them
// to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

const (
	OrderPlaced        = "order.placed"
	OrderPaid          = "order.paid"
	OrderStatusChanged = "order.status_changed"
)

const DefaultTopic = "orders"

type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderPayload struct {
	EventType    string              `json:"eventType"`
	OrderID      string              `json:"orderId"`
	UserID       string              `json:"userId"`
	Status       domain.OrderStatus  `json:"status"`
	PrevStatus   domain.OrderStatus  `json:"previousStatus,omitempty"`
	DeliveryType domain.DeliveryType `json:"deliveryType,omitempty"`
	Total        decimal.Decimal     `json:"total"`
	Lines        []OrderLine         `json:"lines,omitempty"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

// ForOrder builds the outbox row for an order event. prev is only set for
// status changes.
func ForOrder(topic, eventType string, o *domain.Order, prev domain.OrderStatus) (*repos.OutboxEvent, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	p := OrderPayload{
		EventType:    eventType,
		OrderID:      o.ID,
		UserID:       o.UserID,
		Status:       o.Status,
		PrevStatus:   prev,
		DeliveryType: o.DeliveryType,
		Total:        o.TotalAmount,
		OccurredAt:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		p.Lines = append(p.Lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.PriceAtPurchase})
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &repos.OutboxEvent{
		AggregateType: "order",
		AggregateID:   o.ID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       b,
	}, nil
}
