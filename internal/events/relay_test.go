package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/events"
	"freshmart/internal/repos"
)

type fakeProducer struct {
	mu   sync.Mutex
	sent []events.Message
	fail map[string]error
}

func (f *fakeProducer) Produce(_ context.Context, msg events.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.Key]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func openStore(t *testing.T) *repos.Store {
	t.Helper()
	s, err := repos.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addEvent(t *testing.T, s *repos.Store, orderID string) {
	t.Helper()
	o := &domain.Order{
		ID: orderID, UserID: "u-1", Status: domain.OrderPending,
		DeliveryType: domain.DeliveryPickup, TotalAmount: decimal.RequireFromString("13.51"),
		Items: []domain.OrderItem{{ProductID: "p-1", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("3.99")}},
	}
	ev, err := events.ForOrder("", events.OrderPlaced, o, "")
	require.NoError(t, err)
	require.NoError(t, s.Outbox.Add(context.Background(), ev))
}

func TestRelayPublishesInOrder(t *testing.T) {
	s := openStore(t)
	addEvent(t, s, "o-1")
	addEvent(t, s, "o-2")

	prod := &fakeProducer{}
	n, err := events.NewRelay(s, prod).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, prod.sent, 2)
	assert.Equal(t, "o-1", prod.sent[0].Key)
	assert.Equal(t, events.DefaultTopic, prod.sent[0].Topic)
	assert.Equal(t, events.OrderPlaced, prod.sent[0].Headers["event_type"])

	var payload events.OrderPayload
	require.NoError(t, json.Unmarshal(prod.sent[0].Value, &payload))
	assert.Equal(t, "o-1", payload.OrderID)
	assert.Equal(t, domain.OrderPending, payload.Status)
	require.Len(t, payload.Lines, 1)

	n, err = events.NewRelay(s, prod).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayRecordsFailures(t *testing.T) {
	s := openStore(t)
	addEvent(t, s, "o-1")
	addEvent(t, s, "o-2")

	prod := &fakeProducer{fail: map[string]error{"o-1": errors.New("broker down")}}
	n, err := events.NewRelay(s, prod).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := s.Outbox.Unpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o-1", pending[0].AggregateID)
	assert.Equal(t, 1, pending[0].Attempts)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "broker down", *pending[0].LastError)
}
