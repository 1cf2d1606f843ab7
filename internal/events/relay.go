package events

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	applog "freshmart/internal/log"
	"freshmart/internal/repos"
)

// Relay polls the outbox and publishes unpublished rows in id order.
// Run a single relay per database.
type Relay struct {
	outbox    *repos.OutboxRepo
	producer  Producer
	batchSize int
	interval  time.Duration
	tracer    trace.Tracer
}

func NewRelay(store *repos.Store, producer Producer) *Relay {
	return &Relay{
		outbox:    store.Outbox,
		producer:  producer,
		batchSize: 50,
		interval:  500 * time.Millisecond,
		tracer:    otel.Tracer("freshmart/outbox-relay"),
	}
}

// Start blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	applog.InfoCtx(ctx, "outbox.relay.start", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			applog.InfoCtx(ctx, "outbox.relay.stop")
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				applog.ErrorCtx(ctx, "outbox.relay.batch", err)
			}
		}
	}
}

// ProcessBatch publishes up to one batch and returns how many rows were published.
// A failed publish is recorded on the row and does not stop the batch.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "Relay.ProcessBatch")
	defer span.End()

	evs, err := r.outbox.Unpublished(ctx, r.batchSize)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("outbox.batch_size", len(evs)))

	published := 0
	for _, ev := range evs {
		err := r.producer.Produce(ctx, Message{
			Topic:   ev.Topic,
			Key:     ev.AggregateID,
			Value:   ev.Payload,
			Headers: map[string]string{"event_type": ev.EventType},
		})
		if err != nil {
			applog.WarnCtx(ctx, "outbox.publish.failed",
				zap.Int64("event_id", ev.ID), zap.Int("attempts", ev.Attempts+1), zap.Error(err))
			if dbErr := r.outbox.MarkFailed(ctx, ev.ID, err.Error()); dbErr != nil {
				return published, dbErr
			}
			continue
		}
		if err := r.outbox.MarkPublished(ctx, ev.ID); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
