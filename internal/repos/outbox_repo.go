package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type OutboxEvent struct {
	ID            int64      `db:"id"`
	AggregateType string     `db:"aggregate_type"`
	AggregateID   string     `db:"aggregate_id"`
	EventType     string     `db:"event_type"`
	Topic         string     `db:"topic"`
	Payload       []byte     `db:"payload"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
	Attempts      int        `db:"attempts"`
	LastError     *string    `db:"last_error"`
}

// MaxOutboxAttempts is how many failed publishes an event gets before it is parked.
const MaxOutboxAttempts = 10

type OutboxRepo struct{ q sqlx.ExtContext }

// Add appends an event; call it on a Tx so it commits with the state change.
func (r *OutboxRepo) Add(ctx context.Context, ev *OutboxEvent) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO outbox(aggregate_type, aggregate_id, event_type, topic, payload, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`), ev.AggregateType, ev.AggregateID, ev.EventType, ev.Topic, string(ev.Payload), time.Now().UTC())
	return err
}

func (r *OutboxRepo) Unpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	var out []OutboxEvent
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT id, aggregate_type, aggregate_id, event_type, topic, payload, created_at,
		       published_at, attempts, last_error
		FROM outbox
		WHERE published_at IS NULL AND attempts < ?
		ORDER BY id ASC
		LIMIT ?
	`), MaxOutboxAttempts, limit)
	return out, err
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE outbox SET published_at = ?, last_error = NULL WHERE id = ?
	`), time.Now().UTC(), id)
	return err
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id int64, msg string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE outbox SET last_error = ?, attempts = attempts + 1 WHERE id = ?
	`), msg, id)
	return err
}
