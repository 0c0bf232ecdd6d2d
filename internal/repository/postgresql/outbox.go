package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/google/uuid"
)

type outboxRepositoryImpl struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) outbox.Repository {
	return &outboxRepositoryImpl{db: db}
}

// Create implements outbox.Repository.
func (r *outboxRepositoryImpl) Create(ctx context.Context, event outbox.Event) error {
	q := GetQuerier(ctx, r.db)

	recipients := event.Recipients
	if recipients == nil {
		recipients = []int64{}
	}
	_, err := q.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, recipients, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.AggregateType, event.AggregateID, event.EventType, event.Payload, recipients, event.Status)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// ListPending implements outbox.Repository.
func (r *outboxRepositoryImpl) ListPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, recipients, status,
			attempts, next_attempt_at, last_error, created_at, sent_at
		FROM outbox_events
		WHERE status = 'pending' AND next_attempt_at <= NOW()
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]outbox.Event, 0, limit)
	for rows.Next() {
		var e outbox.Event
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Recipients, &e.Status,
			&e.Attempts, &e.NextAttemptAt, &e.LastError, &e.CreatedAt, &e.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// MarkSent implements outbox.Repository.
func (r *outboxRepositoryImpl) MarkSent(ctx context.Context, id uuid.UUID) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'sent', attempts = attempts + 1, sent_at = NOW(), last_error = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}

// MarkRetry implements outbox.Repository.
func (r *outboxRepositoryImpl) MarkRetry(ctx context.Context, id uuid.UUID, reason string, nextAttemptAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = LEFT($2, 500), next_attempt_at = $3
		WHERE id = $1
	`, id, reason, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox event: %w", err)
	}
	return nil
}

// MarkFailed implements outbox.Repository.
func (r *outboxRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'failed', attempts = attempts + 1, last_error = LEFT($2, 500)
		WHERE id = $1
	`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
