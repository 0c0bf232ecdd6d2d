package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/google/uuid"
)

type outboxRepo struct{ s *Store }

func (r outboxRepo) Create(ctx context.Context, event outbox.Event) error {
	defer r.s.lock(ctx)()

	event.CreatedAt = r.s.now()
	if event.NextAttemptAt.IsZero() {
		event.NextAttemptAt = event.CreatedAt
	}
	r.s.data.events = append(r.s.data.events, event)
	return nil
}

func (r outboxRepo) ListPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	defer r.s.lock(ctx)()

	now := r.s.now()
	var out []outbox.Event
	for _, e := range r.s.data.events {
		if e.Status == outbox.StatusPending && !e.NextAttemptAt.After(now) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r outboxRepo) update(id uuid.UUID, fn func(*outbox.Event)) {
	for i := range r.s.data.events {
		if r.s.data.events[i].ID == id {
			fn(&r.s.data.events[i])
			return
		}
	}
}

func (r outboxRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	now := r.s.now()
	r.update(id, func(e *outbox.Event) {
		e.Status = outbox.StatusSent
		e.Attempts++
		e.SentAt = &now
		e.LastError = nil
	})
	return nil
}

func (r outboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, reason string, nextAttemptAt time.Time) error {
	defer r.s.lock(ctx)()

	r.update(id, func(e *outbox.Event) {
		e.Attempts++
		e.LastError = &reason
		e.NextAttemptAt = nextAttemptAt
	})
	return nil
}

func (r outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	defer r.s.lock(ctx)()

	r.update(id, func(e *outbox.Event) {
		e.Status = outbox.StatusFailed
		e.Attempts++
		e.LastError = &reason
	})
	return nil
}
