package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, event Event) error
	// ListPending claims due events. Inside a transaction the rows stay
	// locked so concurrent dispatchers skip them.
	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	// MarkRetry records a failed attempt and schedules the next one.
	MarkRetry(ctx context.Context, id uuid.UUID, reason string, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Publisher delivers an event to one transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
