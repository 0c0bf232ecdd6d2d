package outbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLeaveRequestCreated       EventType = "leave_request.created"
	EventLeaveRequestCancelled     EventType = "leave_request.cancelled"
	EventLeaveRequestEdited        EventType = "leave_request.edited"
	EventApprovalRequestOpened     EventType = "approval_request.opened"
	EventApprovalRequestUnassigned EventType = "approval_request.unassigned"
	EventApprovalRequestApproved   EventType = "approval_request.approved"
	EventApprovalRequestRejected   EventType = "approval_request.rejected"
)

const (
	AggregateLeaveRequest    = "leave_request"
	AggregateApprovalRequest = "approval_request"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Event is a workflow transition recorded in the same transaction as the
// state change and published later by the dispatcher.
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   int64
	EventType     EventType
	Payload       []byte
	// Recipients are employee ids notified over SSE.
	Recipients    []int64
	Status        Status
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	SentAt        *time.Time
}

// NewEvent marshals payload and stamps a fresh id.
func NewEvent(aggregateType string, aggregateID int64, eventType EventType, payload any, recipients ...int64) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		Recipients:    dedupe(recipients),
		Status:        StatusPending,
	}, nil
}

// Key is the partition key used when publishing.
func (e Event) Key() []byte {
	return []byte(strconv.FormatInt(e.AggregateID, 10))
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
