package approval

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "Pending"
	ApprovalStatusApproved ApprovalStatus = "Approved"
	ApprovalStatusRejected ApprovalStatus = "Rejected"
)

func (s ApprovalStatus) Valid() bool {
	return s == ApprovalStatusPending || s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// ApprovalRequest entity. A Pending request whose leave request was
// cancelled keeps its status and gets ClosedAt; it can no longer be decided.
type ApprovalRequest struct {
	ID             int64
	LeaveRequestID int64
	ApproverID     int64
	Status         ApprovalStatus
	Comment        *string
	DecidedAt      *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Read model
	RequesterID   int64
	RequesterName *string
	ApproverName  *string
	AbsenceReason string
	StartDate     time.Time
	EndDate       time.Time
	LeaveStatus   leave.LeaveRequestStatus
}

// IsOpen reports whether a decision can still be recorded.
func (a ApprovalRequest) IsOpen() bool {
	return a.Status == ApprovalStatusPending && a.ClosedAt == nil
}

// Outcome maps a decided status onto the leave outcome.
func (s ApprovalStatus) Outcome() (leave.Outcome, bool) {
	switch s {
	case ApprovalStatusApproved:
		return leave.OutcomeApproved, true
	case ApprovalStatusRejected:
		return leave.OutcomeRejected, true
	}
	return "", false
}
