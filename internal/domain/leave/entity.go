package leave

import "time"

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "Pending"
	LeaveRequestStatusApproved  LeaveRequestStatus = "Approved"
	LeaveRequestStatusRejected  LeaveRequestStatus = "Rejected"
	LeaveRequestStatusCancelled LeaveRequestStatus = "Cancelled"
)

func (s LeaveRequestStatus) Valid() bool {
	switch s {
	case LeaveRequestStatusPending, LeaveRequestStatusApproved, LeaveRequestStatusRejected, LeaveRequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s LeaveRequestStatus) IsTerminal() bool {
	return s == LeaveRequestStatusApproved || s == LeaveRequestStatusRejected || s == LeaveRequestStatusCancelled
}

// Outcome is an approver's decision as applied to a leave request.
type Outcome string

const (
	OutcomeApproved Outcome = "Approved"
	OutcomeRejected Outcome = "Rejected"
)

// LeaveRequest entity
type LeaveRequest struct {
	ID            int64
	EmployeeID    int64
	AbsenceReason string
	StartDate     time.Time
	EndDate       time.Time
	Comment       *string
	Status        LeaveRequestStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Read model
	EmployeeName *string
	// ApproverID is the approver of the open approval request, if any.
	ApproverID *int64
}

// DayCount is the inclusive number of calendar days covered.
func (r LeaveRequest) DayCount() int64 {
	return DayCount(r.StartDate, r.EndDate)
}

// DayCount returns end-start+1 in whole days. Both dates are treated as
// calendar days regardless of their clock time.
func DayCount(start, end time.Time) int64 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int64(e.Sub(s).Hours()/24) + 1
}
