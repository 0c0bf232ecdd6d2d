package approval

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type ApproveRequest struct {
	ID      int64   `json:"-"`
	Comment *string `json:"comment,omitempty"`
}

func (r *ApproveRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Comment != nil && validator.ExceedsLength(*r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}
	return errs.Err()
}

type RejectRequest struct {
	ID      int64  `json:"-"`
	Comment string `json:"comment"`
}

// Validate only checks the length. Reject trims the comment and fails
// with ErrRejectCommentRequired before looking the approval up.
func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.ExceedsLength(r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}
	return errs.Err()
}

type AssignApproverRequest struct {
	LeaveRequestID int64 `json:"-"`
	ApproverID     int64 `json:"approver_id"`
}

func (r *AssignApproverRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.ApproverID <= 0 {
		errs.Add("approver_id", "approver_id is required")
	}
	return errs.Err()
}

type ApprovalRequestFilter struct {
	Status         *string `json:"status,omitempty"`
	LeaveRequestID *int64  `json:"leave_request_id,omitempty"`
	Page           int     `json:"page"`
	Limit          int     `json:"limit"`

	Visibility access.Visibility `json:"-"`
}

func (f *ApprovalRequestFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !ApprovalStatus(*f.Status).Valid() {
		errs.Add("status", "status must be one of Pending, Approved, Rejected")
	}
	f.Page, f.Limit = validator.NormalizePage(f.Page, f.Limit)
	return errs.Err()
}

type ApprovalRequestResponse struct {
	ID             int64      `json:"id"`
	LeaveRequestID int64      `json:"leave_request_id"`
	ApproverID     int64      `json:"approver_id"`
	ApproverName   *string    `json:"approver_name,omitempty"`
	RequesterID    int64      `json:"requester_id"`
	RequesterName  *string    `json:"requester_name,omitempty"`
	AbsenceReason  string     `json:"absence_reason"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Status         string     `json:"status"`
	Open           bool       `json:"open"`
	Comment        *string    `json:"comment,omitempty"`
	LeaveStatus    string     `json:"leave_status"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func NewApprovalRequestResponse(a ApprovalRequest) ApprovalRequestResponse {
	return ApprovalRequestResponse{
		ID:             a.ID,
		LeaveRequestID: a.LeaveRequestID,
		ApproverID:     a.ApproverID,
		ApproverName:   a.ApproverName,
		RequesterID:    a.RequesterID,
		RequesterName:  a.RequesterName,
		AbsenceReason:  a.AbsenceReason,
		StartDate:      a.StartDate.Format(validator.DateLayout),
		EndDate:        a.EndDate.Format(validator.DateLayout),
		Status:         string(a.Status),
		Open:           a.IsOpen(),
		Comment:        a.Comment,
		LeaveStatus:    string(a.LeaveStatus),
		DecidedAt:      a.DecidedAt,
		ClosedAt:       a.ClosedAt,
		CreatedAt:      a.CreatedAt,
	}
}

type ListApprovalRequestResponse struct {
	ApprovalRequests []ApprovalRequestResponse `json:"approval_requests"`
	TotalCount       int64                     `json:"total_count"`
	Page             int                       `json:"page"`
	Limit            int                       `json:"limit"`
	TotalPages       int                       `json:"total_pages"`
}
