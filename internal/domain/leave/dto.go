package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type CreateLeaveRequestRequest struct {
	// EmployeeID files on behalf of another employee; empty means self.
	EmployeeID    *int64 `json:"employee_id,omitempty"`
	AbsenceReason string `json:"absence_reason"`
	// StartDate defaults to today when omitted.
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date"`
	Comment   *string `json:"comment,omitempty"`
}

func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.AbsenceReason) {
		errs.Add("absence_reason", "absence_reason is required")
	} else if validator.ExceedsLength(r.AbsenceReason, 255) {
		errs.Add("absence_reason", "absence_reason must not exceed 255 characters")
	}

	if r.StartDate != "" {
		if _, ok := validator.IsValidDate(r.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}

	if validator.IsEmpty(r.EndDate) {
		errs.Add("end_date", "end_date is required")
	} else if _, ok := validator.IsValidDate(r.EndDate); !ok {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}

	if r.Comment != nil && validator.ExceedsLength(*r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}
	if r.EmployeeID != nil && *r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id must be a positive id")
	}

	return errs.Err()
}

type EditLeaveRequestRequest struct {
	ID            int64   `json:"-"`
	AbsenceReason *string `json:"absence_reason,omitempty"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	Comment       *string `json:"comment,omitempty"`
}

func (r *EditLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.AbsenceReason != nil {
		if validator.IsEmpty(*r.AbsenceReason) {
			errs.Add("absence_reason", "absence_reason must not be empty")
		} else if validator.ExceedsLength(*r.AbsenceReason, 255) {
			errs.Add("absence_reason", "absence_reason must not exceed 255 characters")
		}
	}
	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if r.Comment != nil && validator.ExceedsLength(*r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}
	if r.AbsenceReason == nil && r.StartDate == nil && r.EndDate == nil && r.Comment == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.Err()
}

type LeaveRequestFilter struct {
	EmployeeID *int64  `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	// From/To select requests overlapping the window.
	From      *string `json:"from,omitempty"`
	To        *string `json:"to,omitempty"`
	SortBy    string  `json:"sort_by,omitempty"`
	SortOrder string  `json:"sort_order,omitempty"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`

	Visibility access.Visibility `json:"-"`
}

var leaveSortColumns = []string{"start_date", "end_date", "created_at", "status"}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !LeaveRequestStatus(*f.Status).Valid() {
		errs.Add("status", "status must be one of Pending, Approved, Rejected, Cancelled")
	}
	if f.From != nil {
		if _, ok := validator.IsValidDate(*f.From); !ok {
			errs.Add("from", "from must be in YYYY-MM-DD format")
		}
	}
	if f.To != nil {
		if _, ok := validator.IsValidDate(*f.To); !ok {
			errs.Add("to", "to must be in YYYY-MM-DD format")
		}
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	} else if !validator.IsInSlice(f.SortBy, leaveSortColumns) {
		errs.Add("sort_by", "sort_by must be one of start_date, end_date, created_at, status")
	}
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	} else if f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs.Add("sort_order", "sort_order must be asc or desc")
	}
	f.Page, f.Limit = validator.NormalizePage(f.Page, f.Limit)

	return errs.Err()
}

type LeaveRequestResponse struct {
	ID            int64     `json:"id"`
	EmployeeID    int64     `json:"employee_id"`
	EmployeeName  *string   `json:"employee_name,omitempty"`
	AbsenceReason string    `json:"absence_reason"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	DayCount      int64     `json:"day_count"`
	Comment       *string   `json:"comment,omitempty"`
	Status        string    `json:"status"`
	ApproverID    *int64    `json:"approver_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		AbsenceReason: r.AbsenceReason,
		StartDate:     r.StartDate.Format(validator.DateLayout),
		EndDate:       r.EndDate.Format(validator.DateLayout),
		DayCount:      r.DayCount(),
		Comment:       r.Comment,
		Status:        string(r.Status),
		ApproverID:    r.ApproverID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type ListLeaveRequestResponse struct {
	LeaveRequests []LeaveRequestResponse `json:"leave_requests"`
	TotalCount    int64                  `json:"total_count"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	TotalPages    int                    `json:"total_pages"`
}

func NewListLeaveRequestResponse(requests []LeaveRequest, total int64, page, limit int) ListLeaveRequestResponse {
	items := make([]LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		items = append(items, NewLeaveRequestResponse(r))
	}
	return ListLeaveRequestResponse{
		LeaveRequests: items,
		TotalCount:    total,
		Page:          page,
		Limit:         limit,
		TotalPages:    validator.TotalPages(total, limit),
	}
}
