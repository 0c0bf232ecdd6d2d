package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type leaveRepo struct{ s *Store }

// openApproval must be called with the store lock held.
func (s *Store) openApproval(leaveRequestID int64) (int64, bool) {
	for _, a := range s.data.approvals {
		if a.LeaveRequestID == leaveRequestID && a.IsOpen() {
			return a.ApproverID, true
		}
	}
	return 0, false
}

func (r leaveRepo) withReadModel(lr leave.LeaveRequest) leave.LeaveRequest {
	lr.EmployeeName = nil
	if e, ok := r.s.data.employees[lr.EmployeeID]; ok {
		lr.EmployeeName = strPtr(e.FullName)
	}
	lr.ApproverID = nil
	if approverID, ok := r.s.openApproval(lr.ID); ok {
		lr.ApproverID = &approverID
	}
	return lr
}

func (r leaveRepo) Create(ctx context.Context, lr leave.LeaveRequest) (leave.LeaveRequest, error) {
	defer r.s.lock(ctx)()

	if lr.EndDate.Before(lr.StartDate) {
		return leave.LeaveRequest{}, leave.ErrInvalidDateRange
	}
	lr.ID = r.s.nextID()
	lr.CreatedAt = r.s.now()
	lr.UpdatedAt = lr.CreatedAt
	r.s.data.leaves[lr.ID] = lr
	return r.withReadModel(lr), nil
}

func (r leaveRepo) GetByID(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	defer r.s.lock(ctx)()

	lr, ok := r.s.data.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r.withReadModel(lr), nil
}

func (r leaveRepo) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	return r.GetByID(ctx, id)
}

func (r leaveRepo) Update(ctx context.Context, lr leave.LeaveRequest) (leave.LeaveRequest, error) {
	defer r.s.lock(ctx)()

	current, ok := r.s.data.leaves[lr.ID]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	if lr.EndDate.Before(lr.StartDate) {
		return leave.LeaveRequest{}, leave.ErrInvalidDateRange
	}
	lr.EmployeeID = current.EmployeeID
	lr.CreatedAt = current.CreatedAt
	lr.UpdatedAt = r.s.now()
	r.s.data.leaves[lr.ID] = lr
	return r.withReadModel(lr), nil
}

func (r leaveRepo) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	defer r.s.lock(ctx)()

	return r.list(filter, func(lr leave.LeaveRequest) bool {
		return r.visible(filter.Visibility, lr)
	})
}

func (r leaveRepo) ListUnassigned(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	defer r.s.lock(ctx)()

	return r.list(filter, func(lr leave.LeaveRequest) bool {
		if lr.Status != leave.LeaveRequestStatusPending {
			return false
		}
		_, open := r.s.openApproval(lr.ID)
		return !open
	})
}

func (r leaveRepo) list(filter leave.LeaveRequestFilter, keep func(leave.LeaveRequest) bool) ([]leave.LeaveRequest, int64, error) {
	from := parseFilterDate(filter.From)
	to := parseFilterDate(filter.To)

	var out []leave.LeaveRequest
	for _, lr := range r.s.data.leaves {
		if filter.EmployeeID != nil && lr.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(lr.Status) != *filter.Status {
			continue
		}
		if from != nil && lr.EndDate.Before(*from) {
			continue
		}
		if to != nil && lr.StartDate.After(*to) {
			continue
		}
		if !keep(lr) {
			continue
		}
		out = append(out, r.withReadModel(lr))
	}

	desc := filter.SortOrder != "asc"
	slices.SortFunc(out, func(a, b leave.LeaveRequest) int {
		c := compareLeave(a, b, filter.SortBy)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func compareLeave(a, b leave.LeaveRequest, sortBy string) int {
	switch sortBy {
	case "start_date":
		return a.StartDate.Compare(b.StartDate)
	case "end_date":
		return a.EndDate.Compare(b.EndDate)
	case "status":
		return cmp.Compare(a.Status, b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r leaveRepo) visible(v access.Visibility, lr leave.LeaveRequest) bool {
	if v.All {
		return true
	}
	if v.Own && lr.EmployeeID == v.ActorID {
		return true
	}
	if v.Team && r.s.isTeamMember(v.ActorID, lr.EmployeeID) {
		return true
	}
	if v.Assigned {
		for _, a := range r.s.data.approvals {
			if a.LeaveRequestID == lr.ID && a.ApproverID == v.ActorID {
				return true
			}
		}
	}
	return false
}

func parseFilterDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := validator.IsValidDate(*s)
	if !ok {
		return nil
	}
	return &t
}
