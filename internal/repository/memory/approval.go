package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
)

type approvalRepo struct{ s *Store }

func (r approvalRepo) withReadModel(a approval.ApprovalRequest) approval.ApprovalRequest {
	if lr, ok := r.s.data.leaves[a.LeaveRequestID]; ok {
		a.RequesterID = lr.EmployeeID
		a.AbsenceReason = lr.AbsenceReason
		a.StartDate = lr.StartDate
		a.EndDate = lr.EndDate
		a.LeaveStatus = lr.Status
		if e, ok := r.s.data.employees[lr.EmployeeID]; ok {
			a.RequesterName = strPtr(e.FullName)
		}
	}
	if e, ok := r.s.data.employees[a.ApproverID]; ok {
		a.ApproverName = strPtr(e.FullName)
	}
	return a
}

func (r approvalRepo) Create(ctx context.Context, a approval.ApprovalRequest) (approval.ApprovalRequest, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.leaves[a.LeaveRequestID]; !ok {
		return approval.ApprovalRequest{}, leave.ErrLeaveRequestNotFound
	}
	if _, ok := r.s.data.employees[a.ApproverID]; !ok {
		return approval.ApprovalRequest{}, approval.ErrInvalidApprover
	}
	if a.IsOpen() {
		if _, open := r.s.openApproval(a.LeaveRequestID); open {
			return approval.ApprovalRequest{}, approval.ErrApprovalAlreadyOpen
		}
	}
	a.ID = r.s.nextID()
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.data.approvals[a.ID] = a
	return r.withReadModel(a), nil
}

func (r approvalRepo) GetByID(ctx context.Context, id int64) (approval.ApprovalRequest, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.data.approvals[id]
	if !ok {
		return approval.ApprovalRequest{}, approval.ErrApprovalRequestNotFound
	}
	return r.withReadModel(a), nil
}

func (r approvalRepo) GetByIDForUpdate(ctx context.Context, id int64) (approval.ApprovalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r approvalRepo) GetOpenByLeaveRequestID(ctx context.Context, leaveRequestID int64) (approval.ApprovalRequest, error) {
	defer r.s.lock(ctx)()

	for _, a := range r.s.data.approvals {
		if a.LeaveRequestID == leaveRequestID && a.IsOpen() {
			return r.withReadModel(a), nil
		}
	}
	return approval.ApprovalRequest{}, approval.ErrApprovalRequestNotFound
}

func (r approvalRepo) Decide(ctx context.Context, id int64, status approval.ApprovalStatus, comment *string) (approval.ApprovalRequest, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.data.approvals[id]
	if !ok {
		return approval.ApprovalRequest{}, approval.ErrApprovalRequestNotFound
	}
	if !a.IsOpen() {
		return approval.ApprovalRequest{}, approval.ErrApprovalNotPending
	}
	if status == approval.ApprovalStatusRejected && (comment == nil || *comment == "") {
		return approval.ApprovalRequest{}, approval.ErrRejectCommentRequired
	}
	now := r.s.now()
	a.Status = status
	a.Comment = comment
	a.DecidedAt = &now
	a.UpdatedAt = now
	r.s.data.approvals[id] = a
	return r.withReadModel(a), nil
}

func (r approvalRepo) CloseOpenForLeaveRequest(ctx context.Context, leaveRequestID int64) error {
	defer r.s.lock(ctx)()

	now := r.s.now()
	for id, a := range r.s.data.approvals {
		if a.LeaveRequestID == leaveRequestID && a.IsOpen() {
			a.ClosedAt = &now
			a.UpdatedAt = now
			r.s.data.approvals[id] = a
		}
	}
	return nil
}

func (r approvalRepo) List(ctx context.Context, filter approval.ApprovalRequestFilter) ([]approval.ApprovalRequest, int64, error) {
	defer r.s.lock(ctx)()

	v := filter.Visibility
	var out []approval.ApprovalRequest
	for _, a := range r.s.data.approvals {
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		if filter.LeaveRequestID != nil && a.LeaveRequestID != *filter.LeaveRequestID {
			continue
		}
		a = r.withReadModel(a)
		if !v.All && !(v.Assigned && a.ApproverID == v.ActorID) && !(v.Own && a.RequesterID == v.ActorID) {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b approval.ApprovalRequest) int { return cmp.Compare(b.ID, a.ID) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}
