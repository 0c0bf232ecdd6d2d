package leave

import "context"

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id int64) (LeaveRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (LeaveRequest, error)
	Update(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	// ListUnassigned returns Pending requests with no open approval.
	ListUnassigned(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
}
