package approval

import "context"

// ApprovalRequestRepository - interface for approval_requests table
type ApprovalRequestRepository interface {
	Create(ctx context.Context, request ApprovalRequest) (ApprovalRequest, error)
	GetByID(ctx context.Context, id int64) (ApprovalRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (ApprovalRequest, error)
	// GetOpenByLeaveRequestID returns ErrApprovalRequestNotFound when there
	// is no open approval.
	GetOpenByLeaveRequestID(ctx context.Context, leaveRequestID int64) (ApprovalRequest, error)
	// Decide records a decision on an open request. It fails with
	// ErrApprovalNotPending when the request is no longer open.
	Decide(ctx context.Context, id int64, status ApprovalStatus, comment *string) (ApprovalRequest, error)
	CloseOpenForLeaveRequest(ctx context.Context, leaveRequestID int64) error
	List(ctx context.Context, filter ApprovalRequestFilter) ([]ApprovalRequest, int64, error)
}
