package approval

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
)

// Coordinator owns the approval request lifecycle. The acting principal
// is read from ctx.
type Coordinator interface {
	OpenFor(ctx context.Context, request leave.LeaveRequest) (ApprovalRequest, error)
	Approve(ctx context.Context, req ApproveRequest) (ApprovalRequest, error)
	Reject(ctx context.Context, req RejectRequest) (ApprovalRequest, error)
	Get(ctx context.Context, id int64) (ApprovalRequest, error)
	List(ctx context.Context, filter ApprovalRequestFilter) ([]ApprovalRequest, int64, error)
	AssignApprover(ctx context.Context, req AssignApproverRequest) (ApprovalRequest, error)
}
