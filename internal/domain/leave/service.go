package leave

import "context"

// LeaveRequestLedger owns the leave request lifecycle. The acting
// principal is read from ctx.
type LeaveRequestLedger interface {
	Create(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequest, error)
	Cancel(ctx context.Context, requestID int64) (LeaveRequest, error)
	Edit(ctx context.Context, req EditLeaveRequestRequest) (LeaveRequest, error)
	Get(ctx context.Context, requestID int64) (LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	ListUnassigned(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
}

// DecisionApplier transitions a Pending request to its decided state. Only
// the approval coordinator calls it.
type DecisionApplier interface {
	ApplyDecision(ctx context.Context, requestID int64, outcome Outcome, comment *string) (LeaveRequest, error)
}

// ApprovalRouter is notified by the ledger when a request needs a decision
// or is withdrawn.
type ApprovalRouter interface {
	// RouteForApproval opens an approval task and returns the approver id.
	RouteForApproval(ctx context.Context, request LeaveRequest) (int64, error)
	CloseOpenApproval(ctx context.Context, requestID int64) error
}
