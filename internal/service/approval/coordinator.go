package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type CoordinatorImpl struct {
	tx           database.Transactor
	approvalRepo approval.ApprovalRequestRepository
	leaveRepo    leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	projectRepo  project.ProjectRepository
	outboxRepo   outbox.Repository
	applier      leave.DecisionApplier
	policy       access.Policy
}

func NewCoordinator(
	tx database.Transactor,
	approvalRepo approval.ApprovalRequestRepository,
	leaveRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	projectRepo project.ProjectRepository,
	outboxRepo outbox.Repository,
	applier leave.DecisionApplier,
	policy access.Policy,
) *CoordinatorImpl {
	return &CoordinatorImpl{
		tx:           tx,
		approvalRepo: approvalRepo,
		leaveRepo:    leaveRepo,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		outboxRepo:   outboxRepo,
		applier:      applier,
		policy:       policy,
	}
}

// OpenFor implements approval.Coordinator. It runs inside the caller's
// transaction when there is one.
func (c *CoordinatorImpl) OpenFor(ctx context.Context, request leave.LeaveRequest) (opened approval.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approval.OpenFor", attribute.Int64("leave_request.id", request.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.OpenFor", err) }()

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		approverID, err := c.resolveApprover(ctx, request.EmployeeID)
		if err != nil {
			return err
		}
		opened, err = c.open(ctx, request, approverID, request.EmployeeID)
		return err
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	slog.Info("Approval request opened", "approval_request_id", opened.ID, "leave_request_id", request.ID, "approver_id", opened.ApproverID)
	return opened, nil
}

func (c *CoordinatorImpl) open(ctx context.Context, request leave.LeaveRequest, approverID, actorID int64) (approval.ApprovalRequest, error) {
	opened, err := c.approvalRepo.Create(ctx, approval.ApprovalRequest{
		LeaveRequestID: request.ID,
		ApproverID:     approverID,
		Status:         approval.ApprovalStatusPending,
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	if err := c.record(ctx, outbox.EventApprovalRequestOpened, opened, actorID); err != nil {
		return approval.ApprovalRequest{}, err
	}
	metrics.WorkflowTransitions.WithLabelValues("approval_request", string(approval.ApprovalStatusPending)).Inc()
	return opened, nil
}

// Approve implements approval.Coordinator.
func (c *CoordinatorImpl) Approve(ctx context.Context, req approval.ApproveRequest) (decided approval.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approval.Approve", attribute.Int64("approval_request.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.Approve", err) }()

	if err := req.Validate(); err != nil {
		return approval.ApprovalRequest{}, apperror.InvalidInput(err)
	}
	decided, err = c.decide(ctx, req.ID, approval.ApprovalStatusApproved, req.Comment)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	return decided, nil
}

// Reject implements approval.Coordinator. The comment is also stored on
// the leave request.
func (c *CoordinatorImpl) Reject(ctx context.Context, req approval.RejectRequest) (decided approval.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approval.Reject", attribute.Int64("approval_request.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.Reject", err) }()

	if err := req.Validate(); err != nil {
		return approval.ApprovalRequest{}, apperror.InvalidInput(err)
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return approval.ApprovalRequest{}, approval.ErrRejectCommentRequired
	}
	decided, err = c.decide(ctx, req.ID, approval.ApprovalStatusRejected, &comment)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	return decided, nil
}

// decide locks the leave request before its approval, the same order
// Cancel uses, so racing decisions and cancellations serialize and the
// loser sees a closed request.
func (c *CoordinatorImpl) decide(ctx context.Context, id int64, status approval.ApprovalStatus, comment *string) (approval.ApprovalRequest, error) {
	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	outcome, ok := status.Outcome()
	if !ok {
		return approval.ApprovalRequest{}, leave.ErrInvalidOutcome
	}

	var decided approval.ApprovalRequest
	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := c.approvalRepo.GetByID(ctx, id)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) && !c.policy.Allows(p.Role, access.ActionApprovalDecide, access.ScopeAny) {
				return access.ErrForbidden
			}
			return err
		}
		if _, err := c.leaveRepo.GetByIDForUpdate(ctx, current.LeaveRequestID); err != nil {
			return err
		}
		current, err = c.approvalRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := access.Authorize(c.policy, p, access.ActionApprovalDecide, access.Target{
			OwnerID:    current.RequesterID,
			ApproverID: current.ApproverID,
		}); err != nil {
			return err
		}
		if current.RequesterID == p.EmployeeID {
			return approval.ErrSelfDecision
		}
		if !current.IsOpen() {
			return approval.ErrApprovalNotPending
		}
		if _, err := c.approvalRepo.Decide(ctx, id, status, comment); err != nil {
			return err
		}

		var leaveComment *string
		if outcome == leave.OutcomeRejected {
			leaveComment = comment
		}
		if _, err := c.applier.ApplyDecision(ctx, current.LeaveRequestID, outcome, leaveComment); err != nil {
			return err
		}

		decided, err = c.approvalRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		eventType := outbox.EventApprovalRequestApproved
		if status == approval.ApprovalStatusRejected {
			eventType = outbox.EventApprovalRequestRejected
		}
		return c.record(ctx, eventType, decided, p.EmployeeID)
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	metrics.WorkflowTransitions.WithLabelValues("approval_request", string(status)).Inc()
	metrics.WorkflowTransitions.WithLabelValues("leave_request", string(outcome)).Inc()
	slog.Info("Approval request decided",
		"approval_request_id", id,
		"leave_request_id", decided.LeaveRequestID,
		"status", string(status),
		"actor_id", p.EmployeeID,
	)
	return decided, nil
}

// Get implements approval.Coordinator. Approvals outside the caller's view
// are reported as not found.
func (c *CoordinatorImpl) Get(ctx context.Context, id int64) (request approval.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approval.Get", attribute.Int64("approval_request.id", id))
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.Get", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	request, err = c.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	if err := access.Authorize(c.policy, p, access.ActionApprovalView, access.Target{
		OwnerID:    request.RequesterID,
		ApproverID: request.ApproverID,
	}); err != nil {
		return approval.ApprovalRequest{}, approval.ErrApprovalRequestNotFound
	}
	return request, nil
}

// List implements approval.Coordinator. Roles without an approval view get
// an empty page rather than an error.
func (c *CoordinatorImpl) List(ctx context.Context, filter approval.ApprovalRequestFilter) (requests []approval.ApprovalRequest, total int64, err error) {
	ctx, span := tracing.Start(ctx, "approval.List")
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.List", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, apperror.InvalidInput(err)
	}

	filter.Visibility = access.VisibilityFor(c.policy, p, access.ActionApprovalView)
	if filter.Visibility.Empty() {
		return []approval.ApprovalRequest{}, 0, nil
	}
	return c.approvalRepo.List(ctx, filter)
}

// AssignApprover implements approval.Coordinator. It staffs a Pending
// request from the unassigned queue.
func (c *CoordinatorImpl) AssignApprover(ctx context.Context, req approval.AssignApproverRequest) (opened approval.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approval.AssignApprover",
		attribute.Int64("leave_request.id", req.LeaveRequestID), attribute.Int64("approver.id", req.ApproverID))
	defer func() { tracing.End(span, err); metrics.ObserveError("approval.AssignApprover", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	if err := access.Authorize(c.policy, p, access.ActionApprovalAssign, access.Target{}); err != nil {
		return approval.ApprovalRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return approval.ApprovalRequest{}, apperror.InvalidInput(err)
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := c.leaveRepo.GetByIDForUpdate(ctx, req.LeaveRequestID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestNotPending
		}
		if request.ApproverID != nil {
			return approval.ErrApprovalAlreadyOpen
		}

		ok, err := c.eligible(ctx, req.ApproverID, request.EmployeeID, access.CanApprove)
		if err != nil {
			return err
		}
		if !ok {
			return approval.ErrInvalidApprover
		}

		opened, err = c.open(ctx, request, req.ApproverID, p.EmployeeID)
		return err
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	slog.Info("Approver assigned", "approval_request_id", opened.ID, "leave_request_id", req.LeaveRequestID, "approver_id", req.ApproverID, "actor_id", p.EmployeeID)
	return opened, nil
}

func (c *CoordinatorImpl) record(ctx context.Context, eventType outbox.EventType, a approval.ApprovalRequest, actorID int64) error {
	event, err := outbox.NewEvent(outbox.AggregateApprovalRequest, a.ID, eventType, outbox.ApprovalRequestPayload{
		ApprovalRequestID: a.ID,
		LeaveRequestID:    a.LeaveRequestID,
		ApproverID:        a.ApproverID,
		RequesterID:       a.RequesterID,
		Status:            string(a.Status),
		ActorID:           actorID,
		Comment:           a.Comment,
	}, a.RequesterID, a.ApproverID)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return c.outboxRepo.Create(ctx, event)
}
