package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
)

type LedgerImpl struct {
	tx           database.Transactor
	leaveRepo    leave.LeaveRequestRepository
	approvalRepo approval.ApprovalRequestRepository
	employeeRepo employee.EmployeeRepository
	outboxRepo   outbox.Repository
	directory    employee.Directory
	router       leave.ApprovalRouter
	policy       access.Policy
	clock        clock.Clock
}

func NewLedger(
	tx database.Transactor,
	leaveRepo leave.LeaveRequestRepository,
	approvalRepo approval.ApprovalRequestRepository,
	employeeRepo employee.EmployeeRepository,
	outboxRepo outbox.Repository,
	directory employee.Directory,
	router leave.ApprovalRouter,
	policy access.Policy,
	clk clock.Clock,
) *LedgerImpl {
	return &LedgerImpl{
		tx:           tx,
		leaveRepo:    leaveRepo,
		approvalRepo: approvalRepo,
		employeeRepo: employeeRepo,
		outboxRepo:   outboxRepo,
		directory:    directory,
		router:       router,
		policy:       policy,
		clock:        clk,
	}
}

// Create implements leave.LeaveRequestLedger. A request nobody can be
// routed to is still stored and lands in the unassigned queue.
func (l *LedgerImpl) Create(ctx context.Context, req leave.CreateLeaveRequestRequest) (created leave.LeaveRequest, err error) {
	ctx, span := tracing.Start(ctx, "leave.Create")
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.Create", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, apperror.InvalidInput(err)
	}

	requesterID := p.EmployeeID
	if req.EmployeeID != nil {
		requesterID = *req.EmployeeID
	}
	if err := access.Authorize(l.policy, p, access.ActionLeaveCreate, access.Target{OwnerID: requesterID}); err != nil {
		return leave.LeaveRequest{}, err
	}

	startDate := clock.Today(l.clock)
	if req.StartDate != "" {
		startDate, _ = validator.IsValidDate(req.StartDate)
	}
	endDate, _ := validator.IsValidDate(req.EndDate)
	if endDate.Before(startDate) {
		return leave.LeaveRequest{}, leave.ErrInvalidDateRange
	}

	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		requester, err := l.employeeRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsActive() {
			return leave.ErrRequesterInactive
		}

		created, err = l.leaveRepo.Create(ctx, leave.LeaveRequest{
			EmployeeID:    requesterID,
			AbsenceReason: req.AbsenceReason,
			StartDate:     startDate,
			EndDate:       endDate,
			Comment:       req.Comment,
			Status:        leave.LeaveRequestStatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		if err := l.record(ctx, outbox.EventLeaveRequestCreated, created, p.EmployeeID, created.EmployeeID); err != nil {
			return err
		}

		approverID, err := l.router.RouteForApproval(ctx, created)
		switch {
		case apperror.Is(err, apperror.KindNoApproverAvailable):
			slog.Warn("No approver available, leave request left unassigned", "leave_request_id", created.ID, "employee_id", requesterID)
			event, err := outbox.NewEvent(outbox.AggregateLeaveRequest, created.ID, outbox.EventApprovalRequestUnassigned, outbox.ApprovalRequestPayload{
				LeaveRequestID: created.ID,
				RequesterID:    created.EmployeeID,
				Status:         string(created.Status),
				ActorID:        p.EmployeeID,
			}, created.EmployeeID)
			if err != nil {
				return err
			}
			return l.outboxRepo.Create(ctx, event)
		case err != nil:
			return err
		}
		created.ApproverID = &approverID
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	metrics.LeaveRequestsCreated.Inc()
	metrics.WorkflowTransitions.WithLabelValues("leave_request", string(leave.LeaveRequestStatusPending)).Inc()
	slog.Info("Leave request created", "leave_request_id", created.ID, "employee_id", created.EmployeeID, "actor_id", p.EmployeeID)
	return created, nil
}

// Cancel implements leave.LeaveRequestLedger.
func (l *LedgerImpl) Cancel(ctx context.Context, requestID int64) (cancelled leave.LeaveRequest, err error) {
	ctx, span := tracing.Start(ctx, "leave.Cancel", attribute.Int64("leave_request.id", requestID))
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.Cancel", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := l.leaveRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		target, err := l.authorizeView(ctx, p, request)
		if err != nil {
			return err
		}
		if err := access.Authorize(l.policy, p, access.ActionLeaveCancel, target); err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestNotPending
		}

		approverID := request.ApproverID
		if err := l.router.CloseOpenApproval(ctx, request.ID); err != nil {
			return err
		}
		request.Status = leave.LeaveRequestStatusCancelled
		cancelled, err = l.leaveRepo.Update(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to cancel leave request: %w", err)
		}

		recipients := []int64{cancelled.EmployeeID}
		if approverID != nil {
			recipients = append(recipients, *approverID)
		}
		return l.record(ctx, outbox.EventLeaveRequestCancelled, cancelled, p.EmployeeID, recipients...)
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	metrics.WorkflowTransitions.WithLabelValues("leave_request", string(leave.LeaveRequestStatusCancelled)).Inc()
	slog.Info("Leave request cancelled", "leave_request_id", requestID, "actor_id", p.EmployeeID)
	return cancelled, nil
}

// Edit implements leave.LeaveRequestLedger.
func (l *LedgerImpl) Edit(ctx context.Context, req leave.EditLeaveRequestRequest) (edited leave.LeaveRequest, err error) {
	ctx, span := tracing.Start(ctx, "leave.Edit", attribute.Int64("leave_request.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.Edit", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, apperror.InvalidInput(err)
	}

	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := l.leaveRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		target, err := l.authorizeView(ctx, p, request)
		if err != nil {
			return err
		}
		if err := access.Authorize(l.policy, p, access.ActionLeaveEdit, target); err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestNotPending
		}

		if req.AbsenceReason != nil {
			request.AbsenceReason = *req.AbsenceReason
		}
		if req.StartDate != nil {
			request.StartDate, _ = validator.IsValidDate(*req.StartDate)
		}
		if req.EndDate != nil {
			request.EndDate, _ = validator.IsValidDate(*req.EndDate)
		}
		if req.Comment != nil {
			request.Comment = req.Comment
		}
		if request.EndDate.Before(request.StartDate) {
			return leave.ErrInvalidDateRange
		}

		edited, err = l.leaveRepo.Update(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		recipients := []int64{edited.EmployeeID}
		if edited.ApproverID != nil {
			recipients = append(recipients, *edited.ApproverID)
		}
		return l.record(ctx, outbox.EventLeaveRequestEdited, edited, p.EmployeeID, recipients...)
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request edited", "leave_request_id", req.ID, "actor_id", p.EmployeeID)
	return edited, nil
}

// Get implements leave.LeaveRequestLedger. Requests outside the caller's
// view are reported as not found.
func (l *LedgerImpl) Get(ctx context.Context, requestID int64) (request leave.LeaveRequest, err error) {
	ctx, span := tracing.Start(ctx, "leave.Get", attribute.Int64("leave_request.id", requestID))
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.Get", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	request, err = l.leaveRepo.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if _, err := l.authorizeView(ctx, p, request); err != nil {
		return leave.LeaveRequest{}, err
	}
	return request, nil
}

// List implements leave.LeaveRequestLedger.
func (l *LedgerImpl) List(ctx context.Context, filter leave.LeaveRequestFilter) (requests []leave.LeaveRequest, total int64, err error) {
	ctx, span := tracing.Start(ctx, "leave.List")
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.List", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, apperror.InvalidInput(err)
	}

	filter.Visibility = access.VisibilityFor(l.policy, p, access.ActionLeaveView)
	if filter.Visibility.Empty() {
		return []leave.LeaveRequest{}, 0, nil
	}
	return l.leaveRepo.List(ctx, filter)
}

// ListUnassigned implements leave.LeaveRequestLedger.
func (l *LedgerImpl) ListUnassigned(ctx context.Context, filter leave.LeaveRequestFilter) (requests []leave.LeaveRequest, total int64, err error) {
	ctx, span := tracing.Start(ctx, "leave.ListUnassigned")
	defer func() { tracing.End(span, err); metrics.ObserveError("leave.ListUnassigned", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := access.Authorize(l.policy, p, access.ActionApprovalAssign, access.Target{}); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, apperror.InvalidInput(err)
	}
	return l.leaveRepo.ListUnassigned(ctx, filter)
}

// authorizeView builds the actor's target for request and masks a view
// deny as not found.
func (l *LedgerImpl) authorizeView(ctx context.Context, p access.Principal, request leave.LeaveRequest) (access.Target, error) {
	target := access.Target{OwnerID: request.EmployeeID}
	if request.EmployeeID != p.EmployeeID {
		inTeam, err := l.directory.IsTeamMember(ctx, p.EmployeeID, request.EmployeeID)
		if err != nil {
			return access.Target{}, err
		}
		target.InTeam = inTeam

		_, assigned, err := l.approvalRepo.List(ctx, approval.ApprovalRequestFilter{
			LeaveRequestID: &request.ID,
			Page:           1,
			Limit:          1,
			Visibility:     access.Visibility{ActorID: p.EmployeeID, Assigned: true},
		})
		if err != nil {
			return access.Target{}, fmt.Errorf("failed to check approval assignment: %w", err)
		}
		if assigned > 0 {
			target.ApproverID = p.EmployeeID
		}
	}

	if err := access.Authorize(l.policy, p, access.ActionLeaveView, target); err != nil {
		return access.Target{}, leave.ErrLeaveRequestNotFound
	}
	return target, nil
}

func (l *LedgerImpl) record(ctx context.Context, eventType outbox.EventType, request leave.LeaveRequest, actorID int64, recipients ...int64) error {
	event, err := outbox.NewEvent(outbox.AggregateLeaveRequest, request.ID, eventType, outbox.LeaveRequestPayload{
		LeaveRequestID: request.ID,
		EmployeeID:     request.EmployeeID,
		Status:         string(request.Status),
		StartDate:      request.StartDate.Format(validator.DateLayout),
		EndDate:        request.EndDate.Format(validator.DateLayout),
		ActorID:        actorID,
		ApproverID:     request.ApproverID,
		Comment:        request.Comment,
	}, recipients...)
	if err != nil {
		return err
	}
	return l.outboxRepo.Create(ctx, event)
}
