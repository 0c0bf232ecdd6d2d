package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// resolveApprover picks who decides a request filed by requesterID:
//  1. the manager of the lowest-id active project the requester is staffed on
//  2. the requester's people partner when they are an active HR Manager
//  3. the lowest-id active HR Manager
//
// The requester is never their own approver.
func (c *CoordinatorImpl) resolveApprover(ctx context.Context, requesterID int64) (approverID int64, err error) {
	ctx, span := tracing.Start(ctx, "approval.resolveApprover", attribute.Int64("employee.id", requesterID))
	defer func() { tracing.End(span, err) }()

	requester, err := c.employeeRepo.GetByID(ctx, requesterID)
	if err != nil {
		return 0, err
	}

	managers, err := c.projectRepo.ManagersFor(ctx, requesterID)
	if err != nil {
		return 0, fmt.Errorf("failed to list project managers: %w", err)
	}
	for _, managerID := range managers {
		ok, err := c.eligible(ctx, managerID, requesterID, isProjectManager)
		if err != nil {
			return 0, err
		}
		if ok {
			return managerID, nil
		}
	}

	if requester.PeoplePartnerID != nil && *requester.PeoplePartnerID != requesterID {
		partner, err := c.employeeRepo.GetByID(ctx, *requester.PeoplePartnerID)
		switch {
		case err == nil:
			if partner.IsActive() && partner.Role == access.RoleHRManager {
				return partner.ID, nil
			}
		case !apperror.Is(err, apperror.KindNotFound):
			return 0, err
		}
	}

	hrManagers, err := c.employeeRepo.ListActiveByRole(ctx, access.RoleHRManager)
	if err != nil {
		return 0, fmt.Errorf("failed to list HR managers: %w", err)
	}
	for _, hr := range hrManagers {
		if hr.ID != requesterID {
			return hr.ID, nil
		}
	}

	return 0, approval.ErrNoApproverAvailable
}

// isProjectManager limits project routing to managers that still hold the
// role; an HR Manager or Administrator set as a project's manager is reached
// through the HR fallback instead.
func isProjectManager(role access.Role) bool {
	return role == access.RoleProjectManager
}

func (c *CoordinatorImpl) eligible(ctx context.Context, approverID, requesterID int64, allowed func(access.Role) bool) (bool, error) {
	if approverID == requesterID {
		return false, nil
	}
	approver, err := c.employeeRepo.GetByID(ctx, approverID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return approver.IsActive() && allowed(approver.Role), nil
}

// RouteForApproval implements leave.ApprovalRouter.
func (c *CoordinatorImpl) RouteForApproval(ctx context.Context, request leave.LeaveRequest) (int64, error) {
	opened, err := c.OpenFor(ctx, request)
	if err != nil {
		return 0, err
	}
	return opened.ApproverID, nil
}

// CloseOpenApproval implements leave.ApprovalRouter.
func (c *CoordinatorImpl) CloseOpenApproval(ctx context.Context, requestID int64) error {
	if err := c.approvalRepo.CloseOpenForLeaveRequest(ctx, requestID); err != nil {
		return fmt.Errorf("failed to close open approval: %w", err)
	}
	slog.Debug("Open approval closed", "leave_request_id", requestID)
	return nil
}

var (
	_ leave.ApprovalRouter = (*CoordinatorImpl)(nil)
	_ approval.Coordinator = (*CoordinatorImpl)(nil)
)
