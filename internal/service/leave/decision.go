package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// DecisionApplierImpl moves a Pending request into its decided state and
// debits the balance on approval, both under the request's row lock.
type DecisionApplierImpl struct {
	tx           database.Transactor
	leaveRepo    leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
}

func NewDecisionApplier(tx database.Transactor, leaveRepo leave.LeaveRequestRepository, employeeRepo employee.EmployeeRepository) *DecisionApplierImpl {
	return &DecisionApplierImpl{tx: tx, leaveRepo: leaveRepo, employeeRepo: employeeRepo}
}

// ApplyDecision implements leave.DecisionApplier.
func (d *DecisionApplierImpl) ApplyDecision(ctx context.Context, requestID int64, outcome leave.Outcome, comment *string) (decided leave.LeaveRequest, err error) {
	err = d.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := d.leaveRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestNotPending
		}

		switch outcome {
		case leave.OutcomeApproved:
			requester, err := d.employeeRepo.GetByIDForUpdate(ctx, request.EmployeeID)
			if err != nil {
				return err
			}
			remaining := requester.OutOfOfficeBalance.Sub(decimal.NewFromInt(request.DayCount()))
			if remaining.IsNegative() {
				slog.Info("Leave approval exceeds balance",
					"leave_request_id", request.ID,
					"employee_id", requester.ID,
					"balance", requester.OutOfOfficeBalance.String(),
					"day_count", request.DayCount(),
				)
				return leave.ErrInsufficientBalance
			}
			if err := d.employeeRepo.UpdateBalance(ctx, requester.ID, remaining); err != nil {
				return fmt.Errorf("failed to debit balance: %w", err)
			}
			request.Status = leave.LeaveRequestStatusApproved
		case leave.OutcomeRejected:
			request.Status = leave.LeaveRequestStatusRejected
			request.Comment = comment
		default:
			return leave.ErrInvalidOutcome
		}

		decided, err = d.leaveRepo.Update(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to apply decision: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return decided, nil
}
