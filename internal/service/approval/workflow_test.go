package approval_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/memory"
	serviceAccess "github.com/cmlabs-hris/hris-leave-go/internal/service/access"
	serviceApproval "github.com/cmlabs-hris/hris-leave-go/internal/service/approval"
	serviceEmployee "github.com/cmlabs-hris/hris-leave-go/internal/service/employee"
	serviceLeave "github.com/cmlabs-hris/hris-leave-go/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testToday = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type workflowEnv struct {
	store       *memory.Store
	ids         *fixtures.SeededDataIDs
	ledger      *serviceLeave.LedgerImpl
	coordinator *serviceApproval.CoordinatorImpl
}

func newWorkflowEnv(t *testing.T) workflowEnv {
	t.Helper()
	store := memory.NewStore()
	ids, err := fixtures.Seed(context.Background(), store, fixtures.Repositories{
		Employees: store.Employees(),
		Projects:  store.Projects(),
		Users:     store.Users(),
	}, "$2a$10$unused.hash.for.service.tests.only.xxxxxxxxxxxxxxxxxxx", testToday)
	require.NoError(t, err)

	policy := serviceAccess.MustNewPolicy()
	directory := serviceEmployee.NewDirectory(store.Employees(), store.Projects())
	applier := serviceLeave.NewDecisionApplier(store, store.LeaveRequests(), store.Employees())
	coordinator := serviceApproval.NewCoordinator(store, store.Approvals(), store.LeaveRequests(), store.Employees(), store.Projects(), store.Outbox(), applier, policy)
	ledger := serviceLeave.NewLedger(store, store.LeaveRequests(), store.Approvals(), store.Employees(), store.Outbox(), directory, coordinator, policy, clock.Fixed(testToday))

	return workflowEnv{store: store, ids: ids, ledger: ledger, coordinator: coordinator}
}

func (env workflowEnv) as(username string) context.Context {
	return env.ids.As(context.Background(), username)
}

// submit files a leave request of days calendar days starting on
// 2026-03-09 as username.
func (env workflowEnv) submit(t *testing.T, username string, days int) leave.LeaveRequest {
	t.Helper()
	start := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	created, err := env.ledger.Create(env.as(username), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Vacation",
		StartDate:     start.Format("2006-01-02"),
		EndDate:       start.AddDate(0, 0, days-1).Format("2006-01-02"),
	})
	require.NoError(t, err)
	return created
}

func (env workflowEnv) openApproval(t *testing.T, leaveRequestID int64) approval.ApprovalRequest {
	t.Helper()
	a, err := env.store.Approvals().GetOpenByLeaveRequestID(context.Background(), leaveRequestID)
	require.NoError(t, err)
	return a
}

func (env workflowEnv) balance(t *testing.T, username string) decimal.Decimal {
	t.Helper()
	e, err := env.store.Employees().GetByID(context.Background(), env.ids.EmployeeIDs[username])
	require.NoError(t, err)
	return e.OutOfOfficeBalance
}

func (env workflowEnv) deactivate(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	e, err := env.store.Employees().GetByID(ctx, env.ids.EmployeeIDs[username])
	require.NoError(t, err)
	e.Status = employee.EmploymentStatusInactive
	_, err = env.store.Employees().Update(ctx, e)
	require.NoError(t, err)
}

func TestCoordinator_OpenFor_RoutesToProjectManager(t *testing.T) {
	env := newWorkflowEnv(t)

	created := env.submit(t, fixtures.Eka, 5)
	require.NotNil(t, created.ApproverID)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Manager], *created.ApproverID)

	open := env.openApproval(t, created.ID)
	assert.Equal(t, approval.ApprovalStatusPending, open.Status)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Eka], open.RequesterID)
}

func TestCoordinator_OpenFor_FallsBackToPeoplePartner(t *testing.T) {
	env := newWorkflowEnv(t)
	env.deactivate(t, fixtures.Manager)

	created := env.submit(t, fixtures.Eka, 2)
	require.NotNil(t, created.ApproverID)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.HR], *created.ApproverID)
}

func TestCoordinator_OpenFor_SkipsManagerWithoutProjectManagerRole(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()
	p, err := env.store.Projects().GetByID(ctx, env.ids.ProjectIDs[fixtures.Platform])
	require.NoError(t, err)
	p.ProjectManagerID = env.ids.EmployeeIDs[fixtures.Admin]
	_, err = env.store.Projects().Update(ctx, p)
	require.NoError(t, err)

	created := env.submit(t, fixtures.Eka, 2)
	require.NotNil(t, created.ApproverID)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.HR], *created.ApproverID)
}

func TestCoordinator_OpenFor_FallsBackToAnyHRManager(t *testing.T) {
	env := newWorkflowEnv(t)

	created := env.submit(t, fixtures.Outsider, 2)
	require.NotNil(t, created.ApproverID)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.HR], *created.ApproverID)

	// an HR Manager's own request goes to the other HR Manager
	own := env.submit(t, fixtures.HR, 1)
	require.NotNil(t, own.ApproverID)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.HRBackup], *own.ApproverID)
}

func TestCoordinator_OpenFor_NoApproverLeavesRequestUnassigned(t *testing.T) {
	env := newWorkflowEnv(t)
	env.deactivate(t, fixtures.HR)
	env.deactivate(t, fixtures.HRBackup)

	created := env.submit(t, fixtures.Outsider, 2)
	assert.Nil(t, created.ApproverID)
	assert.Equal(t, leave.LeaveRequestStatusPending, created.Status)

	_, err := env.store.Approvals().GetOpenByLeaveRequestID(context.Background(), created.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	var types []outbox.EventType
	for _, e := range env.store.Events() {
		types = append(types, e.EventType)
	}
	assert.Contains(t, types, outbox.EventApprovalRequestUnassigned)

	unassigned, total, err := env.ledger.ListUnassigned(env.as(fixtures.Admin), leave.LeaveRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, created.ID, unassigned[0].ID)

	_, _, err = env.ledger.ListUnassigned(env.as(fixtures.HR), leave.LeaveRequestFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestCoordinator_AssignApprover(t *testing.T) {
	env := newWorkflowEnv(t)
	env.deactivate(t, fixtures.HR)
	env.deactivate(t, fixtures.HRBackup)
	created := env.submit(t, fixtures.Outsider, 2)

	_, err := env.coordinator.AssignApprover(env.as(fixtures.HR), approval.AssignApproverRequest{
		LeaveRequestID: created.ID,
		ApproverID:     env.ids.EmployeeIDs[fixtures.Manager],
	})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = env.coordinator.AssignApprover(env.as(fixtures.Admin), approval.AssignApproverRequest{
		LeaveRequestID: created.ID,
		ApproverID:     env.ids.EmployeeIDs[fixtures.Eka],
	})
	assert.ErrorIs(t, err, approval.ErrInvalidApprover)

	_, err = env.coordinator.AssignApprover(env.as(fixtures.Admin), approval.AssignApproverRequest{
		LeaveRequestID: created.ID,
		ApproverID:     env.ids.EmployeeIDs[fixtures.Outsider],
	})
	assert.ErrorIs(t, err, approval.ErrInvalidApprover)

	opened, err := env.coordinator.AssignApprover(env.as(fixtures.Admin), approval.AssignApproverRequest{
		LeaveRequestID: created.ID,
		ApproverID:     env.ids.EmployeeIDs[fixtures.Manager],
	})
	require.NoError(t, err)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Manager], opened.ApproverID)
	assert.True(t, opened.IsOpen())

	_, err = env.coordinator.AssignApprover(env.as(fixtures.Admin), approval.AssignApproverRequest{
		LeaveRequestID: created.ID,
		ApproverID:     env.ids.EmployeeIDs[fixtures.Admin],
	})
	assert.ErrorIs(t, err, approval.ErrApprovalAlreadyOpen)
}

func TestCoordinator_Approve_DeductsBalance(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 5)
	open := env.openApproval(t, created.ID)

	decided, err := env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	require.NoError(t, err)
	assert.Equal(t, approval.ApprovalStatusApproved, decided.Status)
	assert.NotNil(t, decided.DecidedAt)
	assert.Equal(t, leave.LeaveRequestStatusApproved, decided.LeaveStatus)

	assert.True(t, decimal.NewFromInt(5).Equal(env.balance(t, fixtures.Eka)))

	lr, err := env.store.LeaveRequests().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusApproved, lr.Status)
	assert.Nil(t, lr.ApproverID)
}

func TestCoordinator_Approve_InsufficientBalanceChangesNothing(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Budi, 5)
	open := env.openApproval(t, created.ID)
	eventsBefore := len(env.store.Events())

	_, err := env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	assert.True(t, decimal.NewFromInt(3).Equal(env.balance(t, fixtures.Budi)))
	still := env.openApproval(t, created.ID)
	assert.Equal(t, open.ID, still.ID)
	assert.Equal(t, approval.ApprovalStatusPending, still.Status)

	lr, err := env.store.LeaveRequests().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusPending, lr.Status)
	assert.Len(t, env.store.Events(), eventsBefore)
}

func TestCoordinator_Reject_StoresComment(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 2)
	open := env.openApproval(t, created.ID)

	decided, err := env.coordinator.Reject(env.as(fixtures.Manager), approval.RejectRequest{ID: open.ID, Comment: "  Release week  "})
	require.NoError(t, err)
	assert.Equal(t, approval.ApprovalStatusRejected, decided.Status)
	require.NotNil(t, decided.Comment)
	assert.Equal(t, "Release week", *decided.Comment)

	lr, err := env.store.LeaveRequests().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusRejected, lr.Status)
	require.NotNil(t, lr.Comment)
	assert.Equal(t, "Release week", *lr.Comment)
	assert.True(t, decimal.NewFromInt(10).Equal(env.balance(t, fixtures.Eka)))
}

func TestCoordinator_Reject_RequiresComment(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 2)
	open := env.openApproval(t, created.ID)

	_, err := env.coordinator.Reject(env.as(fixtures.Manager), approval.RejectRequest{ID: open.ID, Comment: "   "})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
	assert.True(t, env.openApproval(t, created.ID).IsOpen())
}

func TestCoordinator_Reject_EmptyCommentIsCheckedFirst(t *testing.T) {
	env := newWorkflowEnv(t)
	pending := env.openApproval(t, env.submit(t, fixtures.Eka, 1).ID)
	decided := env.openApproval(t, env.submit(t, fixtures.Budi, 1).ID)
	_, err := env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: decided.ID})
	require.NoError(t, err)

	cases := []struct {
		name  string
		actor string
		id    int64
	}{
		{"not the assigned approver", fixtures.HR, pending.ID},
		{"own request", fixtures.Eka, pending.ID},
		{"already decided", fixtures.Manager, decided.ID},
		{"unknown approval", fixtures.Manager, 9999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.coordinator.Reject(env.as(tc.actor), approval.RejectRequest{ID: tc.id, Comment: ""})
			assert.ErrorIs(t, err, approval.ErrRejectCommentRequired)
			assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
		})
	}
	assert.True(t, env.openApproval(t, pending.LeaveRequestID).IsOpen())
}

func TestCoordinator_Decide_OnlyAssignedApproverOrAdministrator(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 1)
	open := env.openApproval(t, created.ID)

	for _, actor := range []string{fixtures.HR, fixtures.Budi, fixtures.Outsider} {
		_, err := env.coordinator.Approve(env.as(actor), approval.ApproveRequest{ID: open.ID})
		assert.ErrorIs(t, err, access.ErrForbidden, actor)
	}

	_, err := env.coordinator.Approve(env.as(fixtures.Eka), approval.ApproveRequest{ID: open.ID})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	decided, err := env.coordinator.Approve(env.as(fixtures.Admin), approval.ApproveRequest{ID: open.ID})
	require.NoError(t, err)
	assert.Equal(t, approval.ApprovalStatusApproved, decided.Status)
}

func TestCoordinator_Decide_UnknownID(t *testing.T) {
	env := newWorkflowEnv(t)

	_, err := env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: 9999})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = env.coordinator.Approve(env.as(fixtures.Admin), approval.ApproveRequest{ID: 9999})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestCoordinator_Decide_SecondDecisionFails(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 1)
	open := env.openApproval(t, created.ID)

	_, err := env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	require.NoError(t, err)

	_, err = env.coordinator.Reject(env.as(fixtures.Manager), approval.RejectRequest{ID: open.ID, Comment: "too late"})
	assert.ErrorIs(t, err, approval.ErrApprovalNotPending)
}

func TestCoordinator_Decide_ConcurrentApproveAndRejectHaveOneWinner(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 2)
	open := env.openApproval(t, created.ID)

	var wins, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		reject := i%2 == 1
		g.Go(func() error {
			var err error
			if reject {
				_, err = env.coordinator.Reject(env.as(fixtures.Manager), approval.RejectRequest{ID: open.ID, Comment: "no"})
			} else {
				_, err = env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: open.ID})
			}
			switch {
			case err == nil:
				wins.Add(1)
			case apperror.Is(err, apperror.KindInvalidTransition):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(7), conflicts.Load())

	lr, err := env.store.LeaveRequests().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, lr.Status.IsTerminal())
	if lr.Status == leave.LeaveRequestStatusApproved {
		assert.True(t, decimal.NewFromInt(8).Equal(env.balance(t, fixtures.Eka)))
	} else {
		assert.True(t, decimal.NewFromInt(10).Equal(env.balance(t, fixtures.Eka)))
	}
}

func TestCoordinator_List_Visibility(t *testing.T) {
	env := newWorkflowEnv(t)
	env.submit(t, fixtures.Eka, 1)
	env.submit(t, fixtures.Outsider, 1)

	// employees hold no approval view and get an empty page
	items, total, err := env.coordinator.List(env.as(fixtures.Eka), approval.ApprovalRequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	items, total, err = env.coordinator.List(env.as(fixtures.Manager), approval.ApprovalRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Eka], items[0].RequesterID)

	items, total, err = env.coordinator.List(env.as(fixtures.HR), approval.ApprovalRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Outsider], items[0].RequesterID)

	_, total, err = env.coordinator.List(env.as(fixtures.Admin), approval.ApprovalRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestCoordinator_Get_MasksForeignApprovals(t *testing.T) {
	env := newWorkflowEnv(t)
	created := env.submit(t, fixtures.Eka, 1)
	open := env.openApproval(t, created.ID)

	_, err := env.coordinator.Get(env.as(fixtures.HR), open.ID)
	assert.ErrorIs(t, err, approval.ErrApprovalRequestNotFound)

	got, err := env.coordinator.Get(env.as(fixtures.Manager), open.ID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)
}
