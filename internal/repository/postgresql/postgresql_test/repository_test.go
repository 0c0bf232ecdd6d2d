package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	serviceAccess "github.com/cmlabs-hris/hris-leave-go/internal/service/access"
	serviceApproval "github.com/cmlabs-hris/hris-leave-go/internal/service/approval"
	serviceEmployee "github.com/cmlabs-hris/hris-leave-go/internal/service/employee"
	serviceLeave "github.com/cmlabs-hris/hris-leave-go/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func testHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserRepository_Constraints(t *testing.T) {
	db := newTestDB(t)
	ids, r := seed(t, db, testHash(t))
	ctx := context.Background()

	got, err := r.Users.GetByUsername(ctx, fixtures.Eka)
	require.NoError(t, err)
	assert.Equal(t, ids.EmployeeIDs[fixtures.Eka], got.EmployeeID)

	_, err = r.Users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = r.Users.Create(ctx, user.User{
		EmployeeID:   ids.EmployeeIDs[fixtures.Budi],
		Username:     fixtures.Eka,
		PasswordHash: testHash(t),
	})
	assert.ErrorIs(t, err, user.ErrUsernameExists)

	_, err = r.Users.Create(ctx, user.User{
		EmployeeID:   ids.EmployeeIDs[fixtures.Eka],
		Username:     "eka.second",
		PasswordHash: testHash(t),
	})
	assert.ErrorIs(t, err, user.ErrEmployeeHasUser)

	usernameTaken, employeeTaken, err := r.Users.ExistsByUsernameOrEmployee(ctx, fixtures.Budi, 0)
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, employeeTaken)
}

func TestEmployeeRepository_Balance(t *testing.T) {
	db := newTestDB(t)
	ids, r := seed(t, db, testHash(t))
	ctx := context.Background()
	budi := ids.EmployeeIDs[fixtures.Budi]

	require.NoError(t, r.Employees.UpdateBalance(ctx, budi, decimal.RequireFromString("4.5")))
	got, err := r.Employees.GetByID(ctx, budi)
	require.NoError(t, err)
	assert.Equal(t, "4.5", got.OutOfOfficeBalance.String())

	err = r.Employees.UpdateBalance(ctx, budi, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, employee.ErrNegativeBalance)

	err = r.Employees.UpdateBalance(ctx, 999999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	// Update never touches the balance
	got.Position = "Staff Engineer"
	got.OutOfOfficeBalance = decimal.NewFromInt(99)
	updated, err := r.Employees.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Position)
	reloaded, err := r.Employees.GetByID(ctx, budi)
	require.NoError(t, err)
	assert.Equal(t, "4.5", reloaded.OutOfOfficeBalance.String())

	hrManagers, err := r.Employees.ListActiveByRole(ctx, access.RoleHRManager)
	require.NoError(t, err)
	require.Len(t, hrManagers, 2)
	assert.Less(t, hrManagers[0].ID, hrManagers[1].ID)
}

func TestProjectRepository_Membership(t *testing.T) {
	db := newTestDB(t)
	ids, r := seed(t, db, testHash(t))
	ctx := context.Background()
	platform := ids.ProjectIDs[fixtures.Platform]
	pm := ids.EmployeeIDs[fixtures.Manager]

	inTeam, err := r.Projects.IsTeamMember(ctx, pm, ids.EmployeeIDs[fixtures.Eka])
	require.NoError(t, err)
	assert.True(t, inTeam)

	managers, err := r.Projects.ManagersFor(ctx, ids.EmployeeIDs[fixtures.Budi])
	require.NoError(t, err)
	assert.Equal(t, []int64{pm}, managers)

	_, err = r.Projects.AddMember(ctx, platform, ids.EmployeeIDs[fixtures.Eka])
	assert.ErrorIs(t, err, project.ErrMemberAlreadyAssigned)

	err = r.Projects.RemoveMember(ctx, platform, ids.EmployeeIDs[fixtures.Outsider])
	assert.ErrorIs(t, err, project.ErrMemberNotAssigned)

	p, err := r.Projects.GetByID(ctx, platform)
	require.NoError(t, err)
	p.Status = project.ProjectStatusInactive
	_, err = r.Projects.Update(ctx, p)
	require.NoError(t, err)

	inTeam, err = r.Projects.IsTeamMember(ctx, pm, ids.EmployeeIDs[fixtures.Eka])
	require.NoError(t, err)
	assert.False(t, inTeam, "inactive projects form no team")
}

type workflow struct {
	ids         *fixtures.SeededDataIDs
	repos       fixtures.Repositories
	leaves      leave.LeaveRequestRepository
	approvals   approval.ApprovalRequestRepository
	outbox      outbox.Repository
	ledger      *serviceLeave.LedgerImpl
	coordinator *serviceApproval.CoordinatorImpl
}

func newWorkflow(t *testing.T) workflow {
	t.Helper()
	db := newTestDB(t)
	ids, r := seed(t, db, testHash(t))

	tx := postgresql.NewTransactor(db)
	leaves := postgresql.NewLeaveRequestRepository(db)
	approvals := postgresql.NewApprovalRequestRepository(db)
	events := postgresql.NewOutboxRepository(db)
	policy := serviceAccess.MustNewPolicy()
	directory := serviceEmployee.NewDirectory(r.Employees, r.Projects)
	applier := serviceLeave.NewDecisionApplier(tx, leaves, r.Employees)
	coordinator := serviceApproval.NewCoordinator(tx, approvals, leaves, r.Employees, r.Projects, events, applier, policy)
	ledger := serviceLeave.NewLedger(tx, leaves, approvals, r.Employees, events, directory, coordinator, policy, clock.New())

	return workflow{
		ids:         ids,
		repos:       r,
		leaves:      leaves,
		approvals:   approvals,
		outbox:      events,
		ledger:      ledger,
		coordinator: coordinator,
	}
}

func (w workflow) submit(t *testing.T, username string, days int) leave.LeaveRequest {
	t.Helper()
	start := time.Now().UTC().AddDate(0, 1, 0)
	created, err := w.ledger.Create(w.ids.As(context.Background(), username), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Annual leave",
		StartDate:     start.Format("2006-01-02"),
		EndDate:       start.AddDate(0, 0, days-1).Format("2006-01-02"),
	})
	require.NoError(t, err)
	return created
}

func TestWorkflow_ApproveDebitsBalanceAndWritesOutbox(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	created := w.submit(t, fixtures.Eka, 4)
	require.NotNil(t, created.ApproverID)

	open, err := w.approvals.GetOpenByLeaveRequestID(ctx, created.ID)
	require.NoError(t, err)

	_, err = w.coordinator.Approve(w.ids.As(ctx, fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	require.NoError(t, err)

	eka, err := w.repos.Employees.GetByID(ctx, w.ids.EmployeeIDs[fixtures.Eka])
	require.NoError(t, err)
	assert.Equal(t, "6", eka.OutOfOfficeBalance.String())

	lr, err := w.leaves.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusApproved, lr.Status)
	assert.Nil(t, lr.ApproverID)

	pending, err := w.outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	var types []outbox.EventType
	for _, e := range pending {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []outbox.EventType{
		outbox.EventLeaveRequestCreated,
		outbox.EventApprovalRequestOpened,
		outbox.EventApprovalRequestApproved,
	}, types)
}

func TestWorkflow_InsufficientBalanceRollsBack(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	created := w.submit(t, fixtures.Budi, 5)

	open, err := w.approvals.GetOpenByLeaveRequestID(ctx, created.ID)
	require.NoError(t, err)
	_, err = w.coordinator.Approve(w.ids.As(ctx, fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	assert.Equal(t, apperror.KindInsufficientBalance, apperror.KindOf(err))

	still, err := w.approvals.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.ApprovalStatusPending, still.Status)
	assert.Nil(t, still.DecidedAt)

	budi, err := w.repos.Employees.GetByID(ctx, w.ids.EmployeeIDs[fixtures.Budi])
	require.NoError(t, err)
	assert.Equal(t, "3", budi.OutOfOfficeBalance.String())
}

func TestWorkflow_ConcurrentDecisionsHaveOneWinner(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	created := w.submit(t, fixtures.Eka, 1)
	open, err := w.approvals.GetOpenByLeaveRequestID(ctx, created.ID)
	require.NoError(t, err)

	const racers = 6
	results := make([]error, racers)
	var g errgroup.Group
	for i := range racers {
		g.Go(func() error {
			actor := w.ids.As(ctx, fixtures.Manager)
			if i%2 == 0 {
				_, results[i] = w.coordinator.Approve(actor, approval.ApproveRequest{ID: open.ID})
			} else {
				_, results[i] = w.coordinator.Reject(actor, approval.RejectRequest{ID: open.ID, Comment: "Sprint deadline"})
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(err), err)
	}
	assert.Equal(t, 1, winners)

	decided, err := w.approvals.GetByID(ctx, open.ID)
	require.NoError(t, err)
	lr, err := w.leaves.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(decided.Status), string(lr.Status))

	eka, err := w.repos.Employees.GetByID(ctx, w.ids.EmployeeIDs[fixtures.Eka])
	require.NoError(t, err)
	if lr.Status == leave.LeaveRequestStatusApproved {
		assert.Equal(t, "9", eka.OutOfOfficeBalance.String())
	} else {
		assert.Equal(t, "10", eka.OutOfOfficeBalance.String())
	}
}

func TestWorkflow_CancelAndApproveRaceHasOneWinner(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()

	for round := range 5 {
		created := w.submit(t, fixtures.Eka, 1)
		open, err := w.approvals.GetOpenByLeaveRequestID(ctx, created.ID)
		require.NoError(t, err)

		var cancelErr, approveErr error
		var g errgroup.Group
		g.Go(func() error {
			_, cancelErr = w.ledger.Cancel(w.ids.As(ctx, fixtures.Eka), created.ID)
			return nil
		})
		g.Go(func() error {
			_, approveErr = w.coordinator.Approve(w.ids.As(ctx, fixtures.Manager), approval.ApproveRequest{ID: open.ID})
			return nil
		})
		require.NoError(t, g.Wait())

		lr, err := w.leaves.GetByID(ctx, created.ID)
		require.NoError(t, err)
		switch {
		case cancelErr == nil:
			assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(approveErr), "round %d: %v", round, approveErr)
			assert.Equal(t, leave.LeaveRequestStatusCancelled, lr.Status)
		case approveErr == nil:
			assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(cancelErr), "round %d: %v", round, cancelErr)
			assert.Equal(t, leave.LeaveRequestStatusApproved, lr.Status)
		default:
			t.Fatalf("round %d: both failed: cancel=%v approve=%v", round, cancelErr, approveErr)
		}
	}
}

func TestWorkflow_CancelClosesApproval(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	created := w.submit(t, fixtures.Eka, 2)

	_, err := w.ledger.Cancel(w.ids.As(ctx, fixtures.Eka), created.ID)
	require.NoError(t, err)

	_, err = w.approvals.GetOpenByLeaveRequestID(ctx, created.ID)
	assert.ErrorIs(t, err, approval.ErrApprovalRequestNotFound)

	unassigned, total, err := w.leaves.ListUnassigned(ctx, leave.LeaveRequestFilter{Page: 1, Limit: 20, SortBy: "created_at", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Zero(t, total, "cancelled requests are not waiting for an approver")
	assert.Empty(t, unassigned)
}
