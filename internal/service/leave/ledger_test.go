package leave_test

import (
	"context"
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
)

var testToday = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type ledgerEnv struct {
	store       *memory.Store
	ids         *fixtures.SeededDataIDs
	ledger      *serviceLeave.LedgerImpl
	coordinator *serviceApproval.CoordinatorImpl
	applier     *serviceLeave.DecisionApplierImpl
}

func newLedgerEnv(t *testing.T) ledgerEnv {
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

	return ledgerEnv{store: store, ids: ids, ledger: ledger, coordinator: coordinator, applier: applier}
}

func (env ledgerEnv) as(username string) context.Context {
	return env.ids.As(context.Background(), username)
}

func strPtr(s string) *string { return &s }

func TestLedger_Create_Success(t *testing.T) {
	env := newLedgerEnv(t)

	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Family trip",
		StartDate:     "2026-03-09",
		EndDate:       "2026-03-13",
		Comment:       strPtr("Back on Monday"),
	})
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusPending, created.Status)
	assert.Equal(t, env.ids.EmployeeIDs[fixtures.Eka], created.EmployeeID)
	assert.Equal(t, int64(5), created.DayCount())

	events := env.store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, outbox.EventLeaveRequestCreated, events[0].EventType)
	assert.Equal(t, outbox.EventApprovalRequestOpened, events[1].EventType)
	assert.ElementsMatch(t, []int64{created.EmployeeID, *created.ApproverID}, events[1].Recipients)
}

func TestLedger_Create_DefaultsStartToToday(t *testing.T) {
	env := newLedgerEnv(t)

	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Doctor",
		EndDate:       "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", created.StartDate.Format("2006-01-02"))
	assert.Equal(t, int64(1), created.DayCount())
}

func TestLedger_Create_InvalidRange(t *testing.T) {
	env := newLedgerEnv(t)

	_, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Vacation",
		StartDate:     "2026-03-10",
		EndDate:       "2026-03-09",
	})
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
	assert.Equal(t, apperror.KindInvalidRange, apperror.KindOf(err))
	assert.Empty(t, env.store.Events())
}

func TestLedger_Create_ValidationErrors(t *testing.T) {
	env := newLedgerEnv(t)

	_, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		StartDate: "10/03/2026",
	})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestLedger_Create_InactiveRequesterForbidden(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	e, err := env.store.Employees().GetByID(ctx, env.ids.EmployeeIDs[fixtures.Eka])
	require.NoError(t, err)
	e.Status = employee.EmploymentStatusInactive
	_, err = env.store.Employees().Update(ctx, e)
	require.NoError(t, err)

	_, err = env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "x", EndDate: "2026-03-03"})
	assert.ErrorIs(t, err, leave.ErrRequesterInactive)
}

func TestLedger_Create_OnBehalfOfOthers(t *testing.T) {
	env := newLedgerEnv(t)
	budi := env.ids.EmployeeIDs[fixtures.Budi]

	_, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		EmployeeID: &budi, AbsenceReason: "Covering", EndDate: "2026-03-03",
	})
	assert.ErrorIs(t, err, access.ErrForbidden)

	// project managers hold no create capability at all
	_, err = env.ledger.Create(env.as(fixtures.Manager), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-03"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	created, err := env.ledger.Create(env.as(fixtures.HR), leave.CreateLeaveRequestRequest{
		EmployeeID: &budi, AbsenceReason: "Sick", EndDate: "2026-03-03",
	})
	require.NoError(t, err)
	assert.Equal(t, budi, created.EmployeeID)
}

func TestLedger_Cancel_ClosesOpenApproval(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
	require.NoError(t, err)
	open, err := env.store.Approvals().GetOpenByLeaveRequestID(context.Background(), created.ID)
	require.NoError(t, err)

	cancelled, err := env.ledger.Cancel(env.as(fixtures.Eka), created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusCancelled, cancelled.Status)

	closed, err := env.store.Approvals().GetByID(context.Background(), open.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.NotNil(t, closed.ClosedAt)

	_, err = env.coordinator.Approve(env.as(fixtures.Manager), approval.ApproveRequest{ID: open.ID})
	assert.ErrorIs(t, err, approval.ErrApprovalNotPending)

	last := env.store.Events()[len(env.store.Events())-1]
	assert.Equal(t, outbox.EventLeaveRequestCancelled, last.EventType)
	assert.ElementsMatch(t, []int64{created.EmployeeID, open.ApproverID}, last.Recipients)
}

func TestLedger_Cancel_TerminalRequestIsInvalidTransition(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
	require.NoError(t, err)
	_, err = env.ledger.Cancel(env.as(fixtures.Eka), created.ID)
	require.NoError(t, err)

	_, err = env.ledger.Cancel(env.as(fixtures.Eka), created.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotPending)
	assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(err))
}

func TestLedger_Cancel_OnlyOwner(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
	require.NoError(t, err)

	// visible to HR and the project manager, but not theirs to cancel
	for _, actor := range []string{fixtures.HR, fixtures.Manager, fixtures.Admin} {
		_, err = env.ledger.Cancel(env.as(actor), created.ID)
		assert.ErrorIs(t, err, access.ErrForbidden, actor)
	}

	// invisible to an unrelated employee
	_, err = env.ledger.Cancel(env.as(fixtures.Outsider), created.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestLedger_Edit(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Trip", StartDate: "2026-03-09", EndDate: "2026-03-10",
	})
	require.NoError(t, err)

	edited, err := env.ledger.Edit(env.as(fixtures.Eka), leave.EditLeaveRequestRequest{
		ID: created.ID, EndDate: strPtr("2026-03-12"), Comment: strPtr("Extended"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), edited.DayCount())
	require.NotNil(t, edited.Comment)
	assert.Equal(t, "Extended", *edited.Comment)

	_, err = env.ledger.Edit(env.as(fixtures.Eka), leave.EditLeaveRequestRequest{ID: created.ID, EndDate: strPtr("2026-03-01")})
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)

	// HR may not edit someone else's request, Administrators may
	_, err = env.ledger.Edit(env.as(fixtures.HR), leave.EditLeaveRequestRequest{ID: created.ID, AbsenceReason: strPtr("Changed")})
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = env.ledger.Edit(env.as(fixtures.Admin), leave.EditLeaveRequestRequest{ID: created.ID, AbsenceReason: strPtr("Changed")})
	assert.NoError(t, err)
}

func TestLedger_Get_MasksInvisibleRequests(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
	require.NoError(t, err)

	for _, actor := range []string{fixtures.Eka, fixtures.Manager, fixtures.HR, fixtures.Admin} {
		got, err := env.ledger.Get(env.as(actor), created.ID)
		require.NoError(t, err, actor)
		assert.Equal(t, created.ID, got.ID)
	}
	for _, actor := range []string{fixtures.Budi, fixtures.Outsider} {
		_, err := env.ledger.Get(env.as(actor), created.ID)
		assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound, actor)
	}
}

func TestLedger_List_Visibility(t *testing.T) {
	env := newLedgerEnv(t)
	for _, who := range []string{fixtures.Eka, fixtures.Budi, fixtures.Outsider} {
		_, err := env.ledger.Create(env.as(who), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
		require.NoError(t, err)
	}

	cases := []struct {
		actor string
		want  int64
	}{
		{fixtures.Eka, 1},
		{fixtures.Manager, 2},
		{fixtures.HR, 3},
		{fixtures.Admin, 3},
	}
	for _, c := range cases {
		items, total, err := env.ledger.List(env.as(c.actor), leave.LeaveRequestFilter{})
		require.NoError(t, err, c.actor)
		assert.Equal(t, c.want, total, c.actor)
		assert.Len(t, items, int(c.want), c.actor)
	}

	_, _, err := env.ledger.List(env.as(fixtures.Admin), leave.LeaveRequestFilter{SortBy: "salary"})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestDecisionApplier_RejectsUnknownOutcome(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Eka), leave.CreateLeaveRequestRequest{AbsenceReason: "Trip", EndDate: "2026-03-04"})
	require.NoError(t, err)

	_, err = env.applier.ApplyDecision(context.Background(), created.ID, leave.Outcome("Maybe"), nil)
	assert.ErrorIs(t, err, leave.ErrInvalidOutcome)

	lr, err := env.store.LeaveRequests().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusPending, lr.Status)
}

func TestDecisionApplier_ExactBalanceReachesZero(t *testing.T) {
	env := newLedgerEnv(t)
	created, err := env.ledger.Create(env.as(fixtures.Budi), leave.CreateLeaveRequestRequest{
		AbsenceReason: "Trip", StartDate: "2026-03-09", EndDate: "2026-03-11",
	})
	require.NoError(t, err)

	decided, err := env.applier.ApplyDecision(context.Background(), created.ID, leave.OutcomeApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusApproved, decided.Status)

	budi, err := env.store.Employees().GetByID(context.Background(), env.ids.EmployeeIDs[fixtures.Budi])
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(budi.OutOfOfficeBalance))
}

func TestDayCount(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, int64(1), leave.DayCount(day(9), day(9)))
	assert.Equal(t, int64(5), leave.DayCount(day(9), day(13)))
	assert.Equal(t, int64(2), leave.DayCount(day(9).Add(23*time.Hour), day(10)))
}
