package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/memory"
	serviceAccess "github.com/cmlabs-hris/hris-leave-go/internal/service/access"
	serviceProject "github.com/cmlabs-hris/hris-leave-go/internal/service/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectEnv struct {
	store *memory.Store
	svc   project.ProjectService
	ids   *fixtures.SeededDataIDs
}

func setup(t *testing.T) projectEnv {
	t.Helper()
	store := memory.NewStore()
	ids, err := fixtures.Seed(context.Background(), store, fixtures.Repositories{
		Employees: store.Employees(),
		Projects:  store.Projects(),
		Users:     store.Users(),
	}, "$2a$10$unused.hash.for.service.tests.only.xxxxxxxxxxxxxxxxxxx", time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	svc := serviceProject.NewProjectService(store, store.Projects(), store.Employees(), serviceAccess.MustNewPolicy())
	return projectEnv{store: store, svc: svc, ids: ids}
}

func (env projectEnv) as(username string) context.Context {
	return env.ids.As(context.Background(), username)
}

func TestProjectService_Create(t *testing.T) {
	env := setup(t)
	end := "2026-12-31"

	created, err := env.svc.Create(env.as(fixtures.HR), project.CreateProjectRequest{
		ProjectType:      "Client Delivery",
		StartDate:        "2026-04-01",
		EndDate:          &end,
		ProjectManagerID: env.ids.EmployeeIDs[fixtures.Manager],
	})
	require.NoError(t, err)
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, "2026-04-01", created.StartDate)
	require.NotNil(t, created.ProjectManagerName)

	_, err = env.svc.Create(env.as(fixtures.Manager), project.CreateProjectRequest{
		ProjectType: "Side Project", StartDate: "2026-04-01", ProjectManagerID: env.ids.EmployeeIDs[fixtures.Manager],
	})
	assert.ErrorIs(t, err, access.ErrForbidden)

	// plain employees cannot approve leave, so they cannot manage a project
	_, err = env.svc.Create(env.as(fixtures.HR), project.CreateProjectRequest{
		ProjectType: "Research", StartDate: "2026-04-01", ProjectManagerID: env.ids.EmployeeIDs[fixtures.Eka],
	})
	assert.ErrorIs(t, err, project.ErrInvalidProjectManager)

	early := "2026-03-01"
	_, err = env.svc.Create(env.as(fixtures.HR), project.CreateProjectRequest{
		ProjectType: "Research", StartDate: "2026-04-01", EndDate: &early, ProjectManagerID: env.ids.EmployeeIDs[fixtures.Manager],
	})
	assert.ErrorIs(t, err, project.ErrInvalidProjectDates)
	assert.Equal(t, apperror.KindInvalidRange, apperror.KindOf(err))
}

func TestProjectService_Visibility(t *testing.T) {
	env := setup(t)
	platform := env.ids.ProjectIDs[fixtures.Platform]

	for _, actor := range []string{fixtures.Manager, fixtures.HR, fixtures.Admin} {
		got, err := env.svc.Get(env.as(actor), platform)
		require.NoError(t, err, actor)
		assert.Equal(t, 2, got.MemberCount, actor)
	}

	_, err := env.svc.Get(env.as(fixtures.Eka), platform)
	assert.ErrorIs(t, err, project.ErrProjectNotFound)

	resp, err := env.svc.List(env.as(fixtures.Eka), project.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, resp.Projects)

	resp, err = env.svc.List(env.as(fixtures.Manager), project.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalCount)

	_, err = env.svc.ListMembers(env.as(fixtures.Eka), platform)
	assert.ErrorIs(t, err, project.ErrProjectNotFound)

	members, err := env.svc.ListMembers(env.as(fixtures.Manager), platform)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestProjectService_Members(t *testing.T) {
	env := setup(t)
	ctx := env.as(fixtures.HR)
	platform := env.ids.ProjectIDs[fixtures.Platform]
	nia := env.ids.EmployeeIDs[fixtures.Outsider]

	member, err := env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform, EmployeeID: nia})
	require.NoError(t, err)
	assert.Equal(t, nia, member.EmployeeID)

	_, err = env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform, EmployeeID: nia})
	assert.ErrorIs(t, err, project.ErrMemberAlreadyAssigned)

	_, err = env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform, EmployeeID: env.ids.EmployeeIDs[fixtures.Manager]})
	assert.ErrorIs(t, err, project.ErrManagerCannotBeMember)

	_, err = env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))

	require.NoError(t, env.svc.UnassignMember(ctx, platform, nia))
	err = env.svc.UnassignMember(ctx, platform, nia)
	assert.ErrorIs(t, err, project.ErrMemberNotAssigned)

	err = env.svc.UnassignMember(env.as(fixtures.Manager), platform, env.ids.EmployeeIDs[fixtures.Eka])
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestProjectService_AssignInactiveEmployee(t *testing.T) {
	env := setup(t)
	nia := env.ids.EmployeeIDs[fixtures.Outsider]

	e, err := env.store.Employees().GetByID(context.Background(), nia)
	require.NoError(t, err)
	e.Status = employee.EmploymentStatusInactive
	_, err = env.store.Employees().Update(context.Background(), e)
	require.NoError(t, err)

	_, err = env.svc.AssignMember(env.as(fixtures.HR), project.AssignMemberRequest{ProjectID: env.ids.ProjectIDs[fixtures.Platform], EmployeeID: nia})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestProjectService_Update(t *testing.T) {
	env := setup(t)
	ctx := env.as(fixtures.Admin)
	platform := env.ids.ProjectIDs[fixtures.Platform]
	backup := env.ids.EmployeeIDs[fixtures.HRBackup]
	hr := env.ids.EmployeeIDs[fixtures.HR]

	_, err := env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform, EmployeeID: backup})
	require.NoError(t, err)

	_, err = env.svc.Update(ctx, project.UpdateProjectRequest{ID: platform, ProjectManagerID: &backup})
	assert.ErrorIs(t, err, project.ErrManagerCannotBeMember)

	updated, err := env.svc.Update(ctx, project.UpdateProjectRequest{ID: platform, ProjectManagerID: &hr})
	require.NoError(t, err)
	assert.Equal(t, hr, updated.ProjectManagerID)

	early := "2025-01-01"
	_, err = env.svc.Update(ctx, project.UpdateProjectRequest{ID: platform, EndDate: &early})
	assert.ErrorIs(t, err, project.ErrInvalidProjectDates)

	_, err = env.svc.Update(ctx, project.UpdateProjectRequest{ID: platform})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestProjectService_Deactivate(t *testing.T) {
	env := setup(t)
	ctx := env.as(fixtures.HR)
	platform := env.ids.ProjectIDs[fixtures.Platform]

	deactivated, err := env.svc.Deactivate(ctx, platform)
	require.NoError(t, err)
	assert.Equal(t, "inactive", deactivated.Status)

	_, err = env.svc.Deactivate(ctx, platform)
	assert.ErrorIs(t, err, project.ErrProjectInactive)

	_, err = env.svc.AssignMember(ctx, project.AssignMemberRequest{ProjectID: platform, EmployeeID: env.ids.EmployeeIDs[fixtures.Outsider]})
	assert.ErrorIs(t, err, project.ErrProjectInactive)

	_, err = env.svc.Deactivate(ctx, 9999)
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}
