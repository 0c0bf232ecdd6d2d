package project

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
)

type ProjectServiceImpl struct {
	tx           database.Transactor
	projectRepo  project.ProjectRepository
	employeeRepo employee.EmployeeRepository
	policy       access.Policy
}

func NewProjectService(
	tx database.Transactor,
	projectRepo project.ProjectRepository,
	employeeRepo employee.EmployeeRepository,
	policy access.Policy,
) project.ProjectService {
	return &ProjectServiceImpl{
		tx:           tx,
		projectRepo:  projectRepo,
		employeeRepo: employeeRepo,
		policy:       policy,
	}
}

// checkManager requires an active employee whose role may approve leave.
func (s *ProjectServiceImpl) checkManager(ctx context.Context, managerID int64) error {
	manager, err := s.employeeRepo.GetByID(ctx, managerID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return project.ErrInvalidProjectManager
		}
		return err
	}
	if !manager.IsActive() || !access.CanApprove(manager.Role) {
		return project.ErrInvalidProjectManager
	}
	return nil
}

// Create implements project.ProjectService.
func (s *ProjectServiceImpl) Create(ctx context.Context, req project.CreateProjectRequest) (resp project.ProjectResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.Create")
	defer func() { tracing.End(span, err); metrics.ObserveError("project.Create", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectManage, access.Target{}); err != nil {
		return project.ProjectResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, apperror.InvalidInput(err)
	}

	startDate, _ := validator.IsValidDate(req.StartDate)
	var endDate *time.Time
	if req.EndDate != nil {
		end, _ := validator.IsValidDate(*req.EndDate)
		if end.Before(startDate) {
			return project.ProjectResponse{}, project.ErrInvalidProjectDates
		}
		endDate = &end
	}

	var created project.Project
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkManager(ctx, req.ProjectManagerID); err != nil {
			return err
		}
		created, err = s.projectRepo.Create(ctx, project.Project{
			ProjectType:      req.ProjectType,
			StartDate:        startDate,
			EndDate:          endDate,
			ProjectManagerID: req.ProjectManagerID,
			Comment:          req.Comment,
			Status:           project.ProjectStatusActive,
		})
		return err
	})
	if err != nil {
		return project.ProjectResponse{}, err
	}

	slog.Info("Project created", "project_id", created.ID, "project_manager_id", created.ProjectManagerID, "actor_id", p.EmployeeID)
	return s.Get(ctx, created.ID)
}

// Get implements project.ProjectService.
func (s *ProjectServiceImpl) Get(ctx context.Context, id int64) (resp project.ProjectResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.Get", attribute.Int64("project.id", id))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.Get", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	proj, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectView, access.Target{OwnerID: proj.ProjectManagerID}); err != nil {
		return project.ProjectResponse{}, project.ErrProjectNotFound
	}
	return project.NewProjectResponse(proj), nil
}

// List implements project.ProjectService.
func (s *ProjectServiceImpl) List(ctx context.Context, filter project.ProjectFilter) (resp project.ListProjectResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.List")
	defer func() { tracing.End(span, err); metrics.ObserveError("project.List", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.ListProjectResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return project.ListProjectResponse{}, apperror.InvalidInput(err)
	}

	resp = project.ListProjectResponse{
		Projects: []project.ProjectResponse{},
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	filter.Visibility = access.VisibilityFor(s.policy, p, access.ActionProjectView)
	if filter.Visibility.Empty() {
		return resp, nil
	}

	projects, total, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return project.ListProjectResponse{}, err
	}
	for _, proj := range projects {
		resp.Projects = append(resp.Projects, project.NewProjectResponse(proj))
	}
	resp.TotalCount = total
	resp.TotalPages = validator.TotalPages(total, filter.Limit)
	return resp, nil
}

// Update implements project.ProjectService.
func (s *ProjectServiceImpl) Update(ctx context.Context, req project.UpdateProjectRequest) (resp project.ProjectResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.Update", attribute.Int64("project.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.Update", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectManage, access.Target{}); err != nil {
		return project.ProjectResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, apperror.InvalidInput(err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		proj, err := s.projectRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.ProjectType != nil {
			proj.ProjectType = *req.ProjectType
		}
		if req.StartDate != nil {
			proj.StartDate, _ = validator.IsValidDate(*req.StartDate)
		}
		if req.EndDate != nil {
			end, _ := validator.IsValidDate(*req.EndDate)
			proj.EndDate = &end
		}
		if proj.EndDate != nil && proj.EndDate.Before(proj.StartDate) {
			return project.ErrInvalidProjectDates
		}
		if req.Comment != nil {
			proj.Comment = req.Comment
		}
		if req.ProjectManagerID != nil && *req.ProjectManagerID != proj.ProjectManagerID {
			if err := s.checkManager(ctx, *req.ProjectManagerID); err != nil {
				return err
			}
			members, err := s.projectRepo.ListMembers(ctx, proj.ID)
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.EmployeeID == *req.ProjectManagerID {
					return project.ErrManagerCannotBeMember
				}
			}
			proj.ProjectManagerID = *req.ProjectManagerID
		}

		_, err = s.projectRepo.Update(ctx, proj)
		return err
	})
	if err != nil {
		return project.ProjectResponse{}, err
	}

	slog.Info("Project updated", "project_id", req.ID, "actor_id", p.EmployeeID)
	return s.Get(ctx, req.ID)
}

// Deactivate implements project.ProjectService. Staffing is kept but an
// inactive project no longer routes approvals.
func (s *ProjectServiceImpl) Deactivate(ctx context.Context, id int64) (resp project.ProjectResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.Deactivate", attribute.Int64("project.id", id))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.Deactivate", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectManage, access.Target{}); err != nil {
		return project.ProjectResponse{}, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		proj, err := s.projectRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !proj.IsActive() {
			return project.ErrProjectInactive
		}
		proj.Status = project.ProjectStatusInactive
		_, err = s.projectRepo.Update(ctx, proj)
		return err
	})
	if err != nil {
		return project.ProjectResponse{}, err
	}

	slog.Info("Project deactivated", "project_id", id, "actor_id", p.EmployeeID)
	return s.Get(ctx, id)
}

// AssignMember implements project.ProjectService.
func (s *ProjectServiceImpl) AssignMember(ctx context.Context, req project.AssignMemberRequest) (resp project.MemberResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.AssignMember",
		attribute.Int64("project.id", req.ProjectID), attribute.Int64("employee.id", req.EmployeeID))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.AssignMember", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return project.MemberResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectManage, access.Target{}); err != nil {
		return project.MemberResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.MemberResponse{}, apperror.InvalidInput(err)
	}

	var member project.Member
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		proj, err := s.projectRepo.GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if !proj.IsActive() {
			return project.ErrProjectInactive
		}
		if proj.ProjectManagerID == req.EmployeeID {
			return project.ErrManagerCannotBeMember
		}

		emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if !emp.IsActive() {
			return employee.ErrEmployeeInactive
		}

		member, err = s.projectRepo.AddMember(ctx, req.ProjectID, req.EmployeeID)
		return err
	})
	if err != nil {
		return project.MemberResponse{}, err
	}

	slog.Info("Employee assigned to project", "project_id", req.ProjectID, "employee_id", req.EmployeeID, "actor_id", p.EmployeeID)
	return project.MemberResponse{
		EmployeeID:   member.EmployeeID,
		EmployeeName: member.EmployeeName,
		AssignedAt:   member.AssignedAt,
	}, nil
}

// UnassignMember implements project.ProjectService.
func (s *ProjectServiceImpl) UnassignMember(ctx context.Context, projectID, employeeID int64) (err error) {
	ctx, span := tracing.Start(ctx, "project.UnassignMember",
		attribute.Int64("project.id", projectID), attribute.Int64("employee.id", employeeID))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.UnassignMember", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	if err := access.Authorize(s.policy, p, access.ActionProjectManage, access.Target{}); err != nil {
		return err
	}

	if err := s.projectRepo.RemoveMember(ctx, projectID, employeeID); err != nil {
		return err
	}
	slog.Info("Employee unassigned from project", "project_id", projectID, "employee_id", employeeID, "actor_id", p.EmployeeID)
	return nil
}

// ListMembers implements project.ProjectService.
func (s *ProjectServiceImpl) ListMembers(ctx context.Context, projectID int64) (resp []project.MemberResponse, err error) {
	ctx, span := tracing.Start(ctx, "project.ListMembers", attribute.Int64("project.id", projectID))
	defer func() { tracing.End(span, err); metrics.ObserveError("project.ListMembers", err) }()

	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	resp = make([]project.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, project.MemberResponse{
			EmployeeID:   m.EmployeeID,
			EmployeeName: m.EmployeeName,
			AssignedAt:   m.AssignedAt,
		})
	}
	return resp, nil
}
