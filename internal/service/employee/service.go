package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// DirectoryImpl answers role and membership lookups. Concurrent role
// resolutions for the same employee share one query.
type DirectoryImpl struct {
	employeeRepo employee.EmployeeRepository
	projectRepo  project.ProjectRepository
	group        singleflight.Group
}

func NewDirectory(employeeRepo employee.EmployeeRepository, projectRepo project.ProjectRepository) *DirectoryImpl {
	return &DirectoryImpl{employeeRepo: employeeRepo, projectRepo: projectRepo}
}

// ResolveRole implements employee.Directory.
func (d *DirectoryImpl) ResolveRole(ctx context.Context, employeeID int64) (access.Role, error) {
	v, err, _ := d.group.Do(strconv.FormatInt(employeeID, 10), func() (any, error) {
		emp, err := d.employeeRepo.GetByID(ctx, employeeID)
		if err != nil {
			return access.Role(""), err
		}
		return emp.Role, nil
	})
	if err != nil {
		return "", err
	}
	return v.(access.Role), nil
}

// PermissionsFor implements employee.Directory.
func (d *DirectoryImpl) PermissionsFor(role access.Role) []access.Capability {
	return access.CapabilitiesFor(role)
}

// GetEmployee implements employee.Directory.
func (d *DirectoryImpl) GetEmployee(ctx context.Context, employeeID int64) (employee.Employee, error) {
	return d.employeeRepo.GetByID(ctx, employeeID)
}

// IsTeamMember implements employee.Directory.
func (d *DirectoryImpl) IsTeamMember(ctx context.Context, managerID, employeeID int64) (bool, error) {
	if managerID == employeeID {
		return false, nil
	}
	return d.projectRepo.IsTeamMember(ctx, managerID, employeeID)
}

type EmployeeServiceImpl struct {
	tx           database.Transactor
	employeeRepo employee.EmployeeRepository
	directory    employee.Directory
	policy       access.Policy
}

func NewEmployeeService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	directory employee.Directory,
	policy access.Policy,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		tx:           tx,
		employeeRepo: employeeRepo,
		directory:    directory,
		policy:       policy,
	}
}

// Get implements employee.EmployeeService. Employees outside the caller's
// view are reported as not found.
func (s *EmployeeServiceImpl) Get(ctx context.Context, id int64) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.Get", attribute.Int64("employee.id", id))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.Get", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	inTeam, err := s.directory.IsTeamMember(ctx, p.EmployeeID, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeView, access.Target{OwnerID: id, InTeam: inTeam}); err != nil {
		return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
	}

	return employee.NewEmployeeResponse(emp), nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, filter employee.EmployeeFilter) (resp employee.ListEmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.List")
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.List", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.ListEmployeeResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, apperror.InvalidInput(err)
	}

	resp = employee.ListEmployeeResponse{
		Employees: []employee.EmployeeResponse{},
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	filter.Visibility = access.VisibilityFor(s.policy, p, access.ActionEmployeeView)
	if filter.Visibility.Empty() {
		return resp, nil
	}

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, err
	}
	for _, e := range employees {
		resp.Employees = append(resp.Employees, employee.NewEmployeeResponse(e))
	}
	resp.TotalCount = total
	resp.TotalPages = validator.TotalPages(total, filter.Limit)
	return resp, nil
}

// Create implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Create(ctx context.Context, req employee.CreateEmployeeRequest) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.Create")
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.Create", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{}); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, apperror.InvalidInput(err)
	}

	var created employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if req.PeoplePartnerID != nil {
			if _, err := s.employeeRepo.GetByID(ctx, *req.PeoplePartnerID); err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					return employee.ErrPeoplePartnerNotFound
				}
				return err
			}
		}

		created, err = s.employeeRepo.Create(ctx, employee.Employee{
			FullName:           req.FullName,
			Subdivision:        req.Subdivision,
			Position:           req.Position,
			Status:             employee.EmploymentStatusActive,
			PeoplePartnerID:    req.PeoplePartnerID,
			OutOfOfficeBalance: req.OutOfOfficeBalance,
			PhotoURL:           req.PhotoURL,
			Role:               access.Role(req.Role),
		})
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee created", "employee_id", created.ID, "role", created.Role, "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(created), nil
}

// Update implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Update(ctx context.Context, req employee.UpdateEmployeeRequest) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.Update", attribute.Int64("employee.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.Update", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{OwnerID: req.ID}); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, apperror.InvalidInput(err)
	}

	var updated employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.FullName != nil {
			emp.FullName = *req.FullName
		}
		if req.Subdivision != nil {
			emp.Subdivision = *req.Subdivision
		}
		if req.Position != nil {
			emp.Position = *req.Position
		}
		if req.PhotoURL != nil {
			emp.PhotoURL = req.PhotoURL
		}
		if req.Role != nil {
			emp.Role = access.Role(*req.Role)
		}
		if req.PeoplePartnerID != nil {
			if *req.PeoplePartnerID == emp.ID {
				return employee.ErrSelfPeoplePartner
			}
			if _, err := s.employeeRepo.GetByID(ctx, *req.PeoplePartnerID); err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					return employee.ErrPeoplePartnerNotFound
				}
				return err
			}
			emp.PeoplePartnerID = req.PeoplePartnerID
		}

		updated, err = s.employeeRepo.Update(ctx, emp)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	// reload for the people partner name
	updated, err = s.employeeRepo.GetByID(ctx, updated.ID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee updated", "employee_id", updated.ID, "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(updated), nil
}

// Deactivate implements employee.EmployeeService. Employees are never
// deleted.
func (s *EmployeeServiceImpl) Deactivate(ctx context.Context, id int64) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.Deactivate", attribute.Int64("employee.id", id))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.Deactivate", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{OwnerID: id}); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var updated employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !emp.IsActive() {
			return employee.ErrEmployeeAlreadyInactive
		}
		emp.Status = employee.EmploymentStatusInactive
		updated, err = s.employeeRepo.Update(ctx, emp)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee deactivated", "employee_id", id, "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(updated), nil
}

// AdjustBalance implements employee.EmployeeService.
func (s *EmployeeServiceImpl) AdjustBalance(ctx context.Context, req employee.AdjustBalanceRequest) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.AdjustBalance", attribute.Int64("employee.id", req.ID))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.AdjustBalance", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{OwnerID: req.ID}); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, apperror.InvalidInput(err)
	}

	var emp employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err = s.employeeRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if err := s.employeeRepo.UpdateBalance(ctx, req.ID, req.Balance); err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}
		emp.OutOfOfficeBalance = req.Balance
		return nil
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Out-of-office balance adjusted", "employee_id", req.ID, "balance", req.Balance.String(), "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(emp), nil
}
