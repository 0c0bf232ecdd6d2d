package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type employeeRepo struct{ s *Store }

func (r employeeRepo) withReadModel(e employee.Employee) employee.Employee {
	e.PeoplePartnerName = nil
	if e.PeoplePartnerID != nil {
		if pp, ok := r.s.data.employees[*e.PeoplePartnerID]; ok {
			e.PeoplePartnerName = strPtr(pp.FullName)
		}
	}
	return e
}

func (r employeeRepo) checkPartner(e employee.Employee) error {
	if e.PeoplePartnerID == nil {
		return nil
	}
	if _, ok := r.s.data.employees[*e.PeoplePartnerID]; !ok {
		return employee.ErrPeoplePartnerNotFound
	}
	return nil
}

func (r employeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	if err := r.checkPartner(e); err != nil {
		return employee.Employee{}, err
	}
	if e.OutOfOfficeBalance.IsNegative() {
		return employee.Employee{}, employee.ErrNegativeBalance
	}
	e.ID = r.s.nextID()
	e.CreatedAt = r.s.now()
	e.UpdatedAt = e.CreatedAt
	r.s.data.employees[e.ID] = e
	return r.withReadModel(e), nil
}

func (r employeeRepo) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.withReadModel(e), nil
}

func (r employeeRepo) GetByIDForUpdate(ctx context.Context, id int64) (employee.Employee, error) {
	return r.GetByID(ctx, id)
}

func (r employeeRepo) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	defer r.s.lock(ctx)()

	var out []employee.Employee
	for _, e := range r.s.data.employees {
		if filter.Status != nil && string(e.Status) != *filter.Status {
			continue
		}
		if filter.Role != nil && string(e.Role) != *filter.Role {
			continue
		}
		if filter.Subdivision != nil && *filter.Subdivision != "" && e.Subdivision != *filter.Subdivision {
			continue
		}
		if filter.Search != nil && *filter.Search != "" {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(e.FullName), needle) && !strings.Contains(strings.ToLower(e.Position), needle) {
				continue
			}
		}
		if !r.visible(filter.Visibility, e.ID) {
			continue
		}
		out = append(out, r.withReadModel(e))
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r employeeRepo) visible(v access.Visibility, employeeID int64) bool {
	if v.All {
		return true
	}
	if v.Own && employeeID == v.ActorID {
		return true
	}
	return v.Team && r.s.isTeamMember(v.ActorID, employeeID)
}

func (r employeeRepo) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	current, ok := r.s.data.employees[e.ID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if err := r.checkPartner(e); err != nil {
		return employee.Employee{}, err
	}
	// balance only changes through UpdateBalance
	e.OutOfOfficeBalance = current.OutOfOfficeBalance
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = r.s.now()
	r.s.data.employees[e.ID] = e
	return r.withReadModel(e), nil
}

func (r employeeRepo) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	if balance.IsNegative() {
		return employee.ErrNegativeBalance
	}
	e.OutOfOfficeBalance = balance
	e.UpdatedAt = r.s.now()
	r.s.data.employees[id] = e
	return nil
}

func (r employeeRepo) ListActiveByRole(ctx context.Context, role access.Role) ([]employee.Employee, error) {
	defer r.s.lock(ctx)()

	var out []employee.Employee
	for _, e := range r.s.data.employees {
		if e.Role == role && e.IsActive() {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
