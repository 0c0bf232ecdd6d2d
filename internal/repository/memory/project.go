package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
)

type projectRepo struct{ s *Store }

// isTeamMember must be called with the store lock held.
func (s *Store) isTeamMember(managerID, employeeID int64) bool {
	for key := range s.data.members {
		if key.employeeID != employeeID {
			continue
		}
		p, ok := s.data.projects[key.projectID]
		if ok && p.IsActive() && p.ProjectManagerID == managerID {
			return true
		}
	}
	return false
}

func (r projectRepo) withReadModel(p project.Project) project.Project {
	p.ProjectManagerName = nil
	if pm, ok := r.s.data.employees[p.ProjectManagerID]; ok {
		p.ProjectManagerName = strPtr(pm.FullName)
	}
	p.MemberCount = 0
	for key := range r.s.data.members {
		if key.projectID == p.ID {
			p.MemberCount++
		}
	}
	return p
}

func (r projectRepo) validate(p project.Project) error {
	if _, ok := r.s.data.employees[p.ProjectManagerID]; !ok {
		return project.ErrInvalidProjectManager
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return project.ErrInvalidProjectDates
	}
	return nil
}

func (r projectRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	defer r.s.lock(ctx)()

	if err := r.validate(p); err != nil {
		return project.Project{}, err
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.data.projects[p.ID] = p
	return r.withReadModel(p), nil
}

func (r projectRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.projects[id]
	if !ok {
		return project.Project{}, project.ErrProjectNotFound
	}
	return r.withReadModel(p), nil
}

func (r projectRepo) List(ctx context.Context, filter project.ProjectFilter) ([]project.Project, int64, error) {
	defer r.s.lock(ctx)()

	var out []project.Project
	for _, p := range r.s.data.projects {
		if filter.Status != nil && string(p.Status) != *filter.Status {
			continue
		}
		if filter.ProjectManagerID != nil && p.ProjectManagerID != *filter.ProjectManagerID {
			continue
		}
		v := filter.Visibility
		if !v.All && !(v.Own && p.ProjectManagerID == v.ActorID) {
			continue
		}
		out = append(out, r.withReadModel(p))
	}
	slices.SortFunc(out, func(a, b project.Project) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r projectRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	defer r.s.lock(ctx)()

	current, ok := r.s.data.projects[p.ID]
	if !ok {
		return project.Project{}, project.ErrProjectNotFound
	}
	if err := r.validate(p); err != nil {
		return project.Project{}, err
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.data.projects[p.ID] = p
	return r.withReadModel(p), nil
}

func (r projectRepo) AddMember(ctx context.Context, projectID, employeeID int64) (project.Member, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.projects[projectID]; !ok {
		return project.Member{}, project.ErrProjectNotFound
	}
	e, ok := r.s.data.employees[employeeID]
	if !ok {
		return project.Member{}, employee.ErrEmployeeNotFound
	}
	key := memberKey{projectID: projectID, employeeID: employeeID}
	if _, exists := r.s.data.members[key]; exists {
		return project.Member{}, project.ErrMemberAlreadyAssigned
	}
	m := project.Member{ProjectID: projectID, EmployeeID: employeeID, EmployeeName: e.FullName, AssignedAt: r.s.now()}
	r.s.data.members[key] = m
	return m, nil
}

func (r projectRepo) RemoveMember(ctx context.Context, projectID, employeeID int64) error {
	defer r.s.lock(ctx)()

	key := memberKey{projectID: projectID, employeeID: employeeID}
	if _, ok := r.s.data.members[key]; !ok {
		return project.ErrMemberNotAssigned
	}
	delete(r.s.data.members, key)
	return nil
}

func (r projectRepo) ListMembers(ctx context.Context, projectID int64) ([]project.Member, error) {
	defer r.s.lock(ctx)()

	members := make([]project.Member, 0)
	for key, m := range r.s.data.members {
		if key.projectID == projectID {
			if e, ok := r.s.data.employees[m.EmployeeID]; ok {
				m.EmployeeName = e.FullName
			}
			members = append(members, m)
		}
	}
	slices.SortFunc(members, func(a, b project.Member) int { return cmp.Compare(a.EmployeeID, b.EmployeeID) })
	return members, nil
}

func (r projectRepo) ManagersFor(ctx context.Context, employeeID int64) ([]int64, error) {
	defer r.s.lock(ctx)()

	var projectIDs []int64
	for key := range r.s.data.members {
		if key.employeeID != employeeID {
			continue
		}
		if p, ok := r.s.data.projects[key.projectID]; ok && p.IsActive() {
			projectIDs = append(projectIDs, p.ID)
		}
	}
	slices.Sort(projectIDs)

	managers := make([]int64, 0, len(projectIDs))
	for _, id := range projectIDs {
		managers = append(managers, r.s.data.projects[id].ProjectManagerID)
	}
	return managers, nil
}

func (r projectRepo) IsTeamMember(ctx context.Context, managerID, employeeID int64) (bool, error) {
	defer r.s.lock(ctx)()
	return r.s.isTeamMember(managerID, employeeID), nil
}
