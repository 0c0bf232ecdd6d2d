package project

import "context"

// ProjectRepository - interface for projects and project_members tables
type ProjectRepository interface {
	Create(ctx context.Context, project Project) (Project, error)
	GetByID(ctx context.Context, id int64) (Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]Project, int64, error)
	Update(ctx context.Context, project Project) (Project, error)

	AddMember(ctx context.Context, projectID, employeeID int64) (Member, error)
	RemoveMember(ctx context.Context, projectID, employeeID int64) error
	ListMembers(ctx context.Context, projectID int64) ([]Member, error)

	// ManagersFor returns the managers of active projects the employee is
	// staffed on, ordered by project id.
	ManagersFor(ctx context.Context, employeeID int64) ([]int64, error)
	IsTeamMember(ctx context.Context, managerID, employeeID int64) (bool, error)
}
