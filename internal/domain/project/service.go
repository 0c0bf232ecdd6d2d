package project

import "context"

type ProjectService interface {
	Create(ctx context.Context, req CreateProjectRequest) (ProjectResponse, error)
	Get(ctx context.Context, id int64) (ProjectResponse, error)
	List(ctx context.Context, filter ProjectFilter) (ListProjectResponse, error)
	Update(ctx context.Context, req UpdateProjectRequest) (ProjectResponse, error)
	Deactivate(ctx context.Context, id int64) (ProjectResponse, error)
	AssignMember(ctx context.Context, req AssignMemberRequest) (MemberResponse, error)
	UnassignMember(ctx context.Context, projectID, employeeID int64) error
	ListMembers(ctx context.Context, projectID int64) ([]MemberResponse, error)
}
