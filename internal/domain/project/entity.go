package project

import "time"

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusInactive ProjectStatus = "inactive"
)

// Project entity
type Project struct {
	ID               int64
	ProjectType      string
	StartDate        time.Time
	EndDate          *time.Time
	ProjectManagerID int64
	Comment          *string
	Status           ProjectStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Read model
	ProjectManagerName *string
	MemberCount        int
}

func (p Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// Member is an employee staffed on a project.
type Member struct {
	ProjectID    int64
	EmployeeID   int64
	EmployeeName string
	AssignedAt   time.Time
}
