package project

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type CreateProjectRequest struct {
	ProjectType      string  `json:"project_type"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date,omitempty"`
	ProjectManagerID int64   `json:"project_manager_id"`
	Comment          *string `json:"comment,omitempty"`
}

func (r *CreateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ProjectType) {
		errs.Add("project_type", "project_type is required")
	} else if validator.ExceedsLength(r.ProjectType, 100) {
		errs.Add("project_type", "project_type must not exceed 100 characters")
	}
	if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if r.ProjectManagerID <= 0 {
		errs.Add("project_manager_id", "project_manager_id is required")
	}
	if r.Comment != nil && validator.ExceedsLength(*r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}

	return errs.Err()
}

type UpdateProjectRequest struct {
	ID               int64   `json:"-"`
	ProjectType      *string `json:"project_type,omitempty"`
	StartDate        *string `json:"start_date,omitempty"`
	EndDate          *string `json:"end_date,omitempty"`
	ProjectManagerID *int64  `json:"project_manager_id,omitempty"`
	Comment          *string `json:"comment,omitempty"`
}

func (r *UpdateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ProjectType != nil && validator.IsEmpty(*r.ProjectType) {
		errs.Add("project_type", "project_type must not be empty")
	}
	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if r.ProjectManagerID != nil && *r.ProjectManagerID <= 0 {
		errs.Add("project_manager_id", "project_manager_id must be a positive id")
	}
	if r.Comment != nil && validator.ExceedsLength(*r.Comment, 1000) {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}
	if r.ProjectType == nil && r.StartDate == nil && r.EndDate == nil && r.ProjectManagerID == nil && r.Comment == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.Err()
}

type AssignMemberRequest struct {
	ProjectID  int64 `json:"-"`
	EmployeeID int64 `json:"employee_id"`
}

func (r *AssignMemberRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	return errs.Err()
}

type ProjectFilter struct {
	Status           *string `json:"status,omitempty"`
	ProjectManagerID *int64  `json:"project_manager_id,omitempty"`
	Page             int     `json:"page"`
	Limit            int     `json:"limit"`

	Visibility access.Visibility `json:"-"`
}

func (f *ProjectFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && *f.Status != string(ProjectStatusActive) && *f.Status != string(ProjectStatusInactive) {
		errs.Add("status", "status must be active or inactive")
	}
	f.Page, f.Limit = validator.NormalizePage(f.Page, f.Limit)
	return errs.Err()
}

type ProjectResponse struct {
	ID                 int64     `json:"id"`
	ProjectType        string    `json:"project_type"`
	StartDate          string    `json:"start_date"`
	EndDate            *string   `json:"end_date,omitempty"`
	ProjectManagerID   int64     `json:"project_manager_id"`
	ProjectManagerName *string   `json:"project_manager_name,omitempty"`
	Comment            *string   `json:"comment,omitempty"`
	Status             string    `json:"status"`
	MemberCount        int       `json:"member_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewProjectResponse(p Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                 p.ID,
		ProjectType:        p.ProjectType,
		StartDate:          p.StartDate.Format(validator.DateLayout),
		ProjectManagerID:   p.ProjectManagerID,
		ProjectManagerName: p.ProjectManagerName,
		Comment:            p.Comment,
		Status:             string(p.Status),
		MemberCount:        p.MemberCount,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.EndDate != nil {
		end := p.EndDate.Format(validator.DateLayout)
		resp.EndDate = &end
	}
	return resp
}

type ListProjectResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type MemberResponse struct {
	EmployeeID   int64     `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	AssignedAt   time.Time `json:"assigned_at"`
}
