package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
)

type ProjectHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
	ListMembers(w http.ResponseWriter, r *http.Request)
	AssignMember(w http.ResponseWriter, r *http.Request)
	UnassignMember(w http.ResponseWriter, r *http.Request)
}

type ProjectHandlerImpl struct {
	projectService project.ProjectService
}

func NewProjectHandler(projectService project.ProjectService) ProjectHandler {
	return &ProjectHandlerImpl{projectService: projectService}
}

// List implements ProjectHandler.
func (h *ProjectHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := project.ProjectFilter{
		Status:           queryString(r, "status"),
		ProjectManagerID: queryInt64(r, "project_manager_id"),
		Page:             queryInt(r, "page"),
		Limit:            queryInt(r, "limit"),
	}
	list, err := h.projectService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, list.Projects, &response.Meta{
		Page:       list.Page,
		Limit:      list.Limit,
		TotalItems: list.TotalCount,
		TotalPages: list.TotalPages,
	})
}

// Get implements ProjectHandler.
func (h *ProjectHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, p)
}

// Create implements ProjectHandler.
func (h *ProjectHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req project.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.projectService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Project created successfully", p)
}

// Update implements ProjectHandler.
func (h *ProjectHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req project.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id

	p, err := h.projectService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project updated successfully", p)
}

// Deactivate implements ProjectHandler.
func (h *ProjectHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.projectService.Deactivate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project deactivated successfully", p)
}

// ListMembers implements ProjectHandler.
func (h *ProjectHandlerImpl) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	members, err := h.projectService.ListMembers(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, members)
}

// AssignMember implements ProjectHandler.
func (h *ProjectHandlerImpl) AssignMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req project.AssignMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProjectID = id

	member, err := h.projectService.AssignMember(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Employee assigned to project", member)
}

// UnassignMember implements ProjectHandler.
func (h *ProjectHandlerImpl) UnassignMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	employeeID, ok := idParam(w, r, "employeeID")
	if !ok {
		return
	}
	if err := h.projectService.UnassignMember(r.Context(), id, employeeID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee removed from project", nil)
}
