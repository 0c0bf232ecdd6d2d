package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type ApprovalHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	coordinator approval.Coordinator
}

func NewApprovalHandler(coordinator approval.Coordinator) ApprovalHandler {
	return &ApprovalHandlerImpl{coordinator: coordinator}
}

// List implements ApprovalHandler.
func (h *ApprovalHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := approval.ApprovalRequestFilter{
		Status:         queryString(r, "status"),
		LeaveRequestID: queryInt64(r, "leave_request_id"),
		Page:           queryInt(r, "page"),
		Limit:          queryInt(r, "limit"),
	}
	requests, total, err := h.coordinator.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]approval.ApprovalRequestResponse, 0, len(requests))
	for _, a := range requests {
		items = append(items, approval.NewApprovalRequestResponse(a))
	}
	page, limit := validator.NormalizePage(filter.Page, filter.Limit)
	response.SuccessWithMeta(w, items, &response.Meta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: validator.TotalPages(total, limit),
	})
}

// Get implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.coordinator.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, approval.NewApprovalRequestResponse(a))
}

// Approve implements ApprovalHandler. The body is optional.
func (h *ApprovalHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req approval.ApproveRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id

	a, err := h.coordinator.Approve(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request approved", approval.NewApprovalRequestResponse(a))
}

// Reject implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req approval.RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id

	a, err := h.coordinator.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request rejected", approval.NewApprovalRequestResponse(a))
}
