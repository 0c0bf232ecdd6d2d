package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type LeaveHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	ListUnassigned(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	AssignApprover(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	ledger      leave.LeaveRequestLedger
	coordinator approval.Coordinator
}

func NewLeaveHandler(ledger leave.LeaveRequestLedger, coordinator approval.Coordinator) LeaveHandler {
	return &LeaveHandlerImpl{ledger: ledger, coordinator: coordinator}
}

func leaveFilterFromQuery(r *http.Request) leave.LeaveRequestFilter {
	q := r.URL.Query()
	return leave.LeaveRequestFilter{
		EmployeeID: queryInt64(r, "employee_id"),
		Status:     queryString(r, "status"),
		From:       queryString(r, "from"),
		To:         queryString(r, "to"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}
}

func writeLeaveList(w http.ResponseWriter, requests []leave.LeaveRequest, total int64, filter leave.LeaveRequestFilter) {
	page, limit := validator.NormalizePage(filter.Page, filter.Limit)
	list := leave.NewListLeaveRequestResponse(requests, total, page, limit)
	response.SuccessWithMeta(w, list.LeaveRequests, &response.Meta{
		Page:       list.Page,
		Limit:      list.Limit,
		TotalItems: list.TotalCount,
		TotalPages: list.TotalPages,
	})
}

// List implements LeaveHandler.
func (h *LeaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := leaveFilterFromQuery(r)
	requests, total, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeLeaveList(w, requests, total, filter)
}

// ListUnassigned implements LeaveHandler.
func (h *LeaveHandlerImpl) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	filter := leaveFilterFromQuery(r)
	requests, total, err := h.ledger.ListUnassigned(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeLeaveList(w, requests, total, filter)
}

// Get implements LeaveHandler.
func (h *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	request, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, leave.NewLeaveRequestResponse(request))
}

// Create implements LeaveHandler.
func (h *LeaveHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeaveRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	request, err := h.ledger.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave request submitted successfully", leave.NewLeaveRequestResponse(request))
}

// Edit implements LeaveHandler.
func (h *LeaveHandlerImpl) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req leave.EditLeaveRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id

	request, err := h.ledger.Edit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request updated successfully", leave.NewLeaveRequestResponse(request))
}

// Cancel implements LeaveHandler.
func (h *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	request, err := h.ledger.Cancel(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request cancelled successfully", leave.NewLeaveRequestResponse(request))
}

// AssignApprover implements LeaveHandler.
func (h *LeaveHandlerImpl) AssignApprover(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req approval.AssignApproverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.LeaveRequestID = id

	opened, err := h.coordinator.AssignApprover(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Approver assigned successfully", approval.NewApprovalRequestResponse(opened))
}
