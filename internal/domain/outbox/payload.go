package outbox

// LeaveRequestPayload is the body of leave_request.* events.
type LeaveRequestPayload struct {
	LeaveRequestID int64   `json:"leave_request_id"`
	EmployeeID     int64   `json:"employee_id"`
	Status         string  `json:"status"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	ActorID        int64   `json:"actor_id"`
	ApproverID     *int64  `json:"approver_id,omitempty"`
	Comment        *string `json:"comment,omitempty"`
}

// ApprovalRequestPayload is the body of approval_request.* events.
type ApprovalRequestPayload struct {
	ApprovalRequestID int64   `json:"approval_request_id,omitempty"`
	LeaveRequestID    int64   `json:"leave_request_id"`
	ApproverID        int64   `json:"approver_id,omitempty"`
	RequesterID       int64   `json:"requester_id"`
	Status            string  `json:"status"`
	ActorID           int64   `json:"actor_id"`
	Comment           *string `json:"comment,omitempty"`
}
