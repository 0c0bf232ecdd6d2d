package approval

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrApprovalRequestNotFound = apperror.New(apperror.KindNotFound, "Approval request not found")
	ErrApprovalNotPending      = apperror.New(apperror.KindInvalidTransition, "Approval request has already been decided or closed")
	ErrApprovalAlreadyOpen     = apperror.New(apperror.KindInvalidTransition, "Leave request already has an open approval request")
	ErrRejectCommentRequired   = apperror.New(apperror.KindInvalidInput, "A comment is required when rejecting")
	ErrNoApproverAvailable     = apperror.New(apperror.KindNoApproverAvailable, "No approver could be resolved for this leave request")
	ErrInvalidApprover         = apperror.New(apperror.KindInvalidInput, "Approver must be an active employee who can approve leave")
	ErrSelfDecision            = apperror.New(apperror.KindForbidden, "You cannot decide your own leave request")
)
