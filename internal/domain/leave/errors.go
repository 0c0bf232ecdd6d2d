package leave

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound   = apperror.New(apperror.KindNotFound, "Leave request not found")
	ErrInvalidDateRange       = apperror.New(apperror.KindInvalidRange, "End date must not be before start date")
	ErrRequesterInactive      = apperror.New(apperror.KindForbidden, "Inactive employees cannot request leave")
	ErrLeaveRequestNotPending = apperror.New(apperror.KindInvalidTransition, "Leave request is no longer pending")
	ErrInsufficientBalance    = apperror.New(apperror.KindInsufficientBalance, "Insufficient out-of-office balance")
	ErrInvalidOutcome         = apperror.New(apperror.KindInvalidInput, "Unknown decision outcome")
)
