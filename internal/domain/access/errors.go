package access

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrForbidden       = apperror.New(apperror.KindForbidden, "You are not allowed to perform this action")
	ErrUnauthenticated = apperror.New(apperror.KindUnauthorized, "Authentication required")
	ErrUnknownRole     = apperror.New(apperror.KindInvalidInput, "Unknown role")
)
