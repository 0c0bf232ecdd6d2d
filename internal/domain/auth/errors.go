package auth

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "Invalid username or password")
	ErrAccountInactive    = apperror.New(apperror.KindForbidden, "Employee account is inactive")
	ErrInvalidToken       = apperror.New(apperror.KindUnauthorized, "Invalid or expired token")
	ErrTokenRevoked       = apperror.New(apperror.KindUnauthorized, "Token has been revoked")
)
