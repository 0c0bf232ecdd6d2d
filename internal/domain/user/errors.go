package user

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrUserNotFound        = apperror.New(apperror.KindNotFound, "User not found")
	ErrUsernameExists      = apperror.New(apperror.KindConflict, "Username already taken")
	ErrEmployeeHasUser     = apperror.New(apperror.KindConflict, "Employee already has a login")
	ErrInvalidPasswordHash = apperror.New(apperror.KindInternal, "Stored password is not a bcrypt hash")
)
