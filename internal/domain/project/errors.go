package project

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrProjectNotFound       = apperror.New(apperror.KindNotFound, "Project not found")
	ErrProjectInactive       = apperror.New(apperror.KindInvalidTransition, "Project is inactive")
	ErrInvalidProjectManager = apperror.New(apperror.KindInvalidInput, "Project manager must be an active employee who can approve leave")
	ErrMemberAlreadyAssigned = apperror.New(apperror.KindConflict, "Employee is already assigned to this project")
	ErrMemberNotAssigned     = apperror.New(apperror.KindNotFound, "Employee is not assigned to this project")
	ErrInvalidProjectDates   = apperror.New(apperror.KindInvalidRange, "Project end date must not be before its start date")
	ErrManagerCannotBeMember = apperror.New(apperror.KindInvalidInput, "The project manager cannot be staffed on their own project")
)
