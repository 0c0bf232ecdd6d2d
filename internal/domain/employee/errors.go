package employee

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrEmployeeNotFound        = apperror.New(apperror.KindNotFound, "Employee not found")
	ErrEmployeeInactive        = apperror.New(apperror.KindForbidden, "Employee is inactive")
	ErrEmployeeAlreadyInactive = apperror.New(apperror.KindInvalidTransition, "Employee is already inactive")
	ErrPeoplePartnerNotFound   = apperror.New(apperror.KindInvalidInput, "People partner not found")
	ErrSelfPeoplePartner       = apperror.New(apperror.KindInvalidInput, "An employee cannot be their own people partner")
	ErrNegativeBalance         = apperror.New(apperror.KindInvalidInput, "Out-of-office balance must not be negative")
	ErrUnsupportedPhoto        = apperror.New(apperror.KindInvalidInput, "Photo must be a JPEG or PNG image")
)
