// Package apperror classifies workflow failures so that every layer can
// react to the kind of failure without knowing the concrete sentinel.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindInvalidRange        Kind = "INVALID_RANGE"
	KindForbidden           Kind = "FORBIDDEN"
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindInsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	KindNoApproverAvailable Kind = "NO_APPROVER_AVAILABLE"
	KindConflict            Kind = "CONFLICT"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindInternal            Kind = "INTERNAL"
)

// Error is a sentinel carrying its Kind. Domain packages declare them once
// and compare with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and a public message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the public message of the first *Error in the chain.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred"
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindInvalidRange:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindInsufficientBalance, KindNoApproverAvailable, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInput classifies a field validation failure. nil stays nil.
func InvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(KindInvalidInput, "Validation failed", err)
}
