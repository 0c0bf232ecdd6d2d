package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses by their kind.
// Unclassified errors are logged and reported as 500 without detail.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	}
	Fail(w, kind.HTTPStatus(), string(kind), apperror.MessageOf(err), nil)
}
