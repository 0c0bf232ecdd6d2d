package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid range", leave.ErrInvalidDateRange, http.StatusUnprocessableEntity, "INVALID_RANGE"},
		{"not found", leave.ErrLeaveRequestNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"transition", fmt.Errorf("approve: %w", approval.ErrApprovalNotPending), http.StatusConflict, "INVALID_TRANSITION"},
		{"balance", leave.ErrInsufficientBalance, http.StatusConflict, "INSUFFICIENT_BALANCE"},
		{"no approver", approval.ErrNoApproverAvailable, http.StatusConflict, "NO_APPROVER_AVAILABLE"},
		{"forbidden", approval.ErrSelfDecision, http.StatusForbidden, "FORBIDDEN"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, c.err)

			assert.Equal(t, c.status, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, c.code, body.Error.Code)
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: password authentication failed"))

	body := decode(t, rec)
	assert.Equal(t, "An unexpected error occurred", body.Error.Message)
}

func TestHandleErrorValidationDetails(t *testing.T) {
	var errs validator.ValidationErrors
	errs.Add("end_date", "end_date is required")

	rec := httptest.NewRecorder()
	HandleError(rec, apperror.InvalidInput(errs.Err()))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "end_date is required", body.Error.Details["end_date"])
}
