package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	errNotPending := New(KindInvalidTransition, "not pending")
	wrapped := fmt.Errorf("approve: %w", errNotPending)

	assert.Equal(t, KindInvalidTransition, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, errNotPending))
	assert.True(t, Is(wrapped, KindInvalidTransition))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindConflict, "duplicate username", cause)

	assert.Equal(t, "duplicate username: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "duplicate username", MessageOf(fmt.Errorf("create: %w", err)))
	assert.Equal(t, "An unexpected error occurred", MessageOf(cause))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, http.StatusUnprocessableEntity},
		{KindInvalidRange, http.StatusUnprocessableEntity},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidTransition, http.StatusConflict},
		{KindInsufficientBalance, http.StatusConflict},
		{KindNoApproverAvailable, http.StatusConflict},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.kind.HTTPStatus(); got != c.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", c.kind, got, c.want)
		}
	}
}
