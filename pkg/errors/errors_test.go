package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unverified email is distinct from bad credentials", ErrEmailNotVerified, http.StatusForbidden},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"wrapped not found", fmt.Errorf("ticket 7: %w", ErrNotFound), http.StatusNotFound},
		{"feedback duplicate is a conflict", ErrFeedbackExists, http.StatusConflict},
		{"version conflict", ErrVersionConflict, http.StatusConflict},
		{"closed ticket message", ErrTicketClosed, http.StatusConflict},
		{"input", NewInvalidInputError("rating %d", 9), http.StatusUnprocessableEntity},
		{"storage size", NewStorageError(ErrFileTooLarge, "11 MB"), http.StatusRequestEntityTooLarge},
		{"storage type", NewStorageError(ErrFileTypeNotAllowed, "text/plain"), http.StatusUnsupportedMediaType},
		{"http error wins", NewHttpError(http.StatusTeapot, "x", ErrNotFound, nil), http.StatusTeapot},
		{"network", ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "email_not_verified", Code(ErrEmailNotVerified))
	assert.Equal(t, "feedback_exists", Code(ErrFeedbackExists))
	assert.Equal(t, "", Code(fmt.Errorf("other")))
}

func TestStorageErrorUnwrap(t *testing.T) {
	err := NewStorageError(ErrFileTypeNotAllowed, "detected %s", "text/plain")
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)
	assert.Contains(t, err.Error(), "text/plain")
}
