package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", ProductUnavailable("p1"))

	require.Equal(t, Conflict, CodeOf(err))
	require.Equal(t, ReasonProductUnavailable, ReasonOf(err))
	require.True(t, HasReason(err, ReasonProductUnavailable))
	require.True(t, Is(err, Conflict))
}

func TestCodeOfPlainError(t *testing.T) {
	err := errors.New("boom")

	require.Equal(t, Internal, CodeOf(err))
	require.Equal(t, ReasonNone, ReasonOf(err))
	require.Equal(t, "internal server error", PublicMessage(err))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		code   Code
		status int
	}{
		{InvalidInput, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Unavailable, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
		{Code("other"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			require.Equal(t, tc.status, HTTPStatus(tc.code))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Unavailable, "store unavailable", cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "store unavailable", PublicMessage(err))
	require.Contains(t, err.Error(), "connection reset")
}
