package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidToken(t *testing.T) {
	err := InvalidToken()

	assert.Equal(t, TypeUnauthorized, err.Type)
	assert.Equal(t, "Invalid token provided", err.Message)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestConflict(t *testing.T) {
	err := Conflict()

	assert.Equal(t, TypeConflict, err.Type)
	assert.Equal(t, "Another client connected", err.Message)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("upgrade failed")
	err := InternalError("failed to open stream", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "failed to open stream")
	assert.Contains(t, err.Error(), "upgrade failed")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.NotContains(t, err.Error(), "<nil>")
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ValidationError("x"), http.StatusBadRequest},
		{InvalidToken(), http.StatusUnauthorized},
		{NotFoundError("x"), http.StatusNotFound},
		{Conflict(), http.StatusConflict},
		{RateLimitedError("x"), http.StatusTooManyRequests},
		{UnavailableError("x"), http.StatusServiceUnavailable},
		{InternalError("x", nil), http.StatusInternalServerError},
		{&Error{Type: "unknown"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWithContext(t *testing.T) {
	err := ValidationError("bad").
		WithContext("channel", "state").
		WithField("header", "Authorization")

	assert.Equal(t, "state", err.Context["channel"])
	assert.Equal(t, "Authorization", err.Context["header"])
}

func TestWithContext_NilMap(t *testing.T) {
	err := &Error{Type: TypeInternal, Message: "x"}
	err.WithContext("k", "v")

	require.NotNil(t, err.Context)
	assert.Equal(t, "v", err.Context["k"])
}

func TestFromDomain(t *testing.T) {
	assert.Equal(t, TypeUnauthorized, FromDomain(domain.ErrInvalidToken).Type)
	assert.Equal(t, TypeUnauthorized, FromDomain(fmt.Errorf("gate: %w", domain.ErrInvalidToken)).Type)
	assert.Equal(t, TypeConflict, FromDomain(domain.ErrConflict).Type)
	assert.Nil(t, FromDomain(errors.New("other")))
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ValidationError("x")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))

	assert.Equal(t, TypeUnauthorized, AsStructuredError(domain.ErrInvalidToken).Type)

	plain := errors.New("boom")
	structured := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, structured.Type)
	assert.Equal(t, "internal server error", structured.Message)
	assert.ErrorIs(t, structured, plain)
}
