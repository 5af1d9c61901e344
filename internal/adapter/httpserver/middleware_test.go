package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/domain"
	apperrors "github.com/Jelka-FMF/Veter/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareWithStructuredError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
		return apperrors.ValidationError("invalid input")
	})

	err := handler(c)
	require.NoError(t, err) // ErrorHandlingMiddleware handles the error, doesn't return it

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input", rec.Body.String())
}

func TestMiddlewareWithStandardError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
		return errors.New("standard error")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", rec.Body.String())
}

func TestMiddlewareWithNoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
}

func TestMiddlewarePassesEchoHTTPError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
		return echo.ErrNotFound
	})

	err := handler(c)
	assert.ErrorIs(t, err, echo.ErrNotFound)
	assert.False(t, c.Response().Committed)
}

func TestMiddlewareMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"invalid token", apperrors.InvalidToken(), http.StatusUnauthorized, "Invalid token provided"},
		{"bare invalid token sentinel", domain.ErrInvalidToken, http.StatusUnauthorized, "Invalid token provided"},
		{"conflict", apperrors.Conflict(), http.StatusConflict, "Another client connected"},
		{"wrapped conflict sentinel", errors.Join(errors.New("publisher"), domain.ErrConflict), http.StatusConflict, "Another client connected"},
		{"rate limited", apperrors.RateLimitedError("rate limit exceeded"), http.StatusTooManyRequests, "rate limit exceeded"},
		{"unavailable", apperrors.UnavailableError("too many connections"), http.StatusServiceUnavailable, "too many connections"},
		{"not found", apperrors.NotFoundError("missing"), http.StatusNotFound, "missing"},
		{"internal", apperrors.InternalError("failed", errors.New("cause")), http.StatusInternalServerError, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
				return tt.err
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestMiddlewareCountsErrorsByType(t *testing.T) {
	httpMetrics := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	mw := ErrorHandlingMiddleware(httpMetrics)

	e := echo.New()
	for i := 0; i < 2; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/state/push", nil), httptest.NewRecorder())
		require.NoError(t, mw(func(echo.Context) error { return apperrors.InvalidToken() })(c))
	}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/state/push", nil), httptest.NewRecorder())
	require.NoError(t, mw(func(echo.Context) error { return errors.New("boom") })(c))

	assert.Equal(t, 2.0, testutil.ToFloat64(httpMetrics.ErrorsTotal.WithLabelValues("unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpMetrics.ErrorsTotal.WithLabelValues("internal")))
}

func TestMiddlewareDoesNotRewriteCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(nil)(func(c echo.Context) error {
		if err := c.String(http.StatusOK, "partial"); err != nil {
			return err
		}
		return errors.New("late failure")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}
