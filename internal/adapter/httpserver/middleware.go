package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	apperrors "github.com/Jelka-FMF/Veter/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// ErrorHandlingMiddleware writes returned errors as plain-text bodies with the
// status of their type. Echo's own HTTP errors pass through untouched.
func ErrorHandlingMiddleware(httpMetrics *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := apperrors.AsStructuredError(err)
			logError(c, structuredErr)
			if httpMetrics != nil {
				httpMetrics.ErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			}

			if c.Response().Committed {
				return nil
			}
			if err := c.String(structuredErr.HTTPStatus(), structuredErr.Message); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
		"remote_addr", c.RealIP(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound, apperrors.TypeUnauthorized:
		slog.Info("Request rejected", attrs...)
	case apperrors.TypeConflict, apperrors.TypeRateLimited, apperrors.TypeUnavailable:
		slog.Warn("Request refused", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	default:
		slog.Error("Unknown error type", attrs...)
	}
}
