package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.httpMetrics.Middleware())
	s.echo.Use(ErrorHandlingMiddleware(s.httpMetrics))

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))

	s.registerChannelRoutes()
}

func (s *Server) registerChannelRoutes() {
	var connection []echo.MiddlewareFunc
	if s.options.ConnectRate > 0 {
		connection = append(connection, newRateLimiter(s.options.ConnectRate, s.options.ConnectBurst))
	}
	if s.limiter != nil {
		connection = append(connection, s.limiter.Middleware())
	}

	cors := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{echo.HeaderAuthorization},
	})

	for _, ch := range s.channels.Channels() {
		streamMiddleware := append([]echo.MiddlewareFunc{cors}, connection...)
		s.echo.GET("/"+ch.Name+"/stream", s.egress.Handler(ch), streamMiddleware...)
		s.echo.OPTIONS("/"+ch.Name+"/stream", handlePreflight, cors)
		s.echo.GET("/"+ch.Name+"/push", s.ingress.Handler(ch), connection...)
	}
}

// handlePreflight answers OPTIONS requests the CORS middleware lets through.
func handlePreflight(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
