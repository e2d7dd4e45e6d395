package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthCheck probes one dependency.
type healthCheck struct {
	name  string
	probe func(ctx context.Context) error
}

// HealthHandler serves GET /status: 200 when every enabled dependency
// check passes, 503 otherwise.
type HealthHandler struct {
	Handler
	env     string
	timeout time.Duration
	checks  []healthCheck
	nrApp   *newrelic.Application
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	obs := s.Config.Observability

	var checks []healthCheck
	if obs.HealthCheckEnabled("database") && s.DB != nil {
		checks = append(checks, healthCheck{name: "database", probe: s.DB.Ping})
	}
	if obs.HealthCheckEnabled("redis") && s.Redis != nil {
		checks = append(checks, healthCheck{name: "redis", probe: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}

	return &HealthHandler{
		Handler: NewHandler(s),
		env:     s.Config.Primary.Env,
		timeout: obs.HealthChecks.Timeout,
		checks:  checks,
		nrApp:   s.LoggerService.GetApplication(),
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := HealthResponse{
		Status:      healthStatusHealthy,
		Timestamp:   time.Now().UTC(),
		Environment: h.env,
		Checks:      make(map[string]checkResult, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		checkStart := time.Now()
		err := check.probe(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err != nil {
			response.Status = healthStatusUnhealthy
			response.Checks[check.name] = checkResult{
				Status:       healthStatusUnhealthy,
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}

			logger.Error().Err(err).Str("check", check.name).Dur("response_time", elapsed).Msg("health check failed")

			if h.nrApp != nil {
				h.nrApp.RecordCustomEvent("HealthCheckError", map[string]any{
					"check_type":       check.name,
					"operation":        "health_check",
					"error_type":       check.name + "_unhealthy",
					"response_time_ms": elapsed.Milliseconds(),
					"error_message":    err.Error(),
				})
			}
			continue
		}

		response.Checks[check.name] = checkResult{
			Status:       healthStatusHealthy,
			ResponseTime: elapsed.String(),
		}
		logger.Debug().Str("check", check.name).Dur("response_time", elapsed).Msg("health check passed")
	}

	if response.Status != healthStatusHealthy {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}
