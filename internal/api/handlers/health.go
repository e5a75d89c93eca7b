package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/grpc/interceptors"
	"careerarc/internal/logging"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// Version is reported by the health endpoints; overridden at build time
var Version = "1.0.0"

var startTime = time.Now()

// probeTimeout bounds a single dependency check
const probeTimeout = 3 * time.Second

// Probe checks one dependency. A nil error means the dependency is usable.
type Probe = func(ctx context.Context) error

// HealthHandler handles GET /health. Failing optional dependencies degrade
// the reported status without failing the request.
func HealthHandler(probes map[string]Probe) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks, failed := runProbes(c.Request().Context(), probes)

		status := "healthy"
		if len(failed) > 0 {
			status = "degraded"
			logging.GetGlobalLogger().Warn("Health check degraded", map[string]interface{}{
				"request_id": middleware.RequestID(c),
				"failed":     failed,
			})
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// ReadinessHandler handles GET /health/ready and answers 503 while a
// required dependency is failing
func ReadinessHandler(required map[string]Probe) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks, failed := runProbes(c.Request().Context(), required)

		code, status := http.StatusOK, "ready"
		if len(failed) > 0 {
			code, status = http.StatusServiceUnavailable, "not_ready"
			logging.GetGlobalLogger().Warn("Readiness check failed", map[string]interface{}{
				"request_id": middleware.RequestID(c),
				"failed":     failed,
			})
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LivenessHandler handles GET /health/live
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// StatusHandler handles GET /status with gRPC call counters
func StatusHandler(grpcStats func() []interceptors.MethodStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := []interceptors.MethodStats{}
		if grpcStats != nil {
			stats = grpcStats()
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "operational",
			"version": Version,
			"uptime":  utils.FormatDuration(time.Since(startTime)),
			"grpc":    stats,
		})
	}
}

func runProbes(ctx context.Context, probes map[string]Probe) (map[string]string, []string) {
	checks := map[string]string{"api": "ok"}
	var failed []string

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for name, probe := range probes {
		if err := probe(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			failed = append(failed, name)
			continue
		}
		checks[name] = "ok"
	}
	sort.Strings(failed)
	return checks, failed
}
