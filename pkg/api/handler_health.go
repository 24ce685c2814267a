package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/arclinehq/arcline/pkg/database"
)

const (
	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health (§6 "`GET /health` returns
// `{status:"ok"}`"). Only the pipeline's own store is checked — the LLM
// service and graph store are external dependencies excluded from this
// check so a downed upstream never restarts a healthy process.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := healthStatusOK
	checks := map[string]HealthCheck{}

	if _, err := database.Health(reqCtx, s.dbClient.DB()); err != nil {
		status = healthStatusUnhealthy
		checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	if len(checks) == 0 {
		checks = nil
	}
	return c.JSON(httpStatus, &HealthResponse{Status: status, Checks: checks})
}
