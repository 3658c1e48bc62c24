package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	service string
	version string
	db      Pinger
	logger  *zap.Logger
}

func NewHealthHandler(service, version string, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
		db:      db,
		logger:  logger,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	status := http.StatusOK
	body := echo.Map{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = "unreachable"
		}
	}

	return c.JSON(status, body)
}
