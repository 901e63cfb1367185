package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthCheck
type HealthCheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (f HealthCheckFunc) Name() string                    { return f.CheckName }
func (f HealthCheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	version string
	timeout time.Duration
	checks  []HealthCheck
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, logger *zap.Logger, checks ...HealthCheck) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		version: version,
		timeout: 2 * time.Second,
		checks:  slices.Clone(checks),
		logger:  logger,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Health handles GET /health. Any failing check answers 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: h.version, Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", check.Name()), zap.Error(err))
			resp.Checks[check.Name()] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name()] = "ok"
	}
	c.JSON(status, resp)
}
