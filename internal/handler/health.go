package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// readinessTimeout bounds all dependency checks of one request.
const readinessTimeout = 5 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store  HealthChecker
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for cache when Redis is not configured.
func NewHealthHandler(store, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. No dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint.
// It pings all dependencies concurrently and returns 503 if any fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	deps := []*dependencyCheck{
		{name: "store", checker: h.store},
		{name: "redis", checker: h.cache},
	}

	// A plain Group: one failing check must not cancel the others.
	var g errgroup.Group
	for _, p := range deps {
		if p.checker == nil {
			p.result = "not configured"
			continue
		}
		g.Go(func() error {
			return p.run(ctx)
		})
	}

	status := "ok"
	statusCode := http.StatusOK
	if err := g.Wait(); err != nil {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(deps))
	for _, p := range deps {
		checks[p.name] = p.result
		if p.err != nil {
			h.logger.Warn("readiness_check_failed",
				slog.String("check", p.name),
				slog.String("error", p.err.Error()),
			)
		}
	}

	writeJSON(w, statusCode, HealthResponse{Status: status, Checks: checks})
}

// dependencyCheck pings one dependency. Error details are logged, not returned.
type dependencyCheck struct {
	name    string
	checker HealthChecker
	result  string
	err     error
}

func (p *dependencyCheck) run(ctx context.Context) error {
	if err := p.checker.Ping(ctx); err != nil {
		p.result = "error"
		p.err = err
		return fmt.Errorf("%s: %w", p.name, err)
	}
	p.result = "ok"
	return nil
}
