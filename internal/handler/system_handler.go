package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dojocal/scheduler-api/internal/service"
	"github.com/dojocal/scheduler-api/pkg/response"
)

// Probe checks one dependency for readiness.
type Probe func(ctx context.Context) error

type purgeRunner interface {
	RunOnce(ctx context.Context) (int64, error)
}

// SystemHandler exposes health, readiness, metrics and maintenance endpoints.
type SystemHandler struct {
	metrics *service.MetricsService
	probes  map[string]Probe
	purge   purgeRunner
}

// NewSystemHandler constructs a system handler.
func NewSystemHandler(metrics *service.MetricsService, probes map[string]Probe, purge purgeRunner) *SystemHandler {
	return &SystemHandler{metrics: metrics, probes: probes, purge: purge}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *SystemHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether every dependency answers.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

// Purge godoc
// @Summary Remove expired events now
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/purge [post]
func (h *SystemHandler) Purge(c *gin.Context) {
	if h.purge == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	n, err := h.purge.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"purged": n})
}
