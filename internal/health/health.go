// Package health exposes the worker's read-only HTTP surface. It only reads
// counter snapshots from the consumer and pings the two external
// connections; it never mutates worker state.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rce-engine/analysis-worker/internal/worker"
)

// PingFunc checks one external connection.
type PingFunc func(ctx context.Context) error

// Response is the health check payload.
type Response struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Version       string            `json:"version"`
	Timestamp     string            `json:"timestamp"`
	JobsProcessed int64             `json:"jobs_processed"`
	LastAnalysis  string            `json:"last_analysis,omitempty"`
	Connections   map[string]string `json:"connections"`
}

// Handlers serves the health endpoints.
type Handlers struct {
	service   string
	version   string
	stats     func() worker.Stats
	redisPing PingFunc
	mongoPing PingFunc
}

// NewHandlers wires the health surface to its collaborators. stats must be
// the consumer's lock-free snapshot accessor.
func NewHandlers(service, version string, stats func() worker.Stats, redisPing, mongoPing PingFunc) *Handlers {
	return &Handlers{
		service:   service,
		version:   version,
		stats:     stats,
		redisPing: redisPing,
		mongoPing: mongoPing,
	}
}

// RegisterRoutes registers the health endpoints with the router.
//
//	GET /        - service info
//	GET /health  - health check with connection states
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/", h.HandleRoot)
	r.GET("/health", h.HandleHealth)
}

// HandleHealth handles GET /health. Returns 200 with status "healthy" when
// both connections respond, "degraded" otherwise.
func (h *Handlers) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	redisStatus := connectionStatus(ctx, h.redisPing)
	mongoStatus := connectionStatus(ctx, h.mongoPing)

	status := "healthy"
	if redisStatus != "connected" || mongoStatus != "connected" {
		status = "degraded"
	}

	s := h.stats()
	resp := Response{
		Status:        status,
		Service:       h.service,
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		JobsProcessed: s.Processed,
		Connections: map[string]string{
			"redis": redisStatus,
			"mongo": mongoStatus,
		},
	}
	if !s.LastAnalysis.IsZero() {
		resp.LastAnalysis = s.LastAnalysis.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRoot handles GET / with basic service info.
func (h *Handlers) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     h.service,
		"version":     h.version,
		"description": "Static code analysis worker",
		"endpoints": gin.H{
			"health": "GET /health",
		},
	})
}

func connectionStatus(ctx context.Context, ping PingFunc) string {
	if ping == nil {
		return "disconnected"
	}
	if err := ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
