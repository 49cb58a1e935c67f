package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rce-engine/analysis-worker/internal/worker"
)

func newRouter(stats func() worker.Stats, redisPing, mongoPing PingFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewHandlers("analysis-worker", "test", stats, redisPing, mongoPing))
	return r
}

func okPing(ctx context.Context) error   { return nil }
func downPing(ctx context.Context) error { return errors.New("down") }

func getJSON(t *testing.T, r *gin.Engine, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	return w.Code
}

func TestHandleHealthHealthy(t *testing.T) {
	last := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stats := func() worker.Stats {
		return worker.Stats{Processed: 42, LastAnalysis: last}
	}
	r := newRouter(stats, okPing, okPing)

	var resp Response
	code := getJSON(t, r, "/health", &resp)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "analysis-worker", resp.Service)
	assert.Equal(t, int64(42), resp.JobsProcessed)
	assert.Equal(t, "2026-08-01T12:00:00Z", resp.LastAnalysis)
	assert.Equal(t, "connected", resp.Connections["redis"])
	assert.Equal(t, "connected", resp.Connections["mongo"])
}

func TestHandleHealthDegraded(t *testing.T) {
	stats := func() worker.Stats { return worker.Stats{} }
	r := newRouter(stats, okPing, downPing)

	var resp Response
	code := getJSON(t, r, "/health", &resp)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "connected", resp.Connections["redis"])
	assert.Equal(t, "error", resp.Connections["mongo"])
	assert.Empty(t, resp.LastAnalysis)
}

func TestHandleRoot(t *testing.T) {
	stats := func() worker.Stats { return worker.Stats{} }
	r := newRouter(stats, okPing, okPing)

	var resp map[string]any
	code := getJSON(t, r, "/", &resp)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "analysis-worker", resp["service"])
}
