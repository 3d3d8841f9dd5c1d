package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
)

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	Timestamp         time.Time              `json:"timestamp"`
	TotalRequests     int64                  `json:"total_requests"`
	ErrorRate         float64                `json:"error_rate"`
	TotalAnalyses     int64                  `json:"total_analyses"`
	Categories        map[string]int64       `json:"categories"`
	ActiveConnections int64                  `json:"active_connections"`
	UptimeSeconds     float64                `json:"uptime_seconds"`
	Sandbox           map[string]interface{} `json:"sandbox,omitempty"`
}

// MetricsJSON returns a JSON summary of the collected metrics
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, summarize(h.metrics.Snapshot(), h.pool))
}

func summarize(snap monitoring.Snapshot, pool PoolStats) MetricsSummary {
	var errorRate float64
	if snap.TotalRequests > 0 {
		errorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}

	summary := MetricsSummary{
		Timestamp:         time.Now(),
		TotalRequests:     snap.TotalRequests,
		ErrorRate:         errorRate,
		TotalAnalyses:     snap.TotalAnalyses,
		Categories:        snap.Categories,
		ActiveConnections: snap.ActiveConnections,
		UptimeSeconds:     snap.UptimeSeconds,
	}
	if pool != nil {
		summary.Sandbox = pool.Stats()
	}
	return summary
}
