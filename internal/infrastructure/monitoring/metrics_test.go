package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordAnalysis("NoError", time.Millisecond)

	assert.Equal(t, 1.0, value(t, a, "bugfinder_analyses_total", "NoError"))
	assert.Equal(t, 0.0, value(t, b, "bugfinder_analyses_total", "NoError"))
}

func TestRecordAnalysisSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordAnalysis("TypeError", 2*time.Millisecond)
	m.RecordAnalysis("TypeError", time.Millisecond)
	m.RecordAnalysis("NoError", time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalAnalyses)
	assert.Equal(t, int64(2), snap.Categories["TypeError"])
	assert.Equal(t, int64(1), snap.Categories["NoError"])

	// Snapshot is a copy
	snap.Categories["TypeError"] = 100
	assert.Equal(t, int64(2), m.Snapshot().Categories["TypeError"])
}

func TestWSConnections(t *testing.T) {
	m := NewMetrics()
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 1.0, value(t, m, "bugfinder_ws_connections"))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/bad", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1.0, value(t, m, "bugfinder_http_requests_total", "GET", "/ok", "200"))
	assert.Equal(t, 1.0, value(t, m, "bugfinder_http_requests_total", "GET", "/bad", "400"))
	assert.Equal(t, 1.0, value(t, m, "bugfinder_http_requests_total", "GET", "unmatched", "404"))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.TotalErrors)
}

func TestHandlerExposition(t *testing.T) {
	m := NewMetrics()
	m.RecordStage("validate", time.Millisecond)
	m.RecordSandboxError()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bugfinder_stage_duration_seconds")
	assert.Contains(t, string(body), "bugfinder_sandbox_errors_total 1")
	assert.Contains(t, string(body), "bugfinder_uptime_seconds")
}

func TestTimer(t *testing.T) {
	m := NewMetrics()
	timer := NewTimer(m, "scan")
	d := timer.Stop()

	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1.0, value(t, m, "bugfinder_stage_duration_seconds", "scan"))

	assert.NotPanics(t, func() {
		NewTimer(nil, "scan").Stop()
	})
}

// value returns the counter or gauge value, or the histogram sample count,
// of the series whose label values match in declaration order.
func value(t *testing.T, m *Metrics, name string, labels ...string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, want []string) bool {
	pairs := metric.GetLabel()
	if len(pairs) != len(want) {
		return false
	}
	// Gather sorts labels by name, so compare as sets
	have := make(map[string]int, len(pairs))
	for _, p := range pairs {
		have[p.GetValue()]++
	}
	for _, w := range want {
		if have[w] == 0 {
			return false
		}
		have[w]--
	}
	return true
}
