package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bugfinder/internal/providers/assistant"
	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
	"github.com/GriffinCanCode/bugfinder/internal/providers/tips"
)

type fakeAsker struct {
	answer  string
	err     error
	enabled bool
}

func (f *fakeAsker) Ask(ctx context.Context, req assistant.Request) (*assistant.Answer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, assistant.ErrEmptyQuestion
	}
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Answer{Answer: f.answer}, nil
}

func (f *fakeAsker) Enabled() bool        { return f.enabled }
func (f *fakeAsker) BreakerState() string { return "closed" }

func setupRouter(t *testing.T, asker Asker) (*gin.Engine, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	executor, err := sandbox.NewExecutor(sandbox.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = executor.Close() })

	metrics := monitoring.NewMetrics()
	analyzer := analysis.NewAnalyzer(executor).WithMetrics(metrics)
	h := NewHandlers(analyzer, asker, tips.Default(), executor, metrics, nil)

	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics/json", h.MetricsJSON)
	router.POST("/api/analyze", h.Analyze)
	router.POST("/api/assistant", h.Assistant)
	router.GET("/api/tips", h.Tips)
	return router, metrics
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	router, _ := setupRouter(t, &fakeAsker{})

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ServiceName)
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, &fakeAsker{enabled: true})

	w := do(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "sandbox")

	asst := body["assistant"].(map[string]interface{})
	assert.Equal(t, true, asst["enabled"])
	assert.Equal(t, "closed", asst["breaker"])
}

func TestAnalyze(t *testing.T) {
	router, _ := setupRouter(t, &fakeAsker{})

	tests := []struct {
		name     string
		body     string
		status   int
		category analysis.Category
	}{
		{name: "clean snippet", body: `{"code":"const a = 5; console.log(a);"}`, status: http.StatusOK, category: analysis.CategoryNoError},
		{name: "syntax error", body: `{"code":"function f( {"}`, status: http.StatusOK, category: analysis.CategorySyntaxError},
		{name: "heuristic", body: `{"code":"JSON.parse(\"{}\")"}`, status: http.StatusOK, category: analysis.CategoryPossibleIssue},
		{name: "runtime error", body: `{"code":"let o = null; o.x;"}`, status: http.StatusOK, category: analysis.CategoryTypeError},
		{name: "empty snippet runs", body: `{"code":""}`, status: http.StatusOK, category: analysis.CategoryNoError},
		{name: "missing code", body: `{}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"code":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/analyze", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, w.Body.String(), "error")
				return
			}

			var result analysis.Result
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.category, result.Category)
			assert.NotEmpty(t, result.RunID)
			assert.True(t, result.Terminal())
		})
	}
}

func TestAssistant(t *testing.T) {
	tests := []struct {
		name   string
		asker  *fakeAsker
		body   string
		status int
		want   string
	}{
		{name: "answer", asker: &fakeAsker{answer: "Use const."}, body: `{"question":"style?"}`, status: http.StatusOK, want: "Use const."},
		{name: "empty question", asker: &fakeAsker{}, body: `{"question":"  "}`, status: http.StatusBadRequest, want: "question is required"},
		{name: "disabled", asker: &fakeAsker{err: assistant.ErrDisabled}, body: `{"question":"hi"}`, status: http.StatusServiceUnavailable, want: "not configured"},
		{name: "upstream failure", asker: &fakeAsker{err: errors.New("assistant request: timeout")}, body: `{"question":"hi"}`, status: http.StatusBadGateway, want: "timeout"},
		{name: "malformed", asker: &fakeAsker{}, body: `[`, status: http.StatusBadRequest, want: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.asker)
			w := do(router, http.MethodPost, "/api/assistant", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestTips(t *testing.T) {
	router, _ := setupRouter(t, &fakeAsker{})

	w := do(router, http.MethodGet, "/api/tips", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []tips.Tip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, tips.Default().Len())
	assert.NotEmpty(t, list[0].Title)
	assert.NotEmpty(t, list[0].Description)
}

func TestMetricsJSON(t *testing.T) {
	router, _ := setupRouter(t, &fakeAsker{})

	do(router, http.MethodPost, "/api/analyze", `{"code":"1 + 1"}`)

	w := do(router, http.MethodGet, "/metrics/json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary MetricsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(1), summary.TotalAnalyses)
	assert.Equal(t, int64(1), summary.Categories[string(analysis.CategoryNoError)])
	assert.NotNil(t, summary.Sandbox)
}
