package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bugfinder/internal/providers/assistant"
	"github.com/GriffinCanCode/bugfinder/internal/providers/tips"
)

// Service identity reported by Root
const (
	ServiceName    = "BugFinder Service (Go)"
	ServiceVersion = "1.0.0"
)

// Analyzer runs a snippet through the bug-finding pipeline
type Analyzer interface {
	Analyze(ctx context.Context, source string) analysis.Result
}

// Asker answers developer questions
type Asker interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Answer, error)
	Enabled() bool
	BreakerState() string
}

// PoolStats reports sandbox pool usage
type PoolStats interface {
	Stats() map[string]interface{}
}

// AnalyzeRequest is the body of POST /api/analyze. Code is a pointer so an
// absent field can be told apart from an empty snippet.
type AnalyzeRequest struct {
	Code *string `json:"code"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	analyzer  Analyzer
	assistant Asker
	tips      *tips.Catalog
	pool      PoolStats
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	analyzer Analyzer,
	asker Asker,
	catalog *tips.Catalog,
	pool PoolStats,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		analyzer:  analyzer,
		assistant: asker,
		tips:      catalog,
		pool:      pool,
		metrics:   metrics,
		logger:    logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"assistant": gin.H{
			"enabled": h.assistant.Enabled(),
			"breaker": h.assistant.BreakerState(),
		},
	}
	if h.pool != nil {
		resp["sandbox"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// Analyze checks a snippet and returns a single terminal result
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Code == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result := h.analyzer.Analyze(c.Request.Context(), *req.Code)
	c.JSON(http.StatusOK, result)
}

// Assistant forwards a question to the completion service
func (h *Handlers) Assistant(c *gin.Context) {
	var req assistant.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	answer, err := h.assistant.Ask(c.Request.Context(), req)
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, assistant.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Warn("Assistant failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, answer)
	}
}

// Tips returns the coding tips in display order
func (h *Handlers) Tips(c *gin.Context) {
	c.JSON(http.StatusOK, h.tips.All())
}
