package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/bugfinder/internal/api/http"
	"github.com/GriffinCanCode/bugfinder/internal/api/middleware"
	"github.com/GriffinCanCode/bugfinder/internal/api/ws"
	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/bugfinder/internal/providers/assistant"
	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
	"github.com/GriffinCanCode/bugfinder/internal/providers/tips"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	executor   *sandbox.Executor
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return NewServerWithLogger(cfg, logger)
}

// NewServerWithLogger creates a server that logs through logger
func NewServerWithLogger(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing BugFinder Server",
		zap.String("port", cfg.Server.Port),
		zap.Duration("sandbox_timeout", cfg.Sandbox.Timeout),
		zap.Int("sandbox_pool", cfg.Sandbox.PoolSize),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	tracer := tracing.New("bugfinder", logger.Component("tracing"))

	executor, err := sandbox.NewExecutor(SandboxConfig(cfg))
	if err != nil {
		return nil, err
	}
	executor.WithMetrics(metrics)
	logger.Info("Sandbox pool ready", zap.Int("size", cfg.Sandbox.PoolSize))

	analyzer := analysis.NewAnalyzer(executor).
		WithMaxSourceBytes(cfg.Sandbox.MaxSourceBytes).
		WithLogger(logger.Component("analysis")).
		WithMetrics(metrics).
		WithTracer(tracer)

	asst := assistant.New(assistant.Config{
		Enabled:           cfg.Assistant.Enabled,
		BaseURL:           cfg.Assistant.BaseURL,
		APIKey:            cfg.Assistant.APIKey,
		Model:             cfg.Assistant.Model,
		Timeout:           cfg.Assistant.Timeout,
		RequestsPerSecond: cfg.Assistant.RequestsPerSecond,
	}, logger.Component("assistant")).WithMetrics(metrics)
	if asst.Enabled() {
		logger.Info("Assistant enabled", zap.String("model", cfg.Assistant.Model))
	} else {
		logger.Info("Assistant disabled; set ASSISTANT_API_KEY to enable")
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(analyzer, asst, tips.Default(), executor, metrics, logger.Component("http"))
	wsHandler := ws.NewHandler(analyzer, metrics, logger.Component("ws"))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)

	apiGroup := router.Group("/api")
	apiGroup.POST("/analyze", handlers.Analyze)
	apiGroup.GET("/analyze/stream", wsHandler.HandleConnection)
	apiGroup.POST("/assistant", handlers.Assistant)
	apiGroup.GET("/tips", handlers.Tips)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		executor: executor,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// SandboxConfig maps service configuration onto the sandbox pool.
func SandboxConfig(cfg *config.Config) sandbox.Config {
	return sandbox.Config{
		MaxCallStackSize: cfg.Sandbox.MaxCallStack,
		Timeout:          cfg.Sandbox.Timeout,
		AcquireTimeout:   cfg.Sandbox.Timeout,
		PoolSize:         cfg.Sandbox.PoolSize,
		EnableConsole:    cfg.Sandbox.EnableConsole,
		EnableDOM:        cfg.Sandbox.EnableDOM,
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A graceful Shutdown
// is not an error.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the sandbox pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.executor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("sandbox pool: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
