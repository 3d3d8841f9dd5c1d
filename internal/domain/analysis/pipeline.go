package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
)

// Stage names used for metrics and spans
const (
	StageValidate = "validate"
	StageScan     = "scan"
	StageExecute  = "execute"
)

// Executor runs a syntactically valid snippet in isolation.
type Executor interface {
	Execute(ctx context.Context, source string) (*sandbox.Outcome, error)
}

// ProgressFunc receives the interim Checking result before a run starts.
type ProgressFunc func(Result)

// Analyzer sequences validation, heuristics and sandboxed execution, stopping
// at the first definitive outcome.
type Analyzer struct {
	validator      *Validator
	scanner        *Scanner
	executor       Executor
	maxSourceBytes int
	logger         *zap.Logger
	metrics        *monitoring.Metrics
	tracer         *tracing.Tracer
}

// NewAnalyzer creates an analyzer that executes snippets with executor
func NewAnalyzer(executor Executor) *Analyzer {
	return &Analyzer{
		validator: NewValidator(),
		scanner:   NewScanner(),
		executor:  executor,
		logger:    zap.NewNop(),
	}
}

// WithScanner replaces the heuristic scanner
func (a *Analyzer) WithScanner(scanner *Scanner) *Analyzer {
	a.scanner = scanner
	return a
}

// WithMaxSourceBytes flags larger snippets as a possible issue instead of
// running them. The size check is the scanner's first check, so syntax
// errors are still reported first. Zero disables the limit.
func (a *Analyzer) WithMaxSourceBytes(n int) *Analyzer {
	a.maxSourceBytes = n
	return a
}

func (a *Analyzer) activeScanner() *Scanner {
	if a.maxSourceBytes > 0 {
		return a.scanner.With(SizeCheck(a.maxSourceBytes))
	}
	return a.scanner
}

// WithLogger adds logging
func (a *Analyzer) WithLogger(logger *zap.Logger) *Analyzer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithMetrics adds metrics tracking to the analyzer
func (a *Analyzer) WithMetrics(metrics *monitoring.Metrics) *Analyzer {
	a.metrics = metrics
	return a
}

// WithTracer records a span per stage
func (a *Analyzer) WithTracer(tracer *tracing.Tracer) *Analyzer {
	a.tracer = tracer
	return a
}

// Analyze runs the pipeline once and returns its single result.
func (a *Analyzer) Analyze(ctx context.Context, source string) Result {
	return a.AnalyzeWithProgress(ctx, source, nil)
}

// AnalyzeWithProgress is Analyze with the interim Checking status delivered
// to progress first.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, source string, progress ProgressFunc) Result {
	runID := uuid.NewString()
	start := time.Now()

	if progress != nil {
		progress(checkingResult(runID))
	}

	result := a.run(ctx, runID, source)
	elapsed := time.Since(start)
	result.DurationMS = elapsed.Milliseconds()

	if a.metrics != nil {
		a.metrics.RecordAnalysis(string(result.Category), elapsed)
	}
	a.logger.Info("Analysis complete",
		zap.String("run_id", runID),
		zap.String("category", string(result.Category)),
		zap.Int("source_bytes", len(source)),
		zap.Duration("duration", elapsed),
	)

	return result
}

func (a *Analyzer) run(ctx context.Context, runID, source string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Analysis panicked", zap.String("run_id", runID), zap.Any("panic", r))
			result = environmentResult(runID, fmt.Errorf("%v", r))
		}
	}()

	var fault *SyntaxFault
	a.stage(ctx, StageValidate, func(context.Context) {
		fault = a.validator.Validate(source)
	})
	if fault != nil {
		a.logger.Debug("Syntax validation failed", zap.String("run_id", runID), zap.String("message", fault.Message))
		return syntaxResult(runID, fault)
	}

	var check *Check
	a.stage(ctx, StageScan, func(context.Context) {
		check = a.activeScanner().Scan(source)
	})
	if check != nil {
		a.logger.Debug("Heuristic matched", zap.String("run_id", runID), zap.String("check", check.Name))
		return advisoryResult(runID, check.Advisory)
	}

	var (
		outcome *sandbox.Outcome
		err     error
	)
	a.stage(ctx, StageExecute, func(ctx context.Context) {
		outcome, err = a.executor.Execute(ctx, source)
	})
	if err != nil {
		a.logger.Warn("Sandbox unavailable", zap.String("run_id", runID), zap.Error(err))
		if a.metrics != nil {
			a.metrics.RecordSandboxError()
		}
		return environmentResult(runID, err)
	}

	if outcome.OK() {
		return successResult(runID, outcome)
	}
	a.logger.Debug("Snippet raised",
		zap.String("run_id", runID),
		zap.String("name", outcome.Fault.Name),
		zap.Bool("thrown", outcome.Fault.Thrown),
	)
	return faultResult(runID, outcome)
}

// stage times fn and wraps it in a span when a tracer is set.
func (a *Analyzer) stage(ctx context.Context, name string, fn func(context.Context)) {
	timer := monitoring.NewTimer(a.metrics, name)
	if a.tracer != nil {
		span, spanCtx := a.tracer.StartSpan(ctx, "analysis."+name)
		span.SetTag("stage", name)
		defer func() {
			span.Finish()
			a.tracer.Submit(span)
		}()
		ctx = spanCtx
	}

	fn(ctx)
	timer.Stop()
}
