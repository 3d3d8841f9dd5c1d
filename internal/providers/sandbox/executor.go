package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
)

// Executor evaluates snippets, each in its own context from the pool.
type Executor struct {
	pool    *Pool
	metrics *monitoring.Metrics
}

// NewExecutor creates an executor with a warm pool sized by config.
func NewExecutor(config Config) (*Executor, error) {
	pool, err := NewPool(config, config.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}
	return &Executor{pool: pool}, nil
}

// WithMetrics publishes pool usage after every acquire and release
func (e *Executor) WithMetrics(metrics *monitoring.Metrics) *Executor {
	e.metrics = metrics
	return e
}

// Execute evaluates source in a fresh context. The returned error is reserved
// for failures to obtain a context; snippet faults are reported in the
// Outcome. The context is torn down on every path out of this call.
func (e *Executor) Execute(ctx context.Context, source string) (*Outcome, error) {
	sb, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sandbox: %w", err)
	}
	e.publish()
	defer func() {
		e.pool.Release(sb)
		e.publish()
	}()

	var trapped *Fault
	sb.SetTrap(func(f *Fault) bool {
		if trapped == nil {
			trapped = f
		}
		return true
	})

	start := time.Now()
	thrown := sb.Eval(ctx, source)

	outcome := &Outcome{
		Console:    sb.Console(),
		DOMChanges: sb.DOMChanges(),
		Duration:   time.Since(start),
	}
	switch {
	case trapped != nil:
		outcome.Fault = trapped
	case thrown != nil:
		outcome.Fault = thrown
	}
	return outcome, nil
}

func (e *Executor) publish() {
	if e.metrics != nil {
		e.metrics.SetSandboxInUse(e.pool.InUse())
	}
}

// Stats returns pool statistics
func (e *Executor) Stats() map[string]interface{} {
	return e.pool.Stats()
}

// Close releases the pool
func (e *Executor) Close() error {
	return e.pool.Close()
}
