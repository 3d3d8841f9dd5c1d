package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const maxConsoleEntries = 500

var ErrContextClosed = errors.New("sandbox context is torn down")

// Context is an isolated execution context: a goja VM that belongs to exactly
// one evaluation. It is never reset or reused; Teardown releases it.
type Context struct {
	vm     *goja.Runtime
	config Config
	dom    *DOM
	trap   Trap
	mu     sync.Mutex

	// One proxy per element, both directions
	proxies  map[*Element]*goja.Object
	elements map[*goja.Object]*Element

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	// Rejected promises without a handler, in rejection order
	rejected []*goja.Promise

	teardownOnce sync.Once
	onTeardown   func()
}

// NewContext creates a fresh isolated context.
func NewContext(config Config) (*Context, error) {
	vm := goja.New()

	c := &Context{
		vm:       vm,
		config:   config,
		console:  []LogEntry{},
		proxies:  make(map[*Element]*goja.Object),
		elements: make(map[*goja.Object]*Element),
	}

	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}
	vm.SetPromiseRejectionTracker(c.trackRejection)

	if err := c.setupGlobals(); err != nil {
		return nil, fmt.Errorf("failed to set up globals: %w", err)
	}

	return c, nil
}

// SetTrap installs the error trap. Faults raised while no trap is installed,
// or declined by it, are returned from Eval as thrown.
func (c *Context) SetTrap(trap Trap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trap = trap
}

// Eval runs source in the context. Faults the trap accepts are not returned;
// the result is the fault that escaped it, if any.
func (c *Context) Eval(ctx context.Context, source string) (thrown *Fault) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vm == nil {
		return &Fault{Name: "RuntimeError", Message: ErrContextClosed.Error(), Thrown: true}
	}

	if c.dom != nil {
		c.dom.Seed(source)
	}

	stop := c.watch(ctx)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			thrown = panicFault(r)
		}
	}()

	if _, err := c.vm.RunScript(ScriptName, source); err != nil {
		return c.dispatch(faultFromError(err))
	}

	// The job queue has drained by now, so anything still rejected is unhandled.
	for _, p := range c.rejected {
		f := faultFromValue(p.Result())
		f.Rejection = true
		if f.Name == "" {
			f.Name = "PromiseRejection"
		}
		if escaped := c.dispatch(f); escaped != nil {
			return escaped
		}
	}

	return nil
}

// Console returns a copy of the captured console output.
func (c *Context) Console() []LogEntry {
	c.consoleMu.Lock()
	defer c.consoleMu.Unlock()
	return append([]LogEntry{}, c.console...)
}

// DOMChanges returns the DOM modifications made by the snippet.
func (c *Context) DOMChanges() []DOMChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dom == nil {
		return nil
	}
	return c.dom.GetChanges()
}

// Teardown releases the VM. It runs once; later calls do nothing.
func (c *Context) Teardown() {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		c.vm = nil
		c.dom = nil
		c.proxies = nil
		c.elements = nil
		c.trap = nil
		c.rejected = nil
		c.mu.Unlock()

		c.consoleMu.Lock()
		c.console = nil
		c.consoleMu.Unlock()

		if c.onTeardown != nil {
			c.onTeardown()
		}
	})
}

// Closed reports whether the context has been torn down.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vm == nil
}

// dispatch offers the fault to the trap and returns it back if nobody
// handled it.
func (c *Context) dispatch(f *Fault) *Fault {
	if c.trap != nil && c.trap(f) {
		return nil
	}
	f.Thrown = true
	return f
}

// watch interrupts the VM when the timeout expires or ctx is done.
func (c *Context) watch(ctx context.Context) func() {
	vm := c.vm
	done := make(chan struct{})

	var timer *time.Timer
	var expired <-chan time.Time
	if c.config.Timeout > 0 {
		timer = time.NewTimer(c.config.Timeout)
		expired = timer.C
	}

	go func() {
		select {
		case <-expired:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	return func() {
		close(done)
		if timer != nil {
			timer.Stop()
		}
		vm.ClearInterrupt()
	}
}

func (c *Context) trackRejection(p *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		c.rejected = append(c.rejected, p)
	case goja.PromiseRejectionHandle:
		for i, r := range c.rejected {
			if r == p {
				c.rejected = append(c.rejected[:i], c.rejected[i+1:]...)
				break
			}
		}
	}
}

// setupGlobals configures global objects and security
func (c *Context) setupGlobals() error {
	vm := c.vm

	// Remove host escape hatches
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if err := vm.Set("window", vm.GlobalObject()); err != nil {
		return err
	}

	if c.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, c.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers never fire; there is no event loop after the script ends.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, noop); err != nil {
			return err
		}
	}

	if c.config.EnableDOM {
		c.dom = NewDOM()
		if err := c.injectDOM(); err != nil {
			return fmt.Errorf("failed to inject DOM: %w", err)
		}
	}

	return nil
}

// makeConsoleFunc creates a console function
func (c *Context) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}

		c.consoleMu.Lock()
		if len(c.console) < maxConsoleEntries {
			c.console = append(c.console, LogEntry{
				Level:   level,
				Message: strings.Join(parts, " "),
				Time:    time.Now(),
			})
		}
		c.consoleMu.Unlock()

		return goja.Undefined()
	}
}
