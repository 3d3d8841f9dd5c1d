package sandbox

import (
	"context"
	"fmt"
	"time"
)

// ScriptName is the source name snippets run under.
const ScriptName = "snippet.js"

// Config defines sandbox configuration
type Config struct {
	MaxCallStackSize int           // JS call depth before a RangeError
	Timeout          time.Duration // Evaluation budget, zero disables the abort
	AcquireTimeout   time.Duration // How long Acquire waits for a free slot
	PoolSize         int           // Warm contexts and concurrent evaluations
	EnableConsole    bool          // Capture console.log/info/warn/error/debug
	EnableDOM        bool          // Install the document stub
}

// Fault is an error raised by a snippet. Line and Column are 1-based and zero
// when no position was available.
type Fault struct {
	Name      string
	Message   string
	Line      int
	Column    int
	Stack     string
	Thrown    bool // escaped the trap instead of being handled by it
	Rejection bool // came from a promise rejection nobody handled
}

func (f *Fault) Error() string {
	if f.Name == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Message)
}

// Trap receives uncaught faults. Returning true marks the fault handled.
type Trap func(*Fault) bool

// Outcome holds execution result
type Outcome struct {
	Fault      *Fault        // nil when the snippet ran to completion
	Console    []LogEntry    // Console output
	DOMChanges []DOMChange   // DOM modifications
	Duration   time.Duration // Execution time
}

// OK reports whether the snippet ran without a fault.
func (o *Outcome) OK() bool {
	return o.Fault == nil
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// DOMChange represents a DOM modification
type DOMChange struct {
	Type     string `json:"type"`     // set_attribute, set_text, set_html
	Selector string `json:"selector"` // #id or tag name of the element
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Sandbox defines the JavaScript execution interface
type Sandbox interface {
	Execute(ctx context.Context, source string) (*Outcome, error)
	Stats() map[string]interface{}
	Close() error
}

// DefaultConfig returns the default sandbox configuration.
func DefaultConfig() Config {
	return Config{
		MaxCallStackSize: 1024,
		Timeout:          5 * time.Second,
		AcquireTimeout:   5 * time.Second,
		PoolSize:         4,
		EnableConsole:    true,
		EnableDOM:        true,
	}
}
