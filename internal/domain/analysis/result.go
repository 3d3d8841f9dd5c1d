package analysis

import (
	"fmt"

	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
)

// Result is the outcome of one analysis run. A new Result replaces the
// previous one; nothing is kept between runs.
type Result struct {
	RunID       string             `json:"run_id"`
	Category    Category           `json:"category"`
	Message     string             `json:"message"`
	Line        int                `json:"line,omitempty"`
	Column      int                `json:"column,omitempty"`
	Location    string             `json:"location,omitempty"`
	Stack       string             `json:"stack"`
	Explanation string             `json:"explanation"`
	Hint        string             `json:"hint,omitempty"`
	Console     []sandbox.LogEntry `json:"console,omitempty"`
	DurationMS  int64              `json:"duration_ms"`
}

// Terminal reports whether the result is final rather than the interim
// Checking status.
func (r Result) Terminal() bool {
	return r.Category != CategoryChecking
}

// locate fills Line, Column and Location; unknown positions read "?".
func (r *Result) locate(line, column int) {
	if line <= 0 {
		r.Location = "?"
		return
	}
	r.Line = line
	r.Column = column
	r.Location = fmt.Sprintf("%d:%d", line, column)
}

func checkingResult(runID string) Result {
	return Result{
		RunID:       runID,
		Category:    CategoryChecking,
		Message:     CheckingMessage,
		Stack:       NoStackTrace,
		Explanation: CheckingMessage,
	}
}

func syntaxResult(runID string, fault *SyntaxFault) Result {
	r := Result{
		RunID:       runID,
		Category:    CategorySyntaxError,
		Message:     fault.Message,
		Stack:       NoStackTrace,
		Explanation: CategorySyntaxError.Explanation(),
		Hint:        Hint(CategorySyntaxError, fault.Message),
	}
	r.locate(fault.Line, fault.Column)
	return r
}

// advisoryResult mirrors the advisory into Explanation rather than looking
// up PossibleIssue in the taxonomy.
func advisoryResult(runID, advisory string) Result {
	return Result{
		RunID:       runID,
		Category:    CategoryPossibleIssue,
		Message:     advisory,
		Stack:       NoStackTrace,
		Explanation: advisory,
	}
}

func successResult(runID string, outcome *sandbox.Outcome) Result {
	return Result{
		RunID:       runID,
		Category:    CategoryNoError,
		Message:     SuccessMessage,
		Stack:       NoStackTrace,
		Explanation: SuccessExplanation,
		Console:     outcome.Console,
	}
}

func faultResult(runID string, outcome *sandbox.Outcome) Result {
	f := outcome.Fault
	category := CategoryFromName(f.Name)
	// SyntaxError is reserved for snippets that never ran; one raised while
	// running came from eval or the Function constructor.
	if category == CategorySyntaxError {
		category = CategoryEvalError
	}

	r := Result{
		RunID:       runID,
		Category:    category,
		Message:     f.Message,
		Stack:       f.Stack,
		Explanation: category.Explanation(),
		Console:     outcome.Console,
	}
	if r.Stack == "" {
		r.Stack = NoStackTrace
	}
	if f.Rejection {
		r.Hint = Lookup(KeyPromiseRejection)
	} else {
		r.Hint = Hint(category, f.Message)
	}
	r.locate(f.Line, f.Column)
	return r
}

func environmentResult(runID string, err error) Result {
	return Result{
		RunID:       runID,
		Category:    CategoryRuntimeError,
		Message:     fmt.Sprintf("%s: %v", EnvironmentFailure, err),
		Stack:       NoStackTrace,
		Explanation: CategoryRuntimeError.Explanation(),
	}
}
