package analysis

import (
	"errors"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
)

// SourceName is the file name snippets are parsed and run under; it shows up
// in stack traces.
const SourceName = sandbox.ScriptName

// SyntaxFault describes why a snippet failed to parse. Line and Column are
// 1-based and zero when the parser gave no position.
type SyntaxFault struct {
	Message string
	Line    int
	Column  int
}

// Located reports whether the fault carries a source position.
func (f *SyntaxFault) Located() bool {
	return f.Line > 0
}

// Validator parses snippets with goja's ECMAScript parser and then compiles
// the AST, which adds the early errors the parser alone accepts (duplicate
// lexical declarations, invalid assignment targets, strict mode violations).
type Validator struct{}

// NewValidator creates a syntax validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil for a valid snippet. It never panics: every parse or
// compile failure is converted to a SyntaxFault.
func (v *Validator) Validate(source string) (fault *SyntaxFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &SyntaxFault{Message: "parser failure"}
		}
	}()

	program, err := parser.ParseFile(nil, SourceName, source, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return parseFault(err)
	}

	if _, err := goja.CompileAST(program, false); err != nil {
		return compileFault(err)
	}
	return nil
}

func parseFault(err error) *SyntaxFault {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &SyntaxFault{
			Message: first.Message,
			Line:    first.Position.Line,
			Column:  first.Position.Column,
		}
	}

	var single *parser.Error
	if errors.As(err, &single) {
		return &SyntaxFault{
			Message: single.Message,
			Line:    single.Position.Line,
			Column:  single.Position.Column,
		}
	}

	return &SyntaxFault{Message: err.Error()}
}

func compileFault(err error) *SyntaxFault {
	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		return located(syntaxErr.CompilerError)
	}

	var refErr *goja.CompilerReferenceError
	if errors.As(err, &refErr) {
		return located(refErr.CompilerError)
	}

	return &SyntaxFault{Message: err.Error()}
}

func located(ce goja.CompilerError) *SyntaxFault {
	fault := &SyntaxFault{Message: ce.Message}
	if ce.File != nil {
		pos := ce.File.Position(ce.Offset)
		fault.Line = pos.Line
		fault.Column = pos.Column
	}
	return fault
}
