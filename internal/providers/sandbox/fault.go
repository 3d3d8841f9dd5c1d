package sandbox

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// faultFromError converts an error returned by the VM into a Fault.
func faultFromError(err error) *Fault {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &Fault{
			Name:    "TimeoutError",
			Message: fmt.Sprint(interrupted.Value()),
			Stack:   interrupted.String(),
		}
	}

	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		f := &Fault{
			Name:    "RangeError",
			Message: "Maximum call stack size exceeded",
			Stack:   overflow.String(),
		}
		locate(f, overflow.Stack())
		return f
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		f := faultFromValue(ex.Value())
		if f.Stack == "" {
			f.Stack = ex.String()
		}
		locate(f, ex.Stack())
		return f
	}

	var compileErr *goja.CompilerSyntaxError
	if errors.As(err, &compileErr) {
		f := &Fault{Name: "SyntaxError", Message: compileErr.Message}
		if compileErr.File != nil {
			pos := compileErr.File.Position(compileErr.Offset)
			f.Line, f.Column = pos.Line, pos.Column
		}
		return f
	}

	return &Fault{Name: "RuntimeError", Message: err.Error()}
}

// faultFromValue reads name, message and stack from a thrown JS value.
// Non-error values keep an empty name.
func faultFromValue(val goja.Value) *Fault {
	f := &Fault{}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		f.Message = "undefined"
		if val != nil {
			f.Message = val.String()
		}
		return f
	}

	obj, ok := val.(*goja.Object)
	if !ok {
		f.Message = val.String()
		return f
	}

	f.Name = stringProp(obj, "name")
	if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
		f.Message = msg.String()
	} else {
		f.Message = obj.String()
	}
	f.Stack = stringProp(obj, "stack")
	return f
}

func stringProp(obj *goja.Object, name string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// locate takes the position of the innermost frame that belongs to the
// snippet.
func locate(f *Fault, frames []goja.StackFrame) {
	for _, frame := range frames {
		if frame.SrcName() != ScriptName {
			continue
		}
		pos := frame.Position()
		if pos.Line > 0 {
			f.Line, f.Column = pos.Line, pos.Column
			return
		}
	}
}

// panicFault converts a Go panic that escaped evaluation.
func panicFault(r interface{}) *Fault {
	f := &Fault{Name: "RuntimeError", Thrown: true}
	switch v := r.(type) {
	case error:
		f.Message = v.Error()
	default:
		f.Message = fmt.Sprint(v)
	}
	return f
}
