/*
Package sandbox runs untrusted JavaScript snippets in isolated goja runtimes.

# Overview

Every evaluation gets its own Context: a fresh goja VM that is torn down as
soon as the evaluation returns. Contexts are never reset or reused, so one
snippet cannot observe globals left behind by another. The Pool keeps a few
contexts warm and bounds how many evaluations run at once.

Each context has:
  - CPU limits (evaluation timeout, caller cancellation via Interrupt)
  - A bounded call stack, so runaway recursion surfaces as a RangeError
  - API restrictions (require, process, module and exports removed)
  - Console capture
  - A document stub backed by a small DOM model

# Error trap

A Trap installed with SetTrap receives every uncaught exception and every
promise rejection that is still unhandled when the job queue drains.
Returning true marks the fault handled. Anything else escapes Eval as a
thrown fault, as does a Go panic raised during evaluation.

# Usage Example

	exec, err := sandbox.NewExecutor(sandbox.DefaultConfig())
	if err != nil {
		return err
	}
	defer exec.Close()

	outcome, err := exec.Execute(ctx, "null.foo")
	if err != nil {
		// no context could be acquired
	}
	if !outcome.OK() {
		fmt.Println(outcome.Fault.Name, outcome.Fault.Message)
	}

Isolation is best effort. It keeps snippets away from the host process state,
but it is not a security boundary against hostile code.
*/
package sandbox
