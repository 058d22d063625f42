package core

import "fmt"

// ModelRunFailedError reports a remote model run that reached a failed
// terminal state. The run is not retried automatically; the orchestrator
// decides whether to abort the goal.
type ModelRunFailedError struct {
	Reason string
}

// Error implements the error interface.
func (e *ModelRunFailedError) Error() string {
	if e.Reason == "" {
		return "model run failed"
	}
	return fmt.Sprintf("model run failed: %s", e.Reason)
}

// UnknownFunctionError reports an instruction naming a function outside the
// closed command set. It is raised when the instruction is compiled, never as
// a runtime lookup failure.
type UnknownFunctionError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

// ExecutionError wraps a failure while executing an instruction, preserving
// the original function and parameters so the operator can see exactly what
// the model attempted.
type ExecutionError struct {
	Instruction Instruction
	Err         error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Instruction.Function, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ExecutionError) Unwrap() error { return e.Err }
