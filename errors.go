package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrIterationLimitExceeded is returned when a run keeps requesting tools
	// past the configured number of iterations.
	ErrIterationLimitExceeded = errors.New("iteration limit exceeded")
	// ErrCanceled is returned when the caller's context ends between iterations.
	ErrCanceled = errors.New("run canceled")
	// ErrUnknownTool marks a request naming a tool nobody can serve.
	ErrUnknownTool = errors.New("unknown tool")
)

// DecisionError reports a failed call to the reasoning service. It ends the run.
type DecisionError struct {
	Iteration int
	Err       error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("decision failed at iteration %d: %v", e.Iteration, e.Err)
}

func (e *DecisionError) Unwrap() error { return e.Err }

// ToolError describes a single failed tool invocation. The dispatcher renders
// it into the conversation instead of returning it.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("Error: %v", e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
