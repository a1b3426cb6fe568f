// Package generator runs the external text-generation backend and cleans up what it returns.
package generator

import (
	"context"
	"fmt"
	"strings"
)

// Runner produces generated text for a prompt
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// RunnerFunc adapts a plain function to Runner
type RunnerFunc func(ctx context.Context, prompt string) (string, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ProcessError is a failed generator invocation.
// Its message is the captured stderr when there is any, so callers can surface it verbatim.
type ProcessError struct {
	Stderr   string
	ExitCode int
	Message  string
	Cause    error
}

func (e *ProcessError) Error() string {
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return stderr
	}
	if e.Message != "" {
		return e.Message
	}
	if e.ExitCode >= 0 {
		return fmt.Sprintf("generator exited with code %d", e.ExitCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("failed to start generator: %v", e.Cause)
	}
	return "generator failed"
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}
