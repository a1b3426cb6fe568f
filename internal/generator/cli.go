package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed
const waitDelay = 5 * time.Second

// CLIRunner invokes a command-line tool once per prompt.
// The prompt is passed as the final argument, never on stdin.
type CLIRunner struct {
	Command string
	Args    []string
	Dir     string
}

// NewCLIRunner creates a CLIRunner
func NewCLIRunner(command string, args []string, dir string) *CLIRunner {
	return &CLIRunner{
		Command: command,
		Args:    slices.Clone(args),
		Dir:     dir,
	}
}

// Run spawns the tool and resolves when it exits, returning its full stdout
func (r *CLIRunner) Run(ctx context.Context, prompt string) (string, error) {
	args := append(slices.Clone(r.Args), prompt)

	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			msg := "generator canceled"
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				msg = "generator timed out"
			}
			return "", &ProcessError{
				ExitCode: -1,
				Message:  msg,
				Cause:    ctxErr,
			}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			processErr := &ProcessError{
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
				Cause:    err,
			}
			// killed by a signal
			if processErr.ExitCode == -1 {
				processErr.Message = fmt.Sprintf("generator terminated: %v", exitErr)
			}
			return "", processErr
		}

		return "", &ProcessError{
			Stderr:   stderr.String(),
			ExitCode: -1,
			Message:  fmt.Sprintf("failed to start generator: %v", err),
			Cause:    err,
		}
	}

	return stdout.String(), nil
}
