package printing

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// CommandResult holds the captured output of an external process
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner starts an external process and waits for it to finish.
// A process that starts and exits non-zero is not an error: the exit code is
// reported in the result. The error is reserved for spawn failures and
// context cancellation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// HideWindow suppresses the console window on Windows
	HideWindow bool
}

// NewExecRunner creates a runner that hides console windows
func NewExecRunner() *ExecRunner {
	return &ExecRunner{HideWindow: true}
}

// Run executes name with args and captures stdout and stderr
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.HideWindow {
		hideWindow(cmd)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.ExitCode = -1
			return result, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

var _ CommandRunner = (*ExecRunner)(nil)
