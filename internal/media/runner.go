package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to close after
// the process has been killed.
const DefaultWaitDelay = 2 * time.Second

// RunResult is the outcome of a completed process.
type RunResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
}

// Runner executes an external command and blocks until it exits.
//
// A non-zero exit code is reported in RunResult, not as an error. An error is
// returned only when the command could not be started or was killed because
// ctx ended.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	WaitDelay time.Duration
}

// NewExecRunner returns an ExecRunner using DefaultWaitDelay.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: DefaultWaitDelay}
}

// Run starts name with args, drains stdout and stderr into memory and waits
// for it to exit. Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	err := cmd.Run()
	res := RunResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.String(),
	}

	// A process killed on deadline is a failure even if it managed to exit 0.
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}
