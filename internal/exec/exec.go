// Package exec runs external collaborator processes with a deadline.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const (
	// ExitTimeout is reported when the context deadline killed the process.
	ExitTimeout = 124
	// ExitNotFound is reported when the executable could not be located.
	ExitNotFound = 127
)

// Result holds the captured output of one process run.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// TimedOut reports whether the run was stopped by its deadline.
func (r Result) TimedOut() bool { return r.ExitCode == ExitTimeout }

// NotFound reports whether the executable was missing.
func (r Result) NotFound() bool { return r.ExitCode == ExitNotFound }

// Run executes name with args in dir, capturing stdout, stderr and duration.
// A non-zero exit is returned both as ExitCode and as err.
func Run(ctx context.Context, name string, args []string, dir string) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = ExitNotFound
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = 1
	}
	return res, err
}
