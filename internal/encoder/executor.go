// Package encoder invokes the external texconv-compatible encoder binary
// that performs the actual pixel re-encoding.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Executor runs encoder processes
type Executor interface {
	RunWithOutput(ctx context.Context, cmd string, args []string) ([]byte, error)
}

// Failure reports a non-zero exit or timeout from the external encoder.
// It is a per-file error; the batch continues.
type Failure struct {
	Input   string
	Timeout bool
	Err     error
}

func (f *Failure) Error() string {
	if f.Timeout {
		return fmt.Sprintf("encoder timed out on %s", f.Input)
	}
	return fmt.Sprintf("encoder failed on %s: %v", f.Input, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsTimeout reports whether err is an encoder timeout.
func IsTimeout(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Timeout
}

// DefaultExecutor implements Executor using os/exec
type DefaultExecutor struct {
	env    []string
	logger *slog.Logger
	dryRun bool
}

// NewExecutor creates a new command executor
func NewExecutor(logger *slog.Logger, dryRun bool) *DefaultExecutor {
	return &DefaultExecutor{
		env:    os.Environ(),
		logger: logger,
		dryRun: dryRun,
	}
}

// RunWithOutput executes a command and returns its combined output
func (e *DefaultExecutor) RunWithOutput(ctx context.Context, cmd string, args []string) ([]byte, error) {
	e.logger.Debug("executing encoder",
		"cmd", cmd,
		"args", args,
	)

	if e.dryRun {
		fmt.Printf("[dry-run] %s %s\n", cmd, strings.Join(args, " "))
		return nil, nil
	}

	c := exec.CommandContext(ctx, cmd, args...)
	c.Env = e.env

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// SetEnv adds or updates an environment variable
func (e *DefaultExecutor) SetEnv(key, value string) {
	prefix := key + "="
	newEnv := make([]string, 0, len(e.env)+1)
	for _, env := range e.env {
		if !strings.HasPrefix(env, prefix) {
			newEnv = append(newEnv, env)
		}
	}
	newEnv = append(newEnv, prefix+value)
	e.env = newEnv
}
