// Package shell provides shell command execution for lifecycle hooks.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Runner defines execution of a user-configured shell command.
// Implementations must honor context cancellation.
type Runner interface {
	// Run executes command with the shell in dir and returns trimmed stdout.
	Run(ctx context.Context, dir, command string) (string, error)
}

// ExecRunner runs commands through `sh -c`.
type ExecRunner struct{}

// NewExecRunner creates a shell-backed Runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns its trimmed stdout.
// Failures are wrapped with ErrCommandFailed and include stderr for debugging.
func (r *ExecRunner) Run(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //#nosec G204 -- hook commands come from the user's own config
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%q: %s: %w", command, strings.TrimSpace(stderr.String()), keelerrors.ErrCommandFailed)
		}
		return "", fmt.Errorf("%q: %w", command, keelerrors.ErrCommandFailed)
	}

	return strings.TrimSpace(stdout.String()), nil
}
