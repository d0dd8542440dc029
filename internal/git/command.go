// Package git provides the version-control client for keel.
// This file provides shared git command execution utilities.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// CmdRunner executes a git command in a working directory and returns its
// trimmed stdout. Implementations must honor context cancellation. Tests use
// a scripted mock; production uses ExecRunner.
type CmdRunner interface {
	Run(ctx context.Context, workDir string, args ...string) (string, error)
}

// ExecRunner runs git through the git CLI.
type ExecRunner struct{}

// NewExecRunner creates a CLI-backed CmdRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a git command in the specified directory and returns its output.
// All errors are wrapped with ErrGitOperation and include stderr for debugging.
func (*ExecRunner) Run(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(stderr.String()), keelerrors.ErrGitOperation)
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], keelerrors.ErrGitOperation)
	}

	return strings.TrimSpace(stdout.String()), nil
}
