// Package hosting publishes releases to git hosting providers.
//
// GitHub releases go through the gh CLI; GitLab releases go through the
// REST API. Both clients expose the same validate/create/url surface so
// the pipeline treats them uniformly.
package hosting

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// CmdRunner executes a gh command in a working directory and returns its
// trimmed stdout. Implementations must honor context cancellation.
type CmdRunner interface {
	Run(ctx context.Context, workDir string, args ...string) (string, error)
}

// ExecRunner runs commands through the gh CLI.
type ExecRunner struct{}

// NewExecRunner creates a CLI-backed CmdRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a gh command in the specified directory and returns its output.
// All errors are wrapped with ErrGitHubOperation and include stderr.
func (*ExecRunner) Run(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...) //#nosec G204 -- args are constructed internally, not user input
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
			return "", fmt.Errorf("gh %s failed: %s: %w", args[0], strings.TrimSpace(stderr.String()), keelerrors.ErrGitHubOperation)
		}
		return "", fmt.Errorf("gh %s failed: %w", args[0], keelerrors.ErrGitHubOperation)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// MockRunner is a scriptable CmdRunner for tests, keyed by the
// space-joined argument list.
type MockRunner struct {
	mu sync.Mutex

	Results map[string]string
	Errors  map[string]error
	Calls   []string
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Results: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// Run implements CmdRunner.
func (m *MockRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, key)
	if err, ok := m.Errors[key]; ok {
		return "", err
	}
	return m.Results[key], nil
}

// Ran reports whether a command with the given key was executed.
func (m *MockRunner) Ran(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c == key {
			return true
		}
	}
	return false
}
