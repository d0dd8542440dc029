package git

import (
	"context"
	"strings"
	"sync"
)

// MockRunner is a scriptable CmdRunner for tests. Results and errors are
// keyed by the space-joined argument list (e.g. "status --porcelain").
type MockRunner struct {
	mu sync.Mutex

	// Results maps a command key to its canned stdout.
	Results map[string]string
	// Errors maps a command key to an error to return.
	Errors map[string]error

	// Calls records every command key in execution order.
	Calls []string
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

// RanPrefix reports whether any executed command starts with the given prefix.
func (m *MockRunner) RanPrefix(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
