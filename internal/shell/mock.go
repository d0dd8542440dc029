package shell

import (
	"context"
	"sync"
)

// MockRunner is a scriptable Runner for tests. It records every command it
// receives and returns canned results keyed by exact command string.
type MockRunner struct {
	mu sync.Mutex

	// Results maps a command string to its canned output.
	Results map[string]string
	// Errors maps a command string to an error to return.
	Errors map[string]error

	// Commands records every executed command in order.
	Commands []string
	// Dirs records the working directory of each executed command.
	Dirs []string
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Results: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// Run implements Runner.
func (m *MockRunner) Run(_ context.Context, dir, command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, command)
	m.Dirs = append(m.Dirs, dir)
	if err, ok := m.Errors[command]; ok {
		return "", err
	}
	return m.Results[command], nil
}

// Ran reports whether the given command was executed.
func (m *MockRunner) Ran(command string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Commands {
		if c == command {
			return true
		}
	}
	return false
}
