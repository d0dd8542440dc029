// Package hooks runs user-configured lifecycle hook scripts.
//
// A hook is a shell command bound to a fixed point in the release pipeline
// (beforeStart, beforeBump, afterBump, beforeStage, afterRelease). Commands
// may reference ${name}, ${version}, ${latestVersion} and ${changelog};
// placeholders are substituted before execution.
package hooks

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/logging"
	"github.com/mrz1836/keel/internal/shell"
)

// Vars holds the values substituted into hook commands.
type Vars struct {
	Name          string
	Version       string
	LatestVersion string
	Changelog     string
}

// lookup resolves a placeholder name to its value.
// Unknown placeholders expand to the empty string.
func (v Vars) lookup(key string) string {
	switch key {
	case "name":
		return v.Name
	case "version":
		return v.Version
	case "latestVersion":
		return v.LatestVersion
	case "changelog":
		return v.Changelog
	default:
		return ""
	}
}

// Expand substitutes ${placeholder} references in command with values from vars.
func Expand(command string, vars Vars) string {
	return os.Expand(command, vars.lookup)
}

// Manager executes the lifecycle hooks configured for one target directory.
// The distribution sub-release creates a second Manager scoped to its
// staging directory.
type Manager struct {
	scripts map[string]string
	runner  shell.Runner
	dir     string
	logger  zerolog.Logger
}

// NewManager creates a Manager for the given script map and working directory.
func NewManager(scripts map[string]string, runner shell.Runner, dir string, logger zerolog.Logger) *Manager {
	return &Manager{
		scripts: scripts,
		runner:  runner,
		dir:     dir,
		logger:  logger,
	}
}

// Has reports whether a hook script is configured for the given name.
// This drives the Enabled flag of the forced hook steps: a forced step is
// still skipped when no script is configured at all.
func (m *Manager) Has(name string) bool {
	return m != nil && m.scripts[name] != ""
}

// Run executes the named hook with placeholders expanded.
// Running an unconfigured hook is a no-op, not an error.
func (m *Manager) Run(ctx context.Context, name string, vars Vars) error {
	script, ok := m.scripts[name]
	if !ok || script == "" {
		return nil
	}

	command := Expand(script, vars)
	m.logger.Info().
		Str("hook", name).
		Str("command", logging.FilterSensitiveValue(command)).
		Msg("running lifecycle hook")

	out, err := m.runner.Run(ctx, m.dir, command)
	if err != nil {
		return fmt.Errorf("hook %s: %w: %w", name, keelerrors.ErrHookFailed, err)
	}
	if out != "" {
		m.logger.Debug().Str("hook", name).Str("output", out).Msg("hook output")
	}
	return nil
}
