package config

import (
	"path/filepath"
	"strings"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
)

// hookNames are the recognized lifecycle hook keys.
var hookNames = map[string]struct{}{
	constants.HookBeforeStart:  {},
	constants.HookBeforeBump:   {},
	constants.HookAfterBump:    {},
	constants.HookBeforeStage:  {},
	constants.HookAfterRelease: {},
}

// canonicalHookName maps a case-folded hook key to its canonical spelling.
// Viper lowercases map keys when reading config files, so hook names
// arrive as "beforestart"; normalization restores the documented casing.
var canonicalHookName = func() map[string]string {
	m := make(map[string]string, len(hookNames))
	for name := range hookNames {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// NormalizeHooks rewrites hook keys to their canonical casing. Unknown
// names pass through untouched for Validate to reject.
func NormalizeHooks(hooks map[string]string) map[string]string {
	if len(hooks) == 0 {
		return hooks
	}
	out := make(map[string]string, len(hooks))
	for name, command := range hooks {
		if canonical, ok := canonicalHookName[strings.ToLower(name)]; ok {
			out[canonical] = command
			continue
		}
		out[name] = command
	}
	return out
}

// Validate checks the configuration for invalid or inconsistent values
// and returns the first failure found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateGitConfig(&cfg.Git); err != nil {
		return err
	}
	if err := validateNpmConfig(&cfg.Npm); err != nil {
		return err
	}
	if err := validateDistConfig(&cfg.Dist); err != nil {
		return err
	}
	return validateHooks(cfg.Hooks)
}

func validateGitConfig(cfg *GitConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Remote) == "" {
		return errors.Wrap(errors.ErrConfigInvalidGit, "git.remote must not be empty")
	}
	return nil
}

func validateNpmConfig(cfg *NpmConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Tag) == "" {
		return errors.Wrap(errors.ErrConfigInvalidNpm, "npm.tag must not be empty")
	}
	if cfg.Registry != "" && !strings.HasPrefix(cfg.Registry, "http://") && !strings.HasPrefix(cfg.Registry, "https://") {
		return errors.Wrapf(errors.ErrConfigInvalidNpm, "npm.registry must be an http(s) url, got %q", cfg.Registry)
	}
	if cfg.Access != "" && cfg.Access != "public" && cfg.Access != "restricted" {
		return errors.Wrapf(errors.ErrConfigInvalidNpm, "npm.access must be public or restricted, got %q", cfg.Access)
	}
	return nil
}

func validateDistConfig(cfg *DistConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Repo) == "" {
		return errors.Wrap(errors.ErrConfigInvalidDist, "dist.repo must not be empty")
	}
	stage := strings.TrimSpace(cfg.StageDir)
	if stage == "" {
		return errors.Wrap(errors.ErrConfigInvalidDist, "dist.stage_dir must not be empty")
	}
	if filepath.IsAbs(stage) {
		return errors.Wrapf(errors.ErrConfigInvalidDist, "dist.stage_dir must be relative, got %q", stage)
	}
	return nil
}

func validateHooks(hooks map[string]string) error {
	for name := range hooks {
		if _, ok := hookNames[name]; !ok {
			return errors.Wrapf(errors.ErrConfigInvalidHooks, "unknown hook %q", name)
		}
	}
	return nil
}
