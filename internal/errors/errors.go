// Package errors provides centralized error handling for keel.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrNotGitRepo indicates the working directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrRemoteMissing indicates the repository has no configured remote URL.
	ErrRemoteMissing = errors.New("remote url missing")

	// ErrWorkingDirDirty indicates the working directory has uncommitted changes
	// while a clean tree is required.
	ErrWorkingDirDirty = errors.New("working directory not clean")

	// ErrUpstreamMissing indicates the current branch has no upstream
	// tracking reference configured.
	ErrUpstreamMissing = errors.New("no upstream configured for current branch")

	// ErrTokenMissing indicates a required authentication token environment
	// variable is not set for an enabled release provider.
	ErrTokenMissing = errors.New("required token environment variable not set")

	// ErrInvalidVersion indicates a version string is unparseable or not
	// strictly greater than the latest released version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrVersionRequired indicates no version could be resolved and the run
	// is non-interactive, so no prompt fallback is available.
	ErrVersionRequired = errors.New("no version resolved in non-interactive mode")

	// ErrStageDirInvalid indicates a distribution stage directory resolves
	// outside the current working directory.
	ErrStageDirInvalid = errors.New("stage directory outside working directory")

	// ErrRegistryUnreachable indicates the package registry did not respond
	// within the reachability deadline.
	ErrRegistryUnreachable = errors.New("registry unreachable")

	// ErrRegistryUnauthenticated indicates the registry rejected the current
	// credentials or no user is logged in.
	ErrRegistryUnauthenticated = errors.New("not authenticated with registry")

	// ErrOTPRejected indicates the registry rejected a one-time password.
	// This is the only recoverable publish error.
	ErrOTPRejected = errors.New("one-time password rejected")

	// ErrGitOperation indicates a git command failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrGitHubOperation indicates a GitHub release operation failed.
	ErrGitHubOperation = errors.New("github operation failed")

	// ErrGitLabOperation indicates a GitLab release operation failed.
	ErrGitLabOperation = errors.New("gitlab operation failed")

	// ErrNpmOperation indicates an npm command failed during execution.
	ErrNpmOperation = errors.New("npm operation failed")

	// ErrHookFailed indicates a lifecycle hook script exited non-zero.
	ErrHookFailed = errors.New("lifecycle hook failed")

	// ErrReleaseNotCreated indicates a release URL was requested before the
	// release was created on the hosting provider.
	ErrReleaseNotCreated = errors.New("release not created")

	// ErrNotPublished indicates a package URL was requested before the
	// package was published.
	ErrNotPublished = errors.New("package not published")

	// ErrPromptCanceled indicates the user canceled an interactive prompt.
	ErrPromptCanceled = errors.New("prompt canceled by user")

	// ErrNoPromptOptions indicates that no options were provided to a menu.
	ErrNoPromptOptions = errors.New("no prompt options provided")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidGit indicates an invalid git configuration value.
	ErrConfigInvalidGit = errors.New("invalid git configuration")

	// ErrConfigInvalidNpm indicates an invalid npm configuration value.
	ErrConfigInvalidNpm = errors.New("invalid npm configuration")

	// ErrConfigInvalidDist indicates an invalid distribution configuration value.
	ErrConfigInvalidDist = errors.New("invalid distribution configuration")

	// ErrConfigInvalidHooks indicates an unknown lifecycle hook name.
	ErrConfigInvalidHooks = errors.New("invalid hooks configuration")

	// ErrInvalidIncrement indicates an unknown increment kind was specified.
	ErrInvalidIncrement = errors.New("invalid increment")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrManifestMissing indicates the package manifest file does not exist.
	ErrManifestMissing = errors.New("package manifest not found")

	// ErrCommandFailed indicates that a shell command execution failed.
	ErrCommandFailed = errors.New("command failed")
)
