package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// This single source of truth ensures UserMessage and Actionable stay in sync.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Preconditions
	// ===================
	{
		err: ErrNotGitRepo,
		info: ErrorInfo{
			Message: "This command must be run from within a git repository.",
			Action:  "Navigate to a git repository or run 'git init' to create one.",
		},
	},
	{
		err: ErrRemoteMissing,
		info: ErrorInfo{
			Message: "The repository has no remote url configured.",
			Action:  "Add one with 'git remote add origin <url>'.",
		},
	},
	{
		err: ErrWorkingDirDirty,
		info: ErrorInfo{
			Message: "The working directory has uncommitted changes.",
			Action:  "Commit or stash your changes before releasing, or set git.require_clean_working_dir: false.",
		},
	},
	{
		err: ErrUpstreamMissing,
		info: ErrorInfo{
			Message: "The current branch has no upstream tracking reference.",
			Action:  "Set one with 'git push --set-upstream origin <branch>'.",
		},
	},
	{
		err: ErrTokenMissing,
		info: ErrorInfo{
			Message: "A required token environment variable is not set.",
			Action:  "Export the token named in the error, or disable the provider.",
		},
	},

	// ===================
	// Versioning
	// ===================
	{
		err: ErrInvalidVersion,
		info: ErrorInfo{
			Message: "The resolved version is invalid or does not increase the latest version.",
			Action:  "Pass an explicit semantic version or a valid increment (patch, minor, major).",
		},
	},
	{
		err: ErrVersionRequired,
		info: ErrorInfo{
			Message: "No next version could be resolved.",
			Action:  "Pass an increment argument, or run interactively to pick one.",
		},
	},
	{
		err: ErrInvalidIncrement,
		info: ErrorInfo{
			Message: "The increment is not a known bump kind, strategy, or version literal.",
			Action:  "Use patch, minor, major, prerelease, conventional, or an explicit version.",
		},
	},

	// ===================
	// Git & hosting
	// ===================
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "Git operation failed. Check your repository state.",
			Action:  "Ensure you have a clean git state and proper permissions.",
		},
	},
	{
		err: ErrGitHubOperation,
		info: ErrorInfo{
			Message: "GitHub release operation failed.",
			Action:  "Verify GITHUB_TOKEN is set and has required repository permissions.",
		},
	},
	{
		err: ErrGitLabOperation,
		info: ErrorInfo{
			Message: "GitLab release operation failed.",
			Action:  "Verify GITLAB_TOKEN is set and has api scope for the project.",
		},
	},
	{
		err: ErrReleaseNotCreated,
		info: ErrorInfo{
			Message: "The release has not been created on the hosting provider yet.",
			Action:  "",
		},
	},

	// ===================
	// Publish & registry
	// ===================
	{
		err: ErrNpmOperation,
		info: ErrorInfo{
			Message: "npm command failed.",
			Action:  "Check the npm output above for details.",
		},
	},
	{
		err: ErrRegistryUnreachable,
		info: ErrorInfo{
			Message: "The package registry did not respond in time.",
			Action:  "Check your network connection and the configured registry url.",
		},
	},
	{
		err: ErrRegistryUnauthenticated,
		info: ErrorInfo{
			Message: "You are not authenticated with the package registry.",
			Action:  "Run 'npm login' or check your npm token.",
		},
	},
	{
		err: ErrOTPRejected,
		info: ErrorInfo{
			Message: "The one-time password was incorrect or expired.",
			Action:  "Retry with a fresh code from your authenticator.",
		},
	},
	{
		err: ErrNotPublished,
		info: ErrorInfo{
			Message: "The package has not been published yet.",
			Action:  "",
		},
	},

	// ===================
	// Distribution
	// ===================
	{
		err: ErrStageDirInvalid,
		info: ErrorInfo{
			Message: "The distribution stage directory resolves outside the working directory.",
			Action:  "Use a relative stage directory inside the project, e.g. dist.stage_dir: .stage.",
		},
	},

	// ===================
	// Hooks & commands
	// ===================
	{
		err: ErrHookFailed,
		info: ErrorInfo{
			Message: "A lifecycle hook script failed.",
			Action:  "Run the hook command manually to debug, then retry the release.",
		},
	},
	{
		err: ErrCommandFailed,
		info: ErrorInfo{
			Message: "A shell command failed.",
			Action:  "Check the command output above for details.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "Configuration file not found.",
			Action:  "Create a .keel.yaml file in your project root.",
		},
	},
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure .keel.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidGit,
		info: ErrorInfo{
			Message: "Invalid git configuration.",
			Action:  "Check the 'git' section in .keel.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidNpm,
		info: ErrorInfo{
			Message: "Invalid npm configuration.",
			Action:  "Check the 'npm' section in .keel.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidDist,
		info: ErrorInfo{
			Message: "Invalid distribution configuration.",
			Action:  "Check the 'dist' section in .keel.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidHooks,
		info: ErrorInfo{
			Message: "Invalid hooks configuration.",
			Action:  "Use beforeStart, beforeBump, afterBump, beforeStage, or afterRelease.",
		},
	},
	{
		err: ErrManifestMissing,
		info: ErrorInfo{
			Message: "The package manifest file was not found.",
			Action:  "Run from the package root, or disable npm with --no-npm.",
		},
	},

	// ===================
	// User interaction
	// ===================
	{
		err: ErrPromptCanceled,
		info: ErrorInfo{
			Message: "Operation was canceled.",
			Action:  "",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was not provided.",
			Action:  "Provide the required value and try again.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
// Built once from errorInfoEntries during package initialization.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

// buildErrorInfoMap creates a map from the errorInfoEntries slice.
// This is called once during package init for O(1) direct lookups.
func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	// Fast path: O(1) lookup for direct sentinel errors
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Slow path: errors.Is() for wrapped errors
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// IsKnown reports whether err maps to a sentinel with a user-facing message.
// The orchestrator uses this to decide between a friendly message and a raw
// diagnostic when a run fails.
func IsKnown(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := errorInfoMap[err]; ok {
		return true
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return true
		}
	}
	return false
}

// UserMessage returns a user-friendly message for common errors.
// This function maps sentinel errors to helpful, actionable messages
// that are suitable for display to end users.
//
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that are not recoverable or have no clear action, the action
// string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
