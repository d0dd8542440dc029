// Package constants defines shared constant values for keel.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
package constants

import "time"

// Application identity.
const (
	// AppName is the binary and product name.
	AppName = "keel"

	// KeelHome is the default home directory name (under $HOME).
	KeelHome = ".keel"

	// LogsDir is the subdirectory of the keel home holding log files.
	LogsDir = "logs"

	// CLILogFileName is the rotating CLI log file name.
	CLILogFileName = "keel.log"
)

// Log rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 30
	LogCompress   = true
)

// Environment variable names consumed at runtime.
const (
	// EnvKeelHome overrides the keel home directory.
	EnvKeelHome = "KEEL_HOME"

	// EnvGitHubToken is the default token variable for GitHub releases.
	EnvGitHubToken = "GITHUB_TOKEN"

	// EnvGitLabToken is the default token variable for GitLab releases.
	EnvGitLabToken = "GITLAB_TOKEN"
)

// Versioning defaults.
const (
	// BaselineVersion is assumed when no latest version can be resolved
	// and none is strictly required.
	BaselineVersion = "0.0.0"

	// DefaultTagTemplate renders the git tag name for a release.
	// ${version} is replaced with the resolved next version.
	DefaultTagTemplate = "v${version}"
)

// Timeouts.
const (
	// RegistryPingTimeout bounds the npm registry reachability probe.
	// A slower response is treated as "registry down".
	RegistryPingTimeout = 10 * time.Second

	// HookTimeout bounds a single lifecycle hook script.
	HookTimeout = 10 * time.Minute
)

// Lifecycle hook names, in pipeline order.
const (
	HookBeforeStart  = "beforeStart"
	HookBeforeBump   = "beforeBump"
	HookAfterBump    = "afterBump"
	HookBeforeStage  = "beforeStage"
	HookAfterRelease = "afterRelease"
)

// Manifest is the package manifest file whose version field is rewritten
// in place during the bump.
const Manifest = "package.json"
