// Package config provides configuration management for keel with layered
// precedence.
//
// Configuration sources are loaded in the following order (highest
// precedence first):
//  1. CLI flags (applied by the CLI layer after Load)
//  2. Environment variables (KEEL_* prefix)
//  3. Project config (.keel.yaml)
//  4. Global config (~/.keel/config.yaml)
//  5. Built-in defaults
//
// This package may import internal/constants and internal/errors, but
// MUST NOT import other internal packages.
package config

// Config is the root configuration structure for keel.
type Config struct {
	// Name overrides the project name used in hooks and release titles.
	// Empty means the package manifest name, falling back to the
	// working directory name.
	Name string `yaml:"name" mapstructure:"name"`

	// Version contains settings for next-version resolution.
	Version VersionConfig `yaml:"version" mapstructure:"version"`

	// Git contains settings for version-control operations.
	Git GitConfig `yaml:"git" mapstructure:"git"`

	// GitHub contains settings for GitHub releases.
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// GitLab contains settings for GitLab releases.
	GitLab GitLabConfig `yaml:"gitlab" mapstructure:"gitlab"`

	// Npm contains settings for registry publishing.
	Npm NpmConfig `yaml:"npm" mapstructure:"npm"`

	// Dist contains settings for the distribution sub-release.
	Dist DistConfig `yaml:"dist" mapstructure:"dist"`

	// Hooks maps lifecycle hook names (beforeStart, beforeBump,
	// afterBump, beforeStage, afterRelease) to shell commands.
	// ${name}, ${version}, ${latestVersion} and ${changelog} are
	// substituted before execution.
	Hooks map[string]string `yaml:"hooks" mapstructure:"hooks"`
}

// VersionConfig contains settings for next-version resolution.
type VersionConfig struct {
	// Strategy selects the recommendation strategy used when no
	// increment is given ("conventional"). Empty disables
	// recommendation and prompts interactively instead.
	Strategy string `yaml:"strategy" mapstructure:"strategy"`

	// PreReleaseID is the default prerelease identifier for
	// --pre-release runs without an explicit id.
	PreReleaseID string `yaml:"pre_release_id" mapstructure:"pre_release_id"`
}

// GitConfig contains settings for git operations.
type GitConfig struct {
	// Enabled toggles all git operations. Disabled still allows reads.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Commit toggles the release commit step.
	Commit bool `yaml:"commit" mapstructure:"commit"`

	// Tag toggles the release tag step.
	Tag bool `yaml:"tag" mapstructure:"tag"`

	// Push toggles the push step. Disabled keeps the release local.
	Push bool `yaml:"push" mapstructure:"push"`

	// Remote is the remote name pushed to. Default "origin".
	Remote string `yaml:"remote" mapstructure:"remote"`

	// CommitMessage is the release commit message template.
	// Default "Release ${version}".
	CommitMessage string `yaml:"commit_message" mapstructure:"commit_message"`

	// TagTemplate renders the tag name. Empty auto-detects the "v"
	// prefix from the latest tag.
	TagTemplate string `yaml:"tag_template" mapstructure:"tag_template"`

	// TagAnnotation is the annotated tag message template.
	TagAnnotation string `yaml:"tag_annotation" mapstructure:"tag_annotation"`

	// RequireCleanWorkingDir fails validation on uncommitted changes.
	RequireCleanWorkingDir bool `yaml:"require_clean_working_dir" mapstructure:"require_clean_working_dir"`

	// RequireUpstream fails validation when the branch has no upstream.
	RequireUpstream bool `yaml:"require_upstream" mapstructure:"require_upstream"`
}

// GitHubConfig contains settings for GitHub releases.
type GitHubConfig struct {
	// Enabled toggles the GitHub release step.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Draft creates the release without publishing it.
	Draft bool `yaml:"draft" mapstructure:"draft"`

	// Assets are file globs uploaded to the release.
	Assets []string `yaml:"assets" mapstructure:"assets"`
}

// GitLabConfig contains settings for GitLab releases.
type GitLabConfig struct {
	// Enabled toggles the GitLab release step.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// NpmConfig contains settings for registry publishing.
type NpmConfig struct {
	// Enabled toggles the npm publish step.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Registry overrides the publish registry url.
	Registry string `yaml:"registry" mapstructure:"registry"`

	// Tag is the dist-tag for release versions. Default "latest".
	// Prereleases use their prerelease identifier instead.
	Tag string `yaml:"tag" mapstructure:"tag"`

	// Access sets the package access level ("public"/"restricted").
	Access string `yaml:"access" mapstructure:"access"`

	// OTP is a pre-supplied one-time password, typically injected via
	// KEEL_NPM_OTP in CI.
	OTP string `yaml:"otp" mapstructure:"otp"`
}

// DistConfig contains settings for the distribution sub-release.
type DistConfig struct {
	// Enabled toggles the distribution sub-release.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Repo is the git url of the distribution repository.
	Repo string `yaml:"repo" mapstructure:"repo"`

	// StageDir is the staging directory, relative to the working
	// directory. It must resolve strictly inside it.
	StageDir string `yaml:"stage_dir" mapstructure:"stage_dir"`

	// TagTemplate overrides the tag naming for the distribution repo.
	// Empty mirrors the primary repository's decision.
	TagTemplate string `yaml:"tag_template" mapstructure:"tag_template"`
}
