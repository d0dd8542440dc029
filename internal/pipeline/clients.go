// Package pipeline orchestrates the release: validation, version
// resolution, manifest bump, the primary release sequence, and the
// optional distribution sub-release.
package pipeline

import (
	"context"

	"github.com/mrz1836/keel/internal/git"
	"github.com/mrz1836/keel/internal/hosting"
	"github.com/mrz1836/keel/internal/npm"
)

// GitClient is the version-control surface the pipeline uses.
type GitClient interface {
	Validate(ctx context.Context) error
	LatestTag() string
	IsRootDir() bool
	RemoteURL() string
	Status(ctx context.Context) (string, error)
	Stage(ctx context.Context, files ...string) error
	StageDir(ctx context.Context, dir string) error
	Reset(ctx context.Context, files ...string) error
	Commit(ctx context.Context, version string) error
	Tag(ctx context.Context, name, version string) error
	Push(ctx context.Context) error
	Clone(ctx context.Context, url, dir string) error
	TagName(version string) string
}

// HostingClient is the shared surface of the release hosting providers.
type HostingClient interface {
	Validate(ctx context.Context) error
	SetNotes(notes string)
	Notes() string
	CreateRelease(ctx context.Context, rel hosting.Release) error
	IsReleased() bool
	ReleaseURL() string
}

// GitHubClient extends HostingClient with asset uploads.
type GitHubClient interface {
	HostingClient
	UploadAssets(ctx context.Context, tagName string, assets []string) error
}

// NpmClient is the registry surface the pipeline uses.
type NpmClient interface {
	Validate(ctx context.Context) error
	Bump(ctx context.Context, version string) error
	Publish(ctx context.Context, opts npm.PublishOptions) error
	IsPublished() bool
	Skipped() bool
	PackageURL() string
	Manifest() *npm.Manifest
}

// Clients bundles the collaborators for one target repository. A nil
// field disables that collaborator for the run.
type Clients struct {
	Git    GitClient
	GitHub GitHubClient
	GitLab HostingClient
	NPM    NpmClient
}

// ClientFactory builds a fresh Clients set bound to a directory and
// remote, used by the distribution sub-release.
type ClientFactory func(ctx context.Context, dir, remote string) (Clients, error)

// Interface guards for the concrete clients.
var (
	_ GitClient     = (*git.Client)(nil)
	_ GitHubClient  = (*hosting.GitHub)(nil)
	_ HostingClient = (*hosting.GitLab)(nil)
	_ NpmClient     = (*npm.Client)(nil)
)
