package hosting

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Release describes one hosted release to create.
type Release struct {
	// TagName is the existing git tag the release points at.
	TagName string
	// Name is the release title, usually "Release <version>".
	Name string
	// Notes is the markdown release body.
	Notes string
	// PreRelease marks the release as a prerelease.
	PreRelease bool
	// Draft creates the release without publishing it.
	Draft bool
}

// GitHub creates releases through the gh CLI. The CLI resolves the target
// repository from the working directory's remote.
type GitHub struct {
	runner CmdRunner
	dir    string
	logger zerolog.Logger

	lookupEnv func(string) (string, bool)

	notes      string
	released   bool
	releaseURL string
}

// NewGitHub creates a GitHub client for the given repository directory.
func NewGitHub(runner CmdRunner, dir string, logger zerolog.Logger) *GitHub {
	return &GitHub{
		runner:    runner,
		dir:       dir,
		logger:    logger,
		lookupEnv: os.LookupEnv,
	}
}

// Validate fails when no GitHub token is available in the environment.
func (g *GitHub) Validate(_ context.Context) error {
	if token, ok := g.lookupEnv(constants.EnvGitHubToken); !ok || token == "" {
		return fmt.Errorf("%w: %s", keelerrors.ErrTokenMissing, constants.EnvGitHubToken)
	}
	return nil
}

// SetNotes stores the release notes used by the next CreateRelease and
// returned by Notes for the interactive preview.
func (g *GitHub) SetNotes(notes string) { g.notes = notes }

// Notes returns the pending release notes.
func (g *GitHub) Notes() string { return g.notes }

// CreateRelease creates the GitHub release for rel.TagName. Empty
// rel.Notes falls back to the stored notes.
func (g *GitHub) CreateRelease(ctx context.Context, rel Release) error {
	notes := rel.Notes
	if notes == "" {
		notes = g.notes
	}

	args := []string{"release", "create", rel.TagName, "--title", rel.Name, "--notes", notes}
	if rel.PreRelease {
		args = append(args, "--prerelease")
	}
	if rel.Draft {
		args = append(args, "--draft")
	}

	if _, err := g.runner.Run(ctx, g.dir, args...); err != nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrReleaseNotCreated, err)
	}

	url, err := g.runner.Run(ctx, g.dir, "release", "view", rel.TagName, "--json", "url", "--jq", ".url")
	if err != nil {
		// The release exists; a missing url only degrades logging.
		g.logger.Warn().Err(err).Str("tag", rel.TagName).Msg("could not resolve release url")
	}
	g.releaseURL = url
	g.released = true
	return nil
}

// UploadAssets attaches files to an existing release.
func (g *GitHub) UploadAssets(ctx context.Context, tagName string, assets []string) error {
	if len(assets) == 0 {
		return nil
	}
	args := append([]string{"release", "upload", tagName}, assets...)
	args = append(args, "--clobber")
	_, err := g.runner.Run(ctx, g.dir, args...)
	return err
}

// IsReleased reports whether CreateRelease succeeded this run.
func (g *GitHub) IsReleased() bool { return g.released }

// ReleaseURL returns the created release's url, or "".
func (g *GitHub) ReleaseURL() string { return g.releaseURL }
