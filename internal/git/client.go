// Package git provides the version-control client for keel.
//
// The Client wraps the git CLI with the operations the release pipeline
// needs: precondition validation, staging, commit, tag, push, and a shallow
// clone for the distribution sub-release. Derived repository state
// (latest tag, root-ness, remote url) is available after Validate.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Options configures a Client for one target repository.
type Options struct {
	// Remote is the remote name pushed to. Default "origin".
	Remote string
	// CommitMessage is the commit message template; ${version} is substituted.
	CommitMessage string
	// TagTemplate renders the tag name; ${version} is substituted.
	// Empty means auto-detect the "v" prefix from the latest tag.
	TagTemplate string
	// TagAnnotation is the annotated-tag message template.
	TagAnnotation string
	// RequireCleanWorkingDir makes Validate fail on uncommitted changes.
	RequireCleanWorkingDir bool
	// RequireUpstream makes Validate fail when the branch has no upstream.
	RequireUpstream bool
}

// Client runs git operations for a single working directory.
type Client struct {
	runner CmdRunner
	dir    string
	opts   Options

	// Derived state, populated by Validate.
	latestTag string
	isRootDir bool
	remoteURL string
}

// NewClient creates a Client for the given directory.
func NewClient(runner CmdRunner, dir string, opts Options) *Client {
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	return &Client{runner: runner, dir: dir, opts: opts}
}

// Validate checks release preconditions in a fixed order: repository
// presence, remote url, clean working directory, upstream tracking ref.
// The first violated precondition wins. On success the derived state
// accessors become valid.
func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.dir, "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrNotGitRepo, err)
	}

	remoteURL, err := c.runner.Run(ctx, c.dir, "remote", "get-url", c.opts.Remote)
	if err != nil || remoteURL == "" {
		return fmt.Errorf("%w: remote %q", keelerrors.ErrRemoteMissing, c.opts.Remote)
	}
	c.remoteURL = remoteURL

	if c.opts.RequireCleanWorkingDir {
		status, statusErr := c.runner.Run(ctx, c.dir, "status", "--porcelain")
		if statusErr != nil {
			return statusErr
		}
		if status != "" {
			return keelerrors.ErrWorkingDirDirty
		}
	}

	if c.opts.RequireUpstream {
		if _, upErr := c.runner.Run(ctx, c.dir, "rev-parse", "--abbrev-ref", "@{u}"); upErr != nil {
			return fmt.Errorf("%w: %w", keelerrors.ErrUpstreamMissing, upErr)
		}
	}

	// Derived state; failures here are not preconditions.
	if tag, tagErr := c.runner.Run(ctx, c.dir, "describe", "--tags", "--abbrev=0"); tagErr == nil {
		c.latestTag = tag
	}
	if prefix, prefErr := c.runner.Run(ctx, c.dir, "rev-parse", "--show-prefix"); prefErr == nil {
		c.isRootDir = prefix == ""
	}

	return nil
}

// LatestTag returns the most recent tag reachable from HEAD, or "".
// Valid after Validate.
func (c *Client) LatestTag() string { return c.latestTag }

// IsRootDir reports whether the working directory is the repository root.
// Valid after Validate.
func (c *Client) IsRootDir() bool { return c.isRootDir }

// RemoteURL returns the configured remote url. Valid after Validate.
func (c *Client) RemoteURL() string { return c.remoteURL }

// Status returns the short-format status of the working tree, used to
// preview the pending changeset before committing.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.runner.Run(ctx, c.dir, "status", "--short")
}

// Stage stages the given files for commit.
func (c *Client) Stage(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.runner.Run(ctx, c.dir, args...)
	return err
}

// StageDir stages every change under the given directory.
func (c *Client) StageDir(ctx context.Context, dir string) error {
	_, err := c.runner.Run(ctx, c.dir, "add", "--all", dir)
	return err
}

// Reset reverts the given files to HEAD, discarding staged and unstaged
// changes. Used by the rollback window to undo the manifest bump.
func (c *Client) Reset(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"checkout", "HEAD", "--"}, files...)
	_, err := c.runner.Run(ctx, c.dir, args...)
	return err
}

// Commit creates a commit for the release. The configured commit message
// template is rendered with the version.
func (c *Client) Commit(ctx context.Context, version string) error {
	message := expandVersion(c.opts.CommitMessage, version)
	if message == "" {
		message = "Release " + version
	}
	_, err := c.runner.Run(ctx, c.dir, "commit", "--message", message)
	return err
}

// Tag creates an annotated release tag under the given name. The name is
// resolved by the caller so every repository in the run tags the same
// ref; the annotation template is rendered with the version.
func (c *Client) Tag(ctx context.Context, name, version string) error {
	annotation := expandVersion(c.opts.TagAnnotation, version)
	if annotation == "" {
		annotation = "Release " + version
	}
	_, err := c.runner.Run(ctx, c.dir, "tag", "--annotate", "--message", annotation, name)
	return err
}

// Push pushes the release commit and tags to the remote.
func (c *Client) Push(ctx context.Context) error {
	_, err := c.runner.Run(ctx, c.dir, "push", "--follow-tags", c.opts.Remote)
	return err
}

// Clone makes a shallow single-branch clone of url into dir, for staging
// the distribution repository.
func (c *Client) Clone(ctx context.Context, url, dir string) error {
	_, err := c.runner.Run(ctx, c.dir, "clone", "--depth", "1", url, dir)
	return err
}

// TagName renders the tag for a version. An explicit template wins;
// otherwise the "v" prefix is mirrored from the latest tag so tag naming
// stays consistent across releases (and across the distribution repo,
// which inherits this client's decision through Options).
func (c *Client) TagName(version string) string {
	if c.opts.TagTemplate != "" {
		return expandVersion(c.opts.TagTemplate, version)
	}
	if c.latestTag != "" && !strings.HasPrefix(c.latestTag, "v") {
		return version
	}
	return "v" + version
}

// RenderTag renders a tag name template with ${version} substituted.
func RenderTag(template, version string) string {
	return expandVersion(template, version)
}

// expandVersion substitutes ${version} in a template string.
func expandVersion(template, version string) string {
	return os.Expand(template, func(key string) string {
		if key == "version" {
			return version
		}
		return ""
	})
}
