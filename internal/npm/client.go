package npm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Options configures the npm client.
type Options struct {
	// Registry overrides the publish registry url. Empty uses npm's default.
	Registry string
	// Tag is the dist-tag for release versions. Default "latest".
	Tag string
	// OTP is a pre-supplied one-time password, typically from CI secrets.
	OTP string
	// Access sets the package access level ("public"/"restricted").
	Access string
}

// OTPCallback asks the user for a fresh one-time password.
type OTPCallback func(ctx context.Context) (string, error)

// PublishOptions configures one publish attempt.
type PublishOptions struct {
	// Version is the version being published, for logging only; the
	// manifest has already been bumped.
	Version string
	// IsPreRelease selects the prerelease dist-tag behavior.
	IsPreRelease bool
	// PreReleaseID is the prerelease identifier ("alpha"), used as the
	// dist-tag for prereleases when set.
	PreReleaseID string
	// OTPCallback, when set, is invoked to obtain a fresh code after the
	// registry rejects a publish for want of an OTP. Nil in unattended runs.
	OTPCallback OTPCallback
	// DryRun passes --dry-run to npm publish.
	DryRun bool
}

// Client publishes one package directory to the registry.
type Client struct {
	runner   CmdRunner
	dir      string
	manifest *Manifest
	opts     Options
	logger   zerolog.Logger

	// pingTimeout bounds the registry reachability probe.
	pingTimeout time.Duration

	published bool
	skipped   bool
}

// NewClient creates a Client for the package in dir.
func NewClient(runner CmdRunner, dir string, manifest *Manifest, opts Options, logger zerolog.Logger) *Client {
	if opts.Tag == "" {
		opts.Tag = "latest"
	}
	return &Client{
		runner:      runner,
		dir:         dir,
		manifest:    manifest,
		opts:        opts,
		logger:      logger,
		pingTimeout: constants.RegistryPingTimeout,
	}
}

// Manifest returns the package manifest the client was built with.
func (c *Client) Manifest() *Manifest { return c.manifest }

// Validate checks registry reachability then authentication. Private
// packages skip both: they will not be published.
func (c *Client) Validate(ctx context.Context) error {
	if c.manifest.Private {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	if _, err := c.runner.Run(pingCtx, c.dir, c.withRegistry("ping")...); err != nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrRegistryUnreachable, err)
	}

	if _, err := c.runner.Run(ctx, c.dir, c.withRegistry("whoami")...); err != nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrRegistryUnauthenticated, err)
	}
	return nil
}

// Bump writes the version into the package manifest without creating a
// git tag or commit.
func (c *Client) Bump(ctx context.Context, version string) error {
	_, err := c.runner.Run(ctx, c.dir, "version", version, "--no-git-tag-version", "--allow-same-version")
	if err == nil {
		c.manifest.Version = version
	}
	return err
}

// Publish publishes the package. A private package is skipped and
// reported as success. A publish rejected for want of a one-time
// password triggers the OTP callback and retries with the fresh code;
// this is the only retried operation in the pipeline.
func (c *Client) Publish(ctx context.Context, opts PublishOptions) error {
	if c.manifest.Private {
		c.skipped = true
		c.logger.Warn().Str("package", c.manifest.Name).Msg("package is private, skipping publish")
		return nil
	}
	return c.publish(ctx, opts, c.opts.OTP)
}

func (c *Client) publish(ctx context.Context, opts PublishOptions, otp string) error {
	args := []string{"publish", "--tag", c.distTag(opts)}
	if c.opts.Access != "" {
		args = append(args, "--access", c.opts.Access)
	}
	if c.opts.Registry != "" {
		args = append(args, "--registry", c.opts.Registry)
	}
	if otp != "" {
		args = append(args, "--otp", otp)
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}

	_, err := c.runner.Run(ctx, c.dir, args...)
	if err == nil {
		c.published = true
		return nil
	}
	if !isOTPError(err) {
		return err
	}

	if otp != "" {
		c.logger.Warn().Str("package", c.manifest.Name).Msg("one-time password rejected by registry")
	}
	if opts.OTPCallback == nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrOTPRejected, err)
	}

	fresh, cbErr := opts.OTPCallback(ctx)
	if cbErr != nil {
		return cbErr
	}
	return c.publish(ctx, opts, fresh)
}

// distTag picks the effective dist-tag: the prerelease identifier wins
// for prereleases, otherwise the configured tag.
func (c *Client) distTag(opts PublishOptions) string {
	if opts.IsPreRelease && opts.PreReleaseID != "" {
		return opts.PreReleaseID
	}
	return c.opts.Tag
}

// withRegistry appends the registry flag when one is configured.
func (c *Client) withRegistry(args ...string) []string {
	if c.opts.Registry != "" {
		return append(args, "--registry", c.opts.Registry)
	}
	return args
}

// IsPublished reports whether a publish succeeded this run.
func (c *Client) IsPublished() bool { return c.published }

// Skipped reports whether the publish was skipped for a private package.
func (c *Client) Skipped() bool { return c.skipped }

// PackageURL returns the package's registry page.
func (c *Client) PackageURL() string {
	return "https://www.npmjs.com/package/" + c.manifest.Name
}

// otpSignatures are the registry error markers that indicate a missing
// or invalid one-time password.
var otpSignatures = []string{"EOTP", "one-time pass", "one-time password"}

func isOTPError(err error) bool {
	msg := err.Error()
	for _, sig := range otpSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
