// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/keel/internal/changelog"
	"github.com/mrz1836/keel/internal/config"
	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/git"
	"github.com/mrz1836/keel/internal/hooks"
	"github.com/mrz1836/keel/internal/hosting"
	"github.com/mrz1836/keel/internal/npm"
	"github.com/mrz1836/keel/internal/pipeline"
	"github.com/mrz1836/keel/internal/shell"
	"github.com/mrz1836/keel/internal/signal"
	"github.com/mrz1836/keel/internal/tui"
	"github.com/mrz1836/keel/internal/version"
)

// releaseFlags holds the release command's flag values.
type releaseFlags struct {
	preRelease   bool
	preReleaseID string
	ci           bool
	dryRun       bool
	noGit        bool
	noNpm        bool
	noGitHub     bool
	noGitLab     bool
	configPath   string
}

// AddReleaseCommand adds the release command to the root command.
func AddReleaseCommand(root *cobra.Command) {
	flags := &releaseFlags{}

	cmd := &cobra.Command{
		Use:   "release [increment]",
		Short: "Run the release pipeline",
		Long: `Release resolves the next version, generates release notes from the
commit history, bumps the package manifest, commits, tags and pushes,
creates the configured hosting releases, and publishes to npm.

The optional increment argument is one of patch, minor, major,
prerelease, a recommendation strategy ("conventional"), or an explicit
version like 2.1.0. Without it, an interactive run prompts for the next
version and a non-interactive run fails unless a strategy is configured.

Examples:
  keel release                  # prompt for the next version
  keel release patch            # 1.2.3 -> 1.2.4
  keel release minor --dry-run  # show what would happen
  keel release conventional --ci
  keel release --pre-release --pre-release-id beta`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.preRelease, "pre-release", false, "bump to a prerelease version")
	cmd.Flags().StringVar(&flags.preReleaseID, "pre-release-id", "", "prerelease identifier (e.g. alpha, beta)")
	cmd.Flags().BoolVar(&flags.ci, "ci", false, "disable all prompts, even on a TTY")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report the steps without executing them")
	cmd.Flags().BoolVar(&flags.noGit, "no-git", false, "skip commit, tag and push")
	cmd.Flags().BoolVar(&flags.noNpm, "no-npm", false, "skip npm publish")
	cmd.Flags().BoolVar(&flags.noGitHub, "no-github", false, "skip the GitHub release")
	cmd.Flags().BoolVar(&flags.noGitLab, "no-gitlab", false, "skip the GitLab release")
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "project config file (default .keel.yaml)")

	root.AddCommand(cmd)
}

// runRelease wires the clients and runs the pipeline for one release.
func runRelease(cmd *cobra.Command, args []string, flags *releaseFlags) error {
	logger := GetLogger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := loadConfig(ctx, flags.configPath)
	if err != nil {
		return reportError(cmd, err)
	}
	applyFlagOverrides(cfg, flags)

	var inc version.Increment
	if len(args) > 0 {
		inc, err = version.ParseIncrement(args[0])
		if err != nil {
			return reportError(cmd, err)
		}
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	tui.CheckNoColor()
	interactive := !flags.ci && term.IsTerminal(int(os.Stdin.Fd()))

	handler := signal.NewHandler(ctx)
	defer handler.Stop()
	ctx = handler.Context()

	factory := newClientFactory(cfg, logger)
	clients, err := factory(ctx, workDir, "")
	if err != nil {
		return reportError(cmd, err)
	}

	var generator pipeline.ChangelogGenerator
	if clients.Git != nil {
		generator = changelog.NewGenerator(git.NewExecRunner(), workDir)
	}

	shellRunner := shell.NewExecRunner()
	hooksFor := func(dir string) *hooks.Manager {
		return hooks.NewManager(cfg.Hooks, shellRunner, dir, logger)
	}

	run := pipeline.NewUnattendedRunner(cmd.ErrOrStderr(), logger, flags.dryRun)
	if interactive {
		run = pipeline.NewInteractiveRunner(cmd.ErrOrStderr(), tui.Confirm, logger, run)
	}

	orch := pipeline.New(pipeline.Options{
		Config:      cfg,
		Clients:     clients,
		WorkDir:     workDir,
		HooksFor:    hooksFor,
		DistFactory: factory,
		Changelog:   generator,
		Runner:      run,
		Logger:      logger,
		Signals:     handler,
		Prompter:    tuiPrompter{},
		Interactive: interactive,
		DryRun:      flags.dryRun,
	})

	result, err := orch.Run(ctx, pipeline.RunOptions{
		Increment:    inc,
		PreRelease:   flags.preRelease,
		PreReleaseID: flags.preReleaseID,
	})
	if err != nil {
		return reportError(cmd, err)
	}

	styles := tui.NewOutputStyles()
	if flags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s would be released as %s\n",
			styles.Info.Render("dry-run:"), result.Name, result.Version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s released %s %s\n",
		styles.Success.Render("✓"), result.Name, result.Version)
	return nil
}

// loadConfig loads the layered configuration, honoring an explicit
// project config path when given.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.Load(ctx)
	}
	global, err := config.GlobalConfigPath()
	if err != nil {
		global = ""
	}
	return config.LoadFromPaths(ctx, path, global)
}

// applyFlagOverrides applies the --no-* switches on top of the loaded
// configuration. Flags always win over config files.
func applyFlagOverrides(cfg *config.Config, flags *releaseFlags) {
	if flags.noGit {
		cfg.Git.Enabled = false
	}
	if flags.noNpm {
		cfg.Npm.Enabled = false
	}
	if flags.noGitHub {
		cfg.GitHub.Enabled = false
	}
	if flags.noGitLab {
		cfg.GitLab.Enabled = false
	}
}

// newClientFactory builds the client set for a directory. The same
// factory serves the primary repository (remote == "", resolved from the
// git configuration) and the distribution clone (remote == dist repo url).
func newClientFactory(cfg *config.Config, logger zerolog.Logger) pipeline.ClientFactory {
	return func(ctx context.Context, dir, remote string) (pipeline.Clients, error) {
		var clients pipeline.Clients

		if cfg.Git.Enabled {
			clients.Git = git.NewClient(git.NewExecRunner(), dir, git.Options{
				Remote:                 cfg.Git.Remote,
				CommitMessage:          cfg.Git.CommitMessage,
				TagTemplate:            cfg.Git.TagTemplate,
				TagAnnotation:          cfg.Git.TagAnnotation,
				RequireCleanWorkingDir: cfg.Git.RequireCleanWorkingDir,
				RequireUpstream:        cfg.Git.RequireUpstream,
			})
		}

		if cfg.GitHub.Enabled {
			clients.GitHub = hosting.NewGitHub(hosting.NewExecRunner(), dir, logger)
		}

		if cfg.GitLab.Enabled {
			if remote == "" {
				resolved, err := queryRemoteURL(ctx, dir, cfg.Git.Remote)
				if err != nil {
					return pipeline.Clients{}, err
				}
				remote = resolved
			}
			gl, err := hosting.NewGitLab(remote, logger)
			if err != nil {
				return pipeline.Clients{}, err
			}
			clients.GitLab = gl
		}

		if cfg.Npm.Enabled {
			manifest, err := npm.ReadManifest(dir)
			switch {
			case stderrors.Is(err, errors.ErrManifestMissing):
				// No package.json here. The primary repo without one has
				// nothing to publish; dist repos commonly carry none.
				logger.Debug().Str("dir", dir).Msg("no package manifest, skipping npm")
			case err != nil:
				return pipeline.Clients{}, err
			default:
				clients.NPM = npm.NewClient(npm.NewExecRunner(), dir, manifest, npm.Options{
					Registry: cfg.Npm.Registry,
					Tag:      cfg.Npm.Tag,
					Access:   cfg.Npm.Access,
					OTP:      cfg.Npm.OTP,
				}, logger)
			}
		}

		return clients, nil
	}
}

// queryRemoteURL resolves the push url of the configured remote.
func queryRemoteURL(ctx context.Context, dir, remote string) (string, error) {
	out, err := git.NewExecRunner().Run(ctx, dir, "remote", "get-url", remote)
	if err != nil {
		return "", errors.Wrapf(errors.ErrRemoteMissing, "remote %q", remote)
	}
	return strings.TrimSpace(out), nil
}

// reportError prints the user-facing message for known failures before
// returning the error for exit-code mapping. The pipeline has already
// logged the details.
func reportError(cmd *cobra.Command, err error) error {
	styles := tui.NewOutputStyles()
	msg, action := errors.Actionable(err)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", styles.Error.Render("✗"), msg)
	if action != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", styles.Dim.Render(action))
	}
	return err
}

// tuiPrompter adapts the tui prompts to the pipeline's Prompter interface.
type tuiPrompter struct{}

// otherVersion marks the free-form entry in the version menu.
const otherVersion = "other"

// SelectVersion presents the computed bump candidates plus a free-form
// entry for an explicit version.
func (tuiPrompter) SelectVersion(candidates []version.Candidate) (string, error) {
	options := make([]tui.Option, 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, tui.Option{Label: c.Label, Value: c.Version})
	}
	options = append(options, tui.Option{Label: "other (enter a version)", Value: otherVersion})

	selected, err := tui.Select("Select the next version", options)
	if err != nil {
		return "", err
	}
	if selected != otherVersion {
		return selected, nil
	}
	return tui.Input("Next version", "", func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.ErrEmptyValue
		}
		_, parseErr := version.ParseIncrement(s)
		return parseErr
	})
}

// OTP asks for a fresh registry one-time password.
func (tuiPrompter) OTP(context.Context) (string, error) {
	return tui.OTP()
}
