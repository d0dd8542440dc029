package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/hooks"
	"github.com/mrz1836/keel/internal/hosting"
	"github.com/mrz1836/keel/internal/npm"
)

// SequenceOptions parameterizes one run of the release sequence. The
// same options drive the primary repository and the distribution
// repository; only the Clients differ.
type SequenceOptions struct {
	// Name is the project name, used in hooks and log lines.
	Name string
	// Version is the resolved next version.
	Version string
	// LatestVersion is the version released before this run.
	LatestVersion string
	// Changelog is the rendered markdown release notes.
	Changelog string
	// TagName is the rendered release tag.
	TagName string
	// Commit, Tag and Push toggle the individual git steps.
	Commit bool
	Tag    bool
	Push   bool
	// IsPreRelease marks the release as a prerelease.
	IsPreRelease bool
	// PreReleaseID is the prerelease identifier used as npm dist-tag.
	PreReleaseID string
	// Assets are files uploaded to the GitHub release.
	Assets []string
	// Draft creates the GitHub release unpublished.
	Draft bool
	// DryRun gates off every mutating step.
	DryRun bool
	// Interactive combines the GitHub release and asset upload under a
	// single confirmation.
	Interactive bool
	// OTPCallback supplies fresh one-time passwords in interactive runs.
	OTPCallback npm.OTPCallback
	// Hooks runs the lifecycle scripts, scoped to the target directory.
	Hooks *hooks.Manager
	// OnCommit, when set, runs after a successful release commit. The
	// orchestrator uses it to close the manifest rollback window.
	OnCommit func()
}

// hookVars builds the substitution set for lifecycle hooks.
func (o SequenceOptions) hookVars() hooks.Vars {
	return hooks.Vars{
		Name:          o.Name,
		Version:       o.Version,
		LatestVersion: o.LatestVersion,
		Changelog:     o.Changelog,
	}
}

// RunSequence executes the ordered release steps against one Clients
// set: commit, tag, push, GitHub release with assets, GitLab release,
// npm publish, afterRelease hook. The first error aborts the sequence.
// Completed steps are never rolled back.
func RunSequence(ctx context.Context, run StepRunner, clients Clients, logger zerolog.Logger, opts SequenceOptions) error {
	release := hosting.Release{
		TagName:    opts.TagName,
		Name:       "Release " + opts.Version,
		Notes:      opts.Changelog,
		PreRelease: opts.IsPreRelease,
		Draft:      opts.Draft,
	}

	if clients.Git != nil {
		if status, err := clients.Git.Status(ctx); err == nil && status != "" {
			logger.Info().Str("changeset", status).Msg("pending changes")
		}
	}

	var pushed bool
	gitSteps := []Step{
		{
			Enabled: clients.Git != nil && opts.Commit,
			Label:   fmt.Sprintf("Commit (%s)", opts.Version),
			Prompt:  fmt.Sprintf("Commit release %s?", opts.Version),
			Task: func(ctx context.Context) error {
				if err := clients.Git.Commit(ctx, opts.Version); err != nil {
					return err
				}
				if opts.OnCommit != nil {
					opts.OnCommit()
				}
				return nil
			},
		},
		{
			Enabled: clients.Git != nil && opts.Tag,
			Label:   fmt.Sprintf("Tag (%s)", opts.TagName),
			Prompt:  fmt.Sprintf("Tag %s?", opts.TagName),
			Task:    func(ctx context.Context) error { return clients.Git.Tag(ctx, opts.TagName, opts.Version) },
		},
		{
			Enabled: clients.Git != nil && opts.Push,
			Label:   "Push",
			Prompt:  "Push to remote?",
			Task: func(ctx context.Context) error {
				if err := clients.Git.Push(ctx); err != nil {
					return err
				}
				pushed = true
				return nil
			},
		},
	}
	for _, step := range gitSteps {
		if err := run(ctx, step); err != nil {
			return err
		}
	}

	if err := runGitHubSteps(ctx, run, clients.GitHub, release, opts); err != nil {
		return err
	}

	var gitlabNotes string
	if clients.GitLab != nil {
		clients.GitLab.SetNotes(opts.Changelog)
		gitlabNotes = clients.GitLab.Notes()
	}
	if err := run(ctx, Step{
		Enabled: clients.GitLab != nil,
		Label:   fmt.Sprintf("GitLab release (%s)", opts.TagName),
		Prompt:  "Create GitLab release?",
		Preview: gitlabNotes,
		Task:    func(ctx context.Context) error { return clients.GitLab.CreateRelease(ctx, release) },
	}); err != nil {
		return err
	}

	if err := run(ctx, Step{
		Enabled: clients.NPM != nil,
		Label:   fmt.Sprintf("npm publish (%s)", opts.Version),
		Prompt:  fmt.Sprintf("Publish version %s to npm?", opts.Version),
		Task: func(ctx context.Context) error {
			return clients.NPM.Publish(ctx, npm.PublishOptions{
				Version:      opts.Version,
				IsPreRelease: opts.IsPreRelease,
				PreReleaseID: opts.PreReleaseID,
				OTPCallback:  opts.OTPCallback,
				DryRun:       opts.DryRun,
			})
		},
	}); err != nil {
		return err
	}

	if err := run(ctx, Step{
		Enabled: opts.Hooks.Has(constants.HookAfterRelease),
		Label:   "afterRelease hook",
		Forced:  true,
		Task: func(ctx context.Context) error {
			return opts.Hooks.Run(ctx, constants.HookAfterRelease, opts.hookVars())
		},
	}); err != nil {
		return err
	}

	logOutcome(logger, clients, opts, pushed)
	return nil
}

// runGitHubSteps creates the GitHub release and uploads assets.
// Interactive runs bundle both under one confirmation with the pending
// notes previewed first; unattended runs keep them independent so assets
// can be toggled alone.
func runGitHubSteps(ctx context.Context, run StepRunner, gh GitHubClient, release hosting.Release, opts SequenceOptions) error {
	if gh == nil {
		return nil
	}
	gh.SetNotes(opts.Changelog)

	if opts.Interactive {
		return run(ctx, Step{
			Enabled: true,
			Label:   fmt.Sprintf("GitHub release (%s)", opts.TagName),
			Prompt:  "Create GitHub release with assets?",
			Preview: gh.Notes(),
			Task: func(ctx context.Context) error {
				if err := gh.CreateRelease(ctx, release); err != nil {
					return err
				}
				return gh.UploadAssets(ctx, opts.TagName, opts.Assets)
			},
		})
	}

	if err := run(ctx, Step{
		Enabled: true,
		Label:   fmt.Sprintf("GitHub release (%s)", opts.TagName),
		Task:    func(ctx context.Context) error { return gh.CreateRelease(ctx, release) },
	}); err != nil {
		return err
	}
	return run(ctx, Step{
		Enabled: len(opts.Assets) > 0,
		Label:   "GitHub release assets",
		Task:    func(ctx context.Context) error { return gh.UploadAssets(ctx, opts.TagName, opts.Assets) },
	})
}

// logOutcome writes one line per collaborator that released or published.
func logOutcome(logger zerolog.Logger, clients Clients, opts SequenceOptions, pushed bool) {
	if pushed {
		logger.Info().Str("tag", opts.TagName).Msg("release commit and tag pushed")
	}
	if clients.GitHub != nil && clients.GitHub.IsReleased() {
		logger.Info().Str("url", clients.GitHub.ReleaseURL()).Msg("github release created")
	}
	if clients.GitLab != nil && clients.GitLab.IsReleased() {
		logger.Info().Str("url", clients.GitLab.ReleaseURL()).Msg("gitlab release created")
	}
	if clients.NPM != nil {
		switch {
		case clients.NPM.IsPublished():
			logger.Info().Str("url", clients.NPM.PackageURL()).Msg("npm package published")
		case clients.NPM.Skipped():
			logger.Info().Str("url", clients.NPM.PackageURL()).Msg("npm publish skipped (private)")
		}
	}
}
