package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/git"
	"github.com/mrz1836/keel/internal/hooks"
)

// DistOptions parameterizes the distribution sub-release.
type DistOptions struct {
	// Repo is the git url of the distribution repository.
	Repo string
	// StageDir is the staging directory, relative to the working
	// directory. It must resolve strictly inside it.
	StageDir string
	// TagTemplate overrides tag naming in the distribution repo. Empty
	// mirrors the primary repository's tag name.
	TagTemplate string
	// Sequence carries the resolved release inherited from the primary
	// run: version, changelog, tag name, prerelease flags.
	Sequence SequenceOptions
}

// resolveStageDir resolves stage against workDir and rejects any path
// that escapes it or equals it. The check runs on the lexically cleaned
// path so "..", absolute paths, and nested escapes all fail the same way.
func resolveStageDir(workDir, stage string) (string, error) {
	absWork, err := filepath.Abs(workDir)
	if err != nil {
		return "", keelerrors.Wrap(err, "resolve working directory")
	}

	abs := stage
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(absWork, stage)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(absWork, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q does not resolve under the working directory", keelerrors.ErrStageDirInvalid, stage)
	}
	return abs, nil
}

// RunDist performs the distribution sub-release: clone the dist repo
// into the validated stage dir, run the beforeStage hook there, build a
// fresh Clients set bound to the clone, and execute the same release
// sequence with the inherited version and changelog. The stage dir is
// removed on every exit path.
func RunDist(
	ctx context.Context,
	run StepRunner,
	primaryGit GitClient,
	factory ClientFactory,
	hooksFor func(dir string) *hooks.Manager,
	logger zerolog.Logger,
	workDir string,
	opts DistOptions,
) error {
	stage, err := resolveStageDir(workDir, opts.StageDir)
	if err != nil {
		return err
	}

	if opts.Sequence.DryRun {
		logger.Info().Str("repo", opts.Repo).Msg("dry run, skipping distribution release")
		return nil
	}

	defer func() {
		if rmErr := os.RemoveAll(stage); rmErr != nil {
			logger.Warn().Err(rmErr).Str("dir", stage).Msg("could not remove stage directory")
		}
	}()

	if err := primaryGit.Clone(ctx, opts.Repo, stage); err != nil {
		return err
	}

	stageHooks := hooksFor(stage)
	if err := run(ctx, Step{
		Enabled: stageHooks.Has(constants.HookBeforeStage),
		Label:   "beforeStage hook",
		Forced:  true,
		Task: func(ctx context.Context) error {
			return stageHooks.Run(ctx, constants.HookBeforeStage, opts.Sequence.hookVars())
		},
	}); err != nil {
		return err
	}

	clients, err := factory(ctx, stage, opts.Repo)
	if err != nil {
		return err
	}
	if clients.Git == nil {
		return keelerrors.Wrap(keelerrors.ErrConfigInvalidDist, "distribution release requires git")
	}
	if err := clients.Git.Validate(ctx); err != nil {
		return err
	}

	// The tag name mirrors the primary repository's resolved decision
	// unless the distribution template overrides it.
	seq := opts.Sequence
	seq.Hooks = stageHooks
	if opts.TagTemplate != "" {
		seq.TagName = git.RenderTag(opts.TagTemplate, seq.Version)
	}

	if clients.NPM != nil {
		if err := clients.NPM.Bump(ctx, seq.Version); err != nil {
			return err
		}
	}
	if err := clients.Git.StageDir(ctx, "."); err != nil {
		return err
	}

	return RunSequence(ctx, run, clients, logger, seq)
}
