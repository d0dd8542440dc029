package pipeline

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/changelog"
	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/config"
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/hooks"
	"github.com/mrz1836/keel/internal/signal"
	"github.com/mrz1836/keel/internal/version"
)

// state names the pipeline phases for logging.
type state string

const (
	stateValidating       state = "validating"
	stateResolvingVersion state = "resolving-version"
	stateBumping          state = "bumping"
	stateStaging          state = "staging"
	stateReleasingPrimary state = "releasing-primary"
	stateReleasingDist    state = "releasing-distribution"
	stateDone             state = "done"
	stateFailed           state = "failed"
)

// ChangelogGenerator analyzes the commit range since the last release.
type ChangelogGenerator interface {
	Generate(ctx context.Context, fromTag string) (*changelog.Changelog, error)
}

// Prompter supplies the interactive inputs the pipeline may need.
type Prompter interface {
	// SelectVersion picks the next version from the computed candidates
	// or a free-form entry.
	SelectVersion(candidates []version.Candidate) (string, error)
	// OTP asks for a fresh registry one-time password.
	OTP(ctx context.Context) (string, error)
}

// Options wires an Orchestrator.
type Options struct {
	Config      *config.Config
	Clients     Clients
	WorkDir     string
	HooksFor    func(dir string) *hooks.Manager
	DistFactory ClientFactory
	Changelog   ChangelogGenerator
	Runner      StepRunner
	Logger      zerolog.Logger
	Signals     *signal.Handler
	Clock       clock.Clock
	Metrics     Metrics
	Prompter    Prompter
	Interactive bool
	DryRun      bool
}

// RunOptions are the per-invocation inputs from the CLI.
type RunOptions struct {
	Increment    version.Increment
	PreRelease   bool
	PreReleaseID string
}

// Result summarizes a completed release.
type Result struct {
	Name          string
	Changelog     string
	LatestVersion string
	Version       string
}

// Orchestrator drives one release run through its states. It is
// single-use: create a new one per invocation.
type Orchestrator struct {
	cfg      *config.Config
	clients  Clients
	workDir  string
	hooksFor func(dir string) *hooks.Manager
	hooks    *hooks.Manager
	distNew  ClientFactory
	cl       ChangelogGenerator
	run      StepRunner
	logger   zerolog.Logger
	signals  *signal.Handler
	clock    clock.Clock
	metrics  Metrics
	prompter Prompter

	interactive bool
	dryRun      bool

	resolver *version.Resolver
	state    state
}

// New creates an Orchestrator from the wiring options.
func New(opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	return &Orchestrator{
		cfg:         opts.Config,
		clients:     opts.Clients,
		workDir:     opts.WorkDir,
		hooksFor:    opts.HooksFor,
		hooks:       opts.HooksFor(opts.WorkDir),
		distNew:     opts.DistFactory,
		cl:          opts.Changelog,
		run:         opts.Runner,
		logger:      opts.Logger,
		signals:     opts.Signals,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		prompter:    opts.Prompter,
		interactive: opts.Interactive,
		dryRun:      opts.DryRun,
		resolver:    version.NewResolver(),
	}
}

func (o *Orchestrator) setState(s state) {
	o.state = s
	o.logger.Debug().Str("state", string(s)).Msg("pipeline state")
}

// Run executes the full release pipeline and returns the release
// summary. Errors are logged with their user-facing message when known,
// raw otherwise, and always returned.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := o.clock.Now()
	o.logger = o.logger.With().Str("run_id", uuid.NewString()).Logger()

	result, err := o.execute(ctx, opts)
	elapsed := o.clock.Now().Sub(start)
	o.metrics.RecordDuration("pipeline", elapsed)

	if err != nil {
		o.setState(stateFailed)
		o.metrics.IncCounter("pipeline_failed")
		if keelerrors.IsKnown(err) {
			msg, action := keelerrors.Actionable(err)
			o.logger.Error().
				Str("message", msg).
				Str("action", action).
				Err(err).
				Msg("release failed")
		} else {
			o.logger.Error().Err(err).Msg("release failed")
		}
		return nil, err
	}

	o.setState(stateDone)
	o.metrics.IncCounter("pipeline_done")
	o.logger.Info().
		Str("name", result.Name).
		Str("version", result.Version).
		Dur("elapsed", elapsed).
		Msg("release complete")
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, opts RunOptions) (*Result, error) {
	o.setState(stateValidating)
	if err := o.validate(ctx); err != nil {
		return nil, err
	}

	if err := o.runHook(ctx, constants.HookBeforeStart, hooks.Vars{Name: o.projectName()}); err != nil {
		return nil, err
	}

	o.setState(stateResolvingVersion)
	notes, err := o.resolveVersion(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Name:          o.projectName(),
		Changelog:     notes,
		LatestVersion: o.resolver.Latest(),
		Version:       o.resolver.Next(),
	}
	vars := hooks.Vars{
		Name:          result.Name,
		Version:       result.Version,
		LatestVersion: result.LatestVersion,
		Changelog:     result.Changelog,
	}

	o.setState(stateBumping)
	if err := o.runHook(ctx, constants.HookBeforeBump, vars); err != nil {
		return nil, err
	}

	// Rollback window: from the first manifest mutation until the
	// release commit. Fires on SIGINT/SIGTERM or any failure exit in
	// between; Disarm closes it. With the commit step toggled off the
	// window never closes, so it is not armed and the bump stays.
	var rollback *signal.Cleanup
	if o.clients.Git != nil && o.clients.NPM != nil && o.cfg.Git.Commit && !o.dryRun {
		rollback = o.signals.OnInterrupt(func() {
			_ = o.clients.Git.Reset(context.Background(), constants.Manifest)
		})
		defer rollback.Run()
	}

	if err := o.run(ctx, Step{
		Enabled: o.clients.NPM != nil,
		Label:   "Bump manifest (" + result.Version + ")",
		Task:    func(ctx context.Context) error { return o.clients.NPM.Bump(ctx, result.Version) },
	}); err != nil {
		return nil, err
	}
	if err := o.runHook(ctx, constants.HookAfterBump, vars); err != nil {
		return nil, err
	}

	o.setState(stateStaging)
	if err := o.run(ctx, Step{
		Enabled: o.clients.Git != nil && o.clients.NPM != nil,
		Label:   "Stage manifest",
		Task:    func(ctx context.Context) error { return o.clients.Git.Stage(ctx, constants.Manifest) },
	}); err != nil {
		return nil, err
	}

	o.setState(stateReleasingPrimary)
	seq := o.sequenceOptions(result)
	if rollback != nil {
		seq.OnCommit = rollback.Disarm
	}
	if err := RunSequence(ctx, o.run, o.clients, o.logger, seq); err != nil {
		return nil, err
	}

	if o.cfg.Dist.Enabled {
		o.setState(stateReleasingDist)
		distSeq := seq
		distSeq.OnCommit = nil
		if err := RunDist(ctx, o.run, o.clients.Git, o.distNew, o.hooksFor, o.logger, o.workDir, DistOptions{
			Repo:        o.cfg.Dist.Repo,
			StageDir:    o.cfg.Dist.StageDir,
			TagTemplate: o.cfg.Dist.TagTemplate,
			Sequence:    distSeq,
		}); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// validate checks every precondition before anything mutates: git state
// first, then hosting tokens, then registry reachability and auth. The
// first failure aborts.
func (o *Orchestrator) validate(ctx context.Context) error {
	if o.clients.Git != nil {
		if err := o.clients.Git.Validate(ctx); err != nil {
			return err
		}
	}
	if o.clients.GitHub != nil {
		if err := o.clients.GitHub.Validate(ctx); err != nil {
			return err
		}
	}
	if o.clients.GitLab != nil {
		if err := o.clients.GitLab.Validate(ctx); err != nil {
			return err
		}
	}
	if o.clients.NPM != nil {
		if err := o.clients.NPM.Validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// resolveVersion determines latest and next versions and returns the
// rendered release notes.
func (o *Orchestrator) resolveVersion(ctx context.Context, opts RunOptions) (string, error) {
	var pkgVersion string
	if o.clients.NPM != nil {
		pkgVersion = o.clients.NPM.Manifest().Version
	}

	latestTag := ""
	isRoot := true
	if o.clients.Git != nil {
		latestTag = o.clients.Git.LatestTag()
		isRoot = o.clients.Git.IsRootDir()
	}

	if err := o.resolver.SetLatest(version.LatestOptions{
		GitTag:     latestTag,
		PkgVersion: pkgVersion,
		IsRootDir:  isRoot,
	}); err != nil {
		return "", err
	}

	inc := opts.Increment
	if inc.IsNone() && o.cfg.Version.Strategy != "" {
		parsed, err := version.ParseIncrement(o.cfg.Version.Strategy)
		if err != nil {
			return "", err
		}
		inc = parsed
	}

	// The changelog is generated lazily, exactly once, before the bump:
	// a recommendation increment needs it now, every other path only
	// needs it for release notes.
	var cl *changelog.Changelog
	if o.cl != nil {
		generated, err := o.cl.Generate(ctx, latestTag)
		if err != nil {
			return "", err
		}
		cl = generated
	}

	if inc.IsRecommendation() {
		if cl == nil {
			return "", keelerrors.Wrapf(keelerrors.ErrInvalidIncrement,
				"strategy %q needs commit history", inc.Strategy)
		}
		if cl.Recommended == version.KindNone {
			inc = version.Increment{Kind: version.KindNone}
		} else {
			inc = version.Increment{Kind: cl.Recommended}
		}
	}

	if inc.IsNone() && !opts.PreRelease {
		resolved, err := o.promptVersion()
		if err != nil {
			return "", err
		}
		inc = resolved
	}

	preID := opts.PreReleaseID
	if preID == "" {
		preID = o.cfg.Version.PreReleaseID
	}
	if err := o.resolver.Bump(version.BumpOptions{
		Increment:    inc,
		PreRelease:   opts.PreRelease,
		PreReleaseID: preID,
	}); err != nil {
		return "", err
	}
	if err := o.resolver.Validate(); err != nil {
		return "", err
	}

	o.logger.Info().
		Str("latest", o.resolver.Latest()).
		Str("next", o.resolver.Next()).
		Msg("version resolved")

	if cl == nil {
		return "", nil
	}
	return cl.Render(o.resolver.Next()), nil
}

// promptVersion falls back to the interactive version selection. Without
// an interactive prompter the run cannot proceed.
func (o *Orchestrator) promptVersion() (version.Increment, error) {
	if !o.interactive || o.prompter == nil {
		return version.Increment{}, keelerrors.Wrap(keelerrors.ErrVersionRequired,
			"no increment given and no recommendation strategy configured")
	}
	selected, err := o.prompter.SelectVersion(o.resolver.Candidates())
	if err != nil {
		return version.Increment{}, err
	}
	return version.ParseIncrement(selected)
}

// sequenceOptions assembles the release sequence inputs for the primary
// repository.
func (o *Orchestrator) sequenceOptions(result *Result) SequenceOptions {
	tagName := "v" + result.Version
	if o.clients.Git != nil {
		tagName = o.clients.Git.TagName(result.Version)
	}

	var otp func(context.Context) (string, error)
	if o.interactive && o.prompter != nil {
		otp = o.prompter.OTP
	}

	return SequenceOptions{
		Name:          result.Name,
		Version:       result.Version,
		LatestVersion: result.LatestVersion,
		Changelog:     result.Changelog,
		TagName:       tagName,
		Commit:        o.cfg.Git.Commit,
		Tag:           o.cfg.Git.Tag,
		Push:          o.cfg.Git.Push,
		IsPreRelease:  o.resolver.IsPreRelease(),
		PreReleaseID:  o.resolver.PreReleaseID(),
		Assets:        o.cfg.GitHub.Assets,
		Draft:         o.cfg.GitHub.Draft,
		DryRun:        o.dryRun,
		Interactive:   o.interactive,
		OTPCallback:   otp,
		Hooks:         o.hooks,
	}
}

// runHook executes one lifecycle hook as a forced step.
func (o *Orchestrator) runHook(ctx context.Context, name string, vars hooks.Vars) error {
	return o.run(ctx, Step{
		Enabled: o.hooks.Has(name),
		Label:   name + " hook",
		Forced:  true,
		Task:    func(ctx context.Context) error { return o.hooks.Run(ctx, name, vars) },
	})
}

// projectName resolves the display name: config override, package
// manifest name, working directory name.
func (o *Orchestrator) projectName() string {
	if o.cfg.Name != "" {
		return o.cfg.Name
	}
	if o.clients.NPM != nil && o.clients.NPM.Manifest().Name != "" {
		return o.clients.NPM.Manifest().Name
	}
	return filepath.Base(o.workDir)
}
