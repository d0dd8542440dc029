package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/tui"
)

// Step is one unit of pipeline work.
type Step struct {
	// Enabled gates the step; disabled steps resolve nil without running.
	Enabled bool
	// Label is the progress message shown while the step runs.
	Label string
	// Prompt is the interactive confirmation question. Empty means the
	// step runs without confirmation even in interactive mode.
	Prompt string
	// Preview is shown before the confirmation prompt, e.g. the release
	// notes ahead of a hosting release. Unattended runs ignore it.
	Preview string
	// Forced bypasses dry-run gating. Lifecycle hooks are forced so they
	// observe dry runs.
	Forced bool
	// Task does the work.
	Task func(ctx context.Context) error
}

// StepRunner executes one Step. The runner is selected once per pipeline
// run: unattended runs get the spinner runner, interactive runs wrap it
// with confirmation prompts.
type StepRunner func(ctx context.Context, step Step) error

// ConfirmFunc asks a yes/no question, tui.Confirm in production.
type ConfirmFunc func(prompt string, defaultYes bool) (bool, error)

// NewUnattendedRunner returns the spinner-backed StepRunner. In dry-run
// mode non-forced steps are logged and skipped.
func NewUnattendedRunner(out io.Writer, logger zerolog.Logger, dryRun bool) StepRunner {
	return func(ctx context.Context, step Step) error {
		if !step.Enabled {
			return nil
		}
		if dryRun && !step.Forced {
			logger.Info().Str("step", step.Label).Msg("dry run, skipping")
			return nil
		}

		spinner := tui.NewTerminalSpinner(out)
		spinner.Start(ctx, step.Label)
		if err := step.Task(ctx); err != nil {
			spinner.StopWithError(step.Label)
			return err
		}
		spinner.StopWithSuccess(step.Label)
		return nil
	}
}

// NewInteractiveRunner wraps inner with a confirmation prompt per step.
// A declined prompt skips the step without error; steps without a Prompt
// fall through to inner unchanged. A step Preview is written to out
// before the question so the user sees what they are confirming.
func NewInteractiveRunner(out io.Writer, confirm ConfirmFunc, logger zerolog.Logger, inner StepRunner) StepRunner {
	return func(ctx context.Context, step Step) error {
		if !step.Enabled || step.Prompt == "" {
			return inner(ctx, step)
		}

		if step.Preview != "" {
			_, _ = fmt.Fprintln(out, step.Preview)
		}
		ok, err := confirm(step.Prompt, true)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info().Str("step", step.Label).Msg("skipped by user")
			return nil
		}
		return inner(ctx, step)
	}
}
