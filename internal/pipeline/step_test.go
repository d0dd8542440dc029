package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

func TestUnattendedRunner(t *testing.T) {
	t.Run("disabled step never runs", func(t *testing.T) {
		run := NewUnattendedRunner(&bytes.Buffer{}, zerolog.Nop(), false)

		ran := false
		err := run(context.Background(), Step{
			Enabled: false,
			Label:   "npm publish",
			Task:    func(context.Context) error { ran = true; return nil },
		})
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("dry run skips mutating steps", func(t *testing.T) {
		run := NewUnattendedRunner(&bytes.Buffer{}, zerolog.Nop(), true)

		ran := false
		err := run(context.Background(), Step{
			Enabled: true,
			Label:   "Push",
			Task:    func(context.Context) error { ran = true; return nil },
		})
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("dry run still runs forced steps", func(t *testing.T) {
		run := NewUnattendedRunner(&bytes.Buffer{}, zerolog.Nop(), true)

		ran := false
		err := run(context.Background(), Step{
			Enabled: true,
			Forced:  true,
			Label:   "beforeStart hook",
			Task:    func(context.Context) error { ran = true; return nil },
		})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("forced but disabled step still skipped", func(t *testing.T) {
		run := NewUnattendedRunner(&bytes.Buffer{}, zerolog.Nop(), true)

		ran := false
		err := run(context.Background(), Step{
			Enabled: false,
			Forced:  true,
			Task:    func(context.Context) error { ran = true; return nil },
		})
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("task error propagates", func(t *testing.T) {
		run := NewUnattendedRunner(&bytes.Buffer{}, zerolog.Nop(), false)

		err := run(context.Background(), Step{
			Enabled: true,
			Label:   "Tag",
			Task:    func(context.Context) error { return keelerrors.ErrGitOperation },
		})
		assert.True(t, errors.Is(err, keelerrors.ErrGitOperation))
	})
}

func TestInteractiveRunner(t *testing.T) {
	inner := func(_ context.Context, step Step) error {
		if !step.Enabled {
			return nil
		}
		return step.Task(context.Background())
	}

	t.Run("accepted prompt runs the step", func(t *testing.T) {
		confirm := func(string, bool) (bool, error) { return true, nil }
		run := NewInteractiveRunner(io.Discard, confirm, zerolog.Nop(), inner)

		ran := false
		require.NoError(t, run(context.Background(), Step{
			Enabled: true,
			Prompt:  "Push to remote?",
			Task:    func(context.Context) error { ran = true; return nil },
		}))
		assert.True(t, ran)
	})

	t.Run("declined prompt skips without error", func(t *testing.T) {
		confirm := func(string, bool) (bool, error) { return false, nil }
		run := NewInteractiveRunner(io.Discard, confirm, zerolog.Nop(), inner)

		ran := false
		require.NoError(t, run(context.Background(), Step{
			Enabled: true,
			Prompt:  "Push to remote?",
			Task:    func(context.Context) error { ran = true; return nil },
		}))
		assert.False(t, ran)
	})

	t.Run("step without prompt falls through", func(t *testing.T) {
		confirm := func(string, bool) (bool, error) {
			t.Fatal("confirm must not be called without a prompt")
			return false, nil
		}
		run := NewInteractiveRunner(io.Discard, confirm, zerolog.Nop(), inner)

		ran := false
		require.NoError(t, run(context.Background(), Step{
			Enabled: true,
			Task:    func(context.Context) error { ran = true; return nil },
		}))
		assert.True(t, ran)
	})

	t.Run("preview shown before the question", func(t *testing.T) {
		var out bytes.Buffer
		var order []string
		confirm := func(string, bool) (bool, error) {
			order = append(order, "confirm")
			assert.Contains(t, out.String(), "## 1.0.1", "preview must precede the question")
			return true, nil
		}
		run := NewInteractiveRunner(&out, confirm, zerolog.Nop(), inner)

		require.NoError(t, run(context.Background(), Step{
			Enabled: true,
			Prompt:  "Create GitHub release with assets?",
			Preview: "## 1.0.1\n\n- fix things",
			Task:    func(context.Context) error { order = append(order, "task"); return nil },
		}))
		assert.Equal(t, []string{"confirm", "task"}, order)
	})

	t.Run("canceled prompt aborts", func(t *testing.T) {
		confirm := func(string, bool) (bool, error) { return false, keelerrors.ErrPromptCanceled }
		run := NewInteractiveRunner(io.Discard, confirm, zerolog.Nop(), inner)

		err := run(context.Background(), Step{
			Enabled: true,
			Prompt:  "Commit?",
			Task:    func(context.Context) error { return nil },
		})
		assert.True(t, errors.Is(err, keelerrors.ErrPromptCanceled))
	})
}
