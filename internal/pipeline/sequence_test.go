package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/hooks"
	"github.com/mrz1836/keel/internal/npm"
	"github.com/mrz1836/keel/internal/shell"
)

func seqOptions() SequenceOptions {
	return SequenceOptions{
		Name:          "widgets",
		Version:       "1.0.1",
		LatestVersion: "1.0.0",
		Changelog:     "## 1.0.1\n\n- fix things",
		TagName:       "v1.0.1",
		Commit:        true,
		Tag:           true,
		Push:          true,
	}
}

func fullClients(rec *recorder) (Clients, *fakeGit, *fakeGitHub, *fakeHosting, *fakeNpm) {
	g := newFakeGit(rec)
	gh := &fakeGitHub{fakeHosting: fakeHosting{rec: rec, name: "github", url: "https://github.com/acme/widgets/releases/tag/v1.0.1"}}
	gl := &fakeHosting{rec: rec, name: "gitlab", url: "https://gitlab.com/acme/widgets/-/releases/v1.0.1"}
	n := newFakeNpm(rec, &npm.Manifest{Name: "widgets", Version: "1.0.1"})
	return Clients{Git: g, GitHub: gh, GitLab: gl, NPM: n}, g, gh, gl, n
}

func TestRunSequenceOrder(t *testing.T) {
	rec := &recorder{}
	clients, _, gh, gl, n := fullClients(rec)

	require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), seqOptions()))

	expected := []string{
		"git.status",
		"git.commit 1.0.1",
		"git.tag v1.0.1",
		"git.push",
		"github.release v1.0.1",
		"gitlab.release v1.0.1",
		"npm.publish 1.0.1",
	}
	assert.Equal(t, expected, rec.list())
	assert.True(t, gh.IsReleased())
	assert.True(t, gl.IsReleased())
	assert.True(t, n.IsPublished())
	assert.Equal(t, seqOptions().Changelog, gh.Notes())
	assert.Equal(t, seqOptions().Changelog, gl.Notes())
}

func TestRunSequenceFirstErrorAborts(t *testing.T) {
	rec := &recorder{}
	clients, g, _, _, _ := fullClients(rec)
	g.tagErr = keelerrors.ErrGitOperation

	err := RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), seqOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, keelerrors.ErrGitOperation))

	// Nothing after the failing tag step may run.
	assert.True(t, rec.has("git.commit 1.0.1"))
	assert.False(t, rec.has("git.push"))
	assert.False(t, rec.has("github.release v1.0.1"))
	assert.False(t, rec.has("npm.publish 1.0.1"))
}

func TestRunSequenceNilClientsSkipped(t *testing.T) {
	rec := &recorder{}
	n := newFakeNpm(rec, &npm.Manifest{Name: "widgets"})

	require.NoError(t, RunSequence(context.Background(), passRunner, Clients{NPM: n}, zerolog.Nop(), seqOptions()))

	assert.Equal(t, []string{"npm.publish 1.0.1"}, rec.list())
}

func TestRunSequenceDisabledNpmNeverInvoked(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)
	clients.NPM = nil

	require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), seqOptions()))
	assert.False(t, rec.has("npm.publish 1.0.1"))
}

func TestRunSequenceGitStepToggles(t *testing.T) {
	t.Run("push disabled keeps commit and tag local", func(t *testing.T) {
		rec := &recorder{}
		clients, _, _, _, _ := fullClients(rec)

		opts := seqOptions()
		opts.Push = false

		require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
		assert.True(t, rec.has("git.commit 1.0.1"))
		assert.True(t, rec.has("git.tag v1.0.1"))
		assert.False(t, rec.has("git.push"))
	})

	t.Run("commit disabled skips only the commit", func(t *testing.T) {
		rec := &recorder{}
		clients, _, _, _, _ := fullClients(rec)

		opts := seqOptions()
		opts.Commit = false

		require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
		assert.False(t, rec.has("git.commit 1.0.1"))
		assert.True(t, rec.has("git.tag v1.0.1"))
		assert.True(t, rec.has("git.push"))
	})

	t.Run("tag disabled skips only the tag", func(t *testing.T) {
		rec := &recorder{}
		clients, _, _, _, _ := fullClients(rec)

		opts := seqOptions()
		opts.Tag = false

		require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
		assert.True(t, rec.has("git.commit 1.0.1"))
		assert.False(t, rec.has("git.tag v1.0.1"))
		assert.True(t, rec.has("git.push"))
	})
}

func TestRunSequenceGitHubAssetsUnattended(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)

	opts := seqOptions()
	opts.Assets = []string{"dist/widgets.tgz"}

	require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
	assert.True(t, rec.indexOf("github.assets v1.0.1") > rec.indexOf("github.release v1.0.1"))
}

func TestRunSequenceGitHubCombinedInteractive(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)

	opts := seqOptions()
	opts.Interactive = true
	opts.Assets = []string{"dist/widgets.tgz"}

	var out bytes.Buffer
	var prompts []string
	confirm := func(prompt string, _ bool) (bool, error) {
		prompts = append(prompts, prompt)
		return true, nil
	}
	run := NewInteractiveRunner(&out, confirm, zerolog.Nop(), passRunner)

	require.NoError(t, RunSequence(context.Background(), run, clients, zerolog.Nop(), opts))

	// One confirmation covers release and assets.
	assert.Contains(t, prompts, "Create GitHub release with assets?")
	assert.True(t, rec.has("github.release v1.0.1"))
	assert.True(t, rec.has("github.assets v1.0.1"))
}

func TestRunSequenceInteractiveNotesPreview(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)

	opts := seqOptions()
	opts.Interactive = true

	var out bytes.Buffer
	confirm := func(string, bool) (bool, error) { return true, nil }
	run := NewInteractiveRunner(&out, confirm, zerolog.Nop(), passRunner)

	require.NoError(t, RunSequence(context.Background(), run, clients, zerolog.Nop(), opts))

	// The generated notes are previewed ahead of the GitHub and GitLab
	// confirmations.
	assert.Contains(t, out.String(), "## 1.0.1")
	assert.Contains(t, out.String(), "- fix things")
}

func TestRunSequenceOnCommitClosesRollbackWindow(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)

	opts := seqOptions()
	committed := false
	opts.OnCommit = func() { committed = true }

	require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
	assert.True(t, committed)
}

func TestRunSequenceAfterReleaseHook(t *testing.T) {
	rec := &recorder{}
	clients, _, _, _, _ := fullClients(rec)

	mock := shell.NewMockRunner()
	opts := seqOptions()
	opts.Hooks = hooks.NewManager(
		map[string]string{"afterRelease": "echo released ${name}@${version}"},
		mock, "/repo", zerolog.Nop(),
	)

	require.NoError(t, RunSequence(context.Background(), passRunner, clients, zerolog.Nop(), opts))
	assert.True(t, mock.Ran("echo released widgets@1.0.1"))
}
