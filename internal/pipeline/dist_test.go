package pipeline

import (
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

func TestResolveStageDir(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		wantErr bool
	}{
		{name: "simple subdirectory", stage: "dist-stage"},
		{name: "nested subdirectory", stage: "build/stage"},
		{name: "parent escape", stage: "..", wantErr: true},
		{name: "nested escape", stage: "a/../../b", wantErr: true},
		{name: "working directory itself", stage: ".", wantErr: true},
		{name: "absolute path outside", stage: "/tmp/elsewhere", wantErr: true},
		{name: "dot slash subdirectory", stage: "./stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveStageDir("/repo", tt.stage)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, keelerrors.ErrStageDirInvalid))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got)
		})
	}
}

func distHooksFor(mock *shell.MockRunner, scripts map[string]string) func(dir string) *hooks.Manager {
	return func(dir string) *hooks.Manager {
		return hooks.NewManager(scripts, mock, dir, zerolog.Nop())
	}
}

func TestRunDist(t *testing.T) {
	primaryRec := &recorder{}
	primaryGit := newFakeGit(primaryRec)

	distRec := &recorder{}
	var distClients Clients
	factory := func(_ context.Context, dir, remote string) (Clients, error) {
		g := newFakeGit(distRec)
		n := newFakeNpm(distRec, &npm.Manifest{Name: "widgets-dist", Version: "1.0.0"})
		distClients = Clients{Git: g, NPM: n}
		assert.Equal(t, "git@github.com:acme/widgets-dist.git", remote)
		assert.NotEmpty(t, dir)
		return distClients, nil
	}

	mock := shell.NewMockRunner()
	hooksFor := distHooksFor(mock, map[string]string{"beforeStage": "npm run build ${version}"})

	workDir := t.TempDir()
	opts := DistOptions{
		Repo:     "git@github.com:acme/widgets-dist.git",
		StageDir: "dist-stage",
		Sequence: seqOptions(),
	}

	err := RunDist(context.Background(), passRunner, primaryGit, factory, hooksFor, zerolog.Nop(), workDir, opts)
	require.NoError(t, err)

	// Clone runs through the primary client, everything else through the
	// fresh dist clients.
	assert.True(t, primaryRec.has("git.clone git@github.com:acme/widgets-dist.git"))
	assert.True(t, mock.Ran("npm run build 1.0.1"))
	assert.True(t, distRec.has("git.validate"))
	assert.True(t, distRec.has("npm.bump 1.0.1"))
	assert.True(t, distRec.has("git.stagedir ."))
	assert.True(t, distRec.has("git.commit 1.0.1"))
	assert.True(t, distRec.has("git.tag v1.0.1"))
	assert.True(t, distRec.has("git.push"))
	assert.True(t, distRec.indexOf("npm.bump 1.0.1") < distRec.indexOf("git.commit 1.0.1"))
}

func TestRunDistInvalidStageDir(t *testing.T) {
	rec := &recorder{}
	err := RunDist(context.Background(), passRunner, newFakeGit(rec), nil, nil, zerolog.Nop(), t.TempDir(), DistOptions{
		Repo:     "git@github.com:acme/widgets-dist.git",
		StageDir: "..",
		Sequence: seqOptions(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keelerrors.ErrStageDirInvalid))
	assert.False(t, rec.has("git.clone git@github.com:acme/widgets-dist.git"))
}

func TestRunDistDryRunSkipsEverything(t *testing.T) {
	rec := &recorder{}
	opts := DistOptions{
		Repo:     "git@github.com:acme/widgets-dist.git",
		StageDir: "dist-stage",
		Sequence: seqOptions(),
	}
	opts.Sequence.DryRun = true

	factory := func(context.Context, string, string) (Clients, error) {
		t.Fatal("factory must not run in dry-run mode")
		return Clients{}, nil
	}

	err := RunDist(context.Background(), passRunner, newFakeGit(rec), factory, nil, zerolog.Nop(), t.TempDir(), opts)
	require.NoError(t, err)
	assert.Empty(t, rec.list())
}

func TestRunDistTagNamePolicy(t *testing.T) {
	hooksFor := distHooksFor(shell.NewMockRunner(), nil)

	runDist := func(t *testing.T, tagTemplate string) *recorder {
		t.Helper()
		distRec := &recorder{}
		factory := func(context.Context, string, string) (Clients, error) {
			gh := &fakeGitHub{fakeHosting: fakeHosting{rec: distRec, name: "github"}}
			return Clients{Git: newFakeGit(distRec), GitHub: gh}, nil
		}

		opts := DistOptions{
			Repo:        "git@github.com:acme/widgets-dist.git",
			StageDir:    "dist-stage",
			TagTemplate: tagTemplate,
			Sequence:    seqOptions(),
		}
		opts.Sequence.TagName = "release-1.0.1"

		err := RunDist(context.Background(), passRunner, newFakeGit(&recorder{}), factory, hooksFor, zerolog.Nop(), t.TempDir(), opts)
		require.NoError(t, err)
		return distRec
	}

	t.Run("mirrors primary tag name by default", func(t *testing.T) {
		// The created tag and the hosting release must agree on the
		// primary's resolved name, whatever the clone would auto-detect.
		rec := runDist(t, "")
		assert.True(t, rec.has("git.tag release-1.0.1"))
		assert.True(t, rec.has("github.release release-1.0.1"))
	})

	t.Run("dist tag template overrides", func(t *testing.T) {
		rec := runDist(t, "dist-${version}")
		assert.True(t, rec.has("git.tag dist-1.0.1"))
		assert.True(t, rec.has("github.release dist-1.0.1"))
		assert.False(t, rec.has("git.tag release-1.0.1"))
	})
}
