package hosting

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

func stubEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestGitHubValidate(t *testing.T) {
	g := NewGitHub(NewMockRunner(), "/repo", zerolog.Nop())

	g.lookupEnv = stubEnv(nil)
	err := g.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, keelerrors.ErrTokenMissing))

	g.lookupEnv = stubEnv(map[string]string{"GITHUB_TOKEN": "ghp_test"})
	assert.NoError(t, g.Validate(context.Background()))
}

func TestGitHubCreateRelease(t *testing.T) {
	m := NewMockRunner()
	m.Results["release view v1.3.0 --json url --jq .url"] = "https://github.com/acme/widgets/releases/tag/v1.3.0"

	g := NewGitHub(m, "/repo", zerolog.Nop())
	g.SetNotes("## 1.3.0\n\n- stuff")

	err := g.CreateRelease(context.Background(), Release{
		TagName:    "v1.3.0",
		Name:       "Release 1.3.0",
		PreRelease: true,
	})
	require.NoError(t, err)

	assert.True(t, m.Ran("release create v1.3.0 --title Release 1.3.0 --notes ## 1.3.0\n\n- stuff --prerelease"))
	assert.True(t, g.IsReleased())
	assert.Equal(t, "https://github.com/acme/widgets/releases/tag/v1.3.0", g.ReleaseURL())
}

func TestGitHubCreateReleaseFailure(t *testing.T) {
	m := NewMockRunner()
	m.Errors["release create v1.3.0 --title Release 1.3.0 --notes notes"] = keelerrors.ErrGitHubOperation

	g := NewGitHub(m, "/repo", zerolog.Nop())
	err := g.CreateRelease(context.Background(), Release{TagName: "v1.3.0", Name: "Release 1.3.0", Notes: "notes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keelerrors.ErrReleaseNotCreated))
	assert.False(t, g.IsReleased())
}

func TestGitHubUploadAssets(t *testing.T) {
	m := NewMockRunner()
	g := NewGitHub(m, "/repo", zerolog.Nop())

	require.NoError(t, g.UploadAssets(context.Background(), "v1.3.0", []string{"dist/a.tgz", "dist/b.tgz"}))
	assert.True(t, m.Ran("release upload v1.3.0 dist/a.tgz dist/b.tgz --clobber"))

	require.NoError(t, g.UploadAssets(context.Background(), "v1.3.0", nil))
	assert.Len(t, m.Calls, 1)
}
