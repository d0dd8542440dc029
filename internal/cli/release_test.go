package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/keel/internal/config"
)

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GitLab.Enabled = true

	applyFlagOverrides(cfg, &releaseFlags{noGit: true, noNpm: true, noGitHub: true, noGitLab: true})

	assert.False(t, cfg.Git.Enabled)
	assert.False(t, cfg.Npm.Enabled)
	assert.False(t, cfg.GitHub.Enabled)
	assert.False(t, cfg.GitLab.Enabled)
}

func TestApplyFlagOverridesKeepsConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	applyFlagOverrides(cfg, &releaseFlags{})

	assert.True(t, cfg.Git.Enabled)
	assert.True(t, cfg.Npm.Enabled)
	assert.True(t, cfg.GitHub.Enabled)
}

func TestClientFactoryManifestHandling(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Git.Enabled = false
	cfg.GitHub.Enabled = false
	cfg.GitLab.Enabled = false

	factory := newClientFactory(cfg, zerolog.Nop())

	t.Run("missing manifest disables npm", func(t *testing.T) {
		clients, err := factory(context.Background(), t.TempDir(), "")
		require.NoError(t, err)
		assert.Nil(t, clients.NPM)
		assert.Nil(t, clients.Git)
		assert.Nil(t, clients.GitHub)
		assert.Nil(t, clients.GitLab)
	})

	t.Run("manifest wires the npm client", func(t *testing.T) {
		dir := t.TempDir()
		manifest := `{"name": "widgets", "version": "1.2.3"}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o600))

		clients, err := factory(context.Background(), dir, "")
		require.NoError(t, err)
		require.NotNil(t, clients.NPM)
		assert.Equal(t, "widgets", clients.NPM.Manifest().Name)
		assert.Equal(t, "1.2.3", clients.NPM.Manifest().Version)
	})
}

func TestClientFactoryGitLabRemote(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Git.Enabled = false
	cfg.GitHub.Enabled = false
	cfg.GitLab.Enabled = true
	cfg.Npm.Enabled = false

	factory := newClientFactory(cfg, zerolog.Nop())

	// An explicit remote url skips the git lookup entirely.
	clients, err := factory(context.Background(), t.TempDir(), "git@gitlab.com:acme/widgets.git")
	require.NoError(t, err)
	assert.NotNil(t, clients.GitLab)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	t.Setenv("KEEL_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: widgets\n"), 0o600))

	cfg, err := loadConfig(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "widgets", cfg.Name)
}
