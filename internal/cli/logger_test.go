package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLevel(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		quiet    bool
		expected zerolog.Level
	}{
		{name: "default", expected: zerolog.InfoLevel},
		{name: "verbose", verbose: true, expected: zerolog.DebugLevel},
		{name: "quiet", quiet: true, expected: zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, selectLevel(tt.verbose, tt.quiet))
		})
	}
}

func TestInitLoggerWithWriter(t *testing.T) {
	t.Run("verbose includes debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(true, false, &buf)
		logger.Debug().Msg("debug line")
		assert.Contains(t, buf.String(), "debug line")
	})

	t.Run("quiet drops info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(false, true, &buf)
		logger.Info().Msg("info line")
		logger.Warn().Msg("warn line")
		assert.NotContains(t, buf.String(), "info line")
		assert.Contains(t, buf.String(), "warn line")
	})

	t.Run("sensitive messages are flagged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(false, false, &buf)
		logger.Info().Msg("using ghp_supersecretvalue12345678 for auth")
		assert.Contains(t, buf.String(), "contains_filtered_data")
	})
}

func TestCreateLogFileWriter(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KEEL_HOME", home)

	w, err := createLogFileWriter()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte(`{"level":"info","event":"test"}` + "\n"))
	require.NoError(t, err)

	path, err := LogFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "keel.log"), path)
	assert.FileExists(t, path)
}
