package config

import (
	"os"
	"path/filepath"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
)

// GlobalConfigDir returns the path to the global keel configuration
// directory, typically ~/.keel. The KEEL_HOME environment variable
// overrides the location.
func GlobalConfigDir() (string, error) {
	if custom := os.Getenv(constants.EnvKeelHome); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.KeelHome), nil
}

// GlobalConfigPath returns the full path to the global configuration
// file, typically ~/.keel/config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProjectConfigPath returns the project configuration file name,
// resolved relative to the working directory.
func ProjectConfigPath() string {
	return ".keel.yaml"
}
