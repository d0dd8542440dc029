package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/keel/internal/errors"
)

// newViperInstance creates a Viper instance with the standard keel
// configuration: KEEL_ env prefix, key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("KEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError reports whether err is viper's missing-file error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

// unmarshalAndValidate unmarshals the viper state into a Config and
// validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Hooks = NormalizeHooks(cfg.Hooks)
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper
// precedence: KEEL_* environment variables over project config
// (.keel.yaml) over global config (~/.keel/config.yaml) over defaults.
// Missing config files are not errors.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Bool("git.enabled", cfg.Git.Enabled).
		Bool("npm.enabled", cfg.Npm.Enabled).
		Bool("github.enabled", cfg.GitHub.Enabled).
		Bool("gitlab.enabled", cfg.GitLab.Enabled).
		Bool("dist.enabled", cfg.Dist.Enabled).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadFromPaths loads configuration from explicit file paths, bypassing
// discovery. Either path can be empty to skip that layer. Used by tests
// and the --config flag.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}
	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// loadGlobalConfig loads ~/.keel/config.yaml when it exists.
func loadGlobalConfig(v *viper.Viper) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return nil //nolint:nilerr // no home directory means no global config
	}
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig merges .keel.yaml from the working directory when it
// exists.
func loadProjectConfig(v *viper.Viper) error {
	path := ProjectConfigPath()
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the yaml tag names exactly.
func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "")

	v.SetDefault("version.strategy", "")
	v.SetDefault("version.pre_release_id", "")

	v.SetDefault("git.enabled", true)
	v.SetDefault("git.commit", true)
	v.SetDefault("git.tag", true)
	v.SetDefault("git.push", true)
	v.SetDefault("git.remote", "origin")
	v.SetDefault("git.commit_message", "Release ${version}")
	v.SetDefault("git.tag_template", "")
	v.SetDefault("git.tag_annotation", "Release ${version}")
	v.SetDefault("git.require_clean_working_dir", true)
	v.SetDefault("git.require_upstream", true)

	v.SetDefault("github.enabled", true)
	v.SetDefault("github.draft", false)
	v.SetDefault("github.assets", []string{})

	v.SetDefault("gitlab.enabled", false)

	v.SetDefault("npm.enabled", true)
	v.SetDefault("npm.registry", "")
	v.SetDefault("npm.tag", "latest")
	v.SetDefault("npm.access", "")
	v.SetDefault("npm.otp", "")

	v.SetDefault("dist.enabled", false)
	v.SetDefault("dist.repo", "")
	v.SetDefault("dist.stage_dir", ".keel-dist")
	v.SetDefault("dist.tag_template", "")

	v.SetDefault("hooks", map[string]string{})
}

// viperDecoderOption configures mapstructure to convert duration strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
