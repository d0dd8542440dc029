package config

// DefaultConfig returns a new Config with the built-in default values.
// These defaults are the base layer overridden by config files,
// environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			Enabled:       true,
			Commit:        true,
			Tag:           true,
			Push:          true,
			Remote:        "origin",
			CommitMessage: "Release ${version}",
			TagAnnotation: "Release ${version}",

			// A dirty tree or missing upstream aborts the release
			// before anything mutates.
			RequireCleanWorkingDir: true,
			RequireUpstream:        true,
		},
		GitHub: GitHubConfig{
			Enabled: true,
		},
		GitLab: GitLabConfig{
			// GitLab is opt-in; most projects release to one host.
			Enabled: false,
		},
		Npm: NpmConfig{
			Enabled: true,
			Tag:     "latest",
		},
		Dist: DistConfig{
			Enabled:  false,
			StageDir: ".keel-dist",
		},
		Hooks: map[string]string{},
	}
}
