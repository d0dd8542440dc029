// Package main provides the entry point for the keel CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/keel/internal/cli"
)

// Build information, injected via ldflags.
var (
	version = "dev"     //nolint:gochecknoglobals // Set at build time
	commit  = "none"    //nolint:gochecknoglobals // Set at build time
	date    = "unknown" //nolint:gochecknoglobals // Set at build time
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	cli.CloseLogFile()
	os.Exit(cli.ExitCodeForError(err))
}
