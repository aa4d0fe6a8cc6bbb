// Package main is the entry point for the doccontent CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/doccontent/internal/cli"
	"github.com/dshills/doccontent/internal/logging"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info := cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	rootCmd := cli.NewRootCommand(info)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Failed sessions and scenarios have already been reported.
		if !errors.Is(err, cli.ErrSessionsFailed) && !errors.Is(err, cli.ErrScenariosFailed) {
			logging.Default().Error("command failed", logging.FieldError, err)
		}
		return 1
	}
	return 0
}
