// Package cli provides the Cobra command structure for doccontent.
package cli

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/doccontent/internal/config"
	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/logging"
)

// Errors signalling a failed run through the exit code.
var (
	ErrSessionsFailed  = errors.New("sessions failed")
	ErrScenariosFailed = errors.New("scenarios failed")
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootState is filled in before any subcommand runs.
type rootState struct {
	configPath string
	debug      bool
	cfg        config.Config
	runID      string
}

// NewRootCommand creates the root doccontent command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	st := &rootState{}

	rootCmd := &cobra.Command{
		Use:   "doccontent",
		Short: "Exercise and verify edit-surviving document positions",
		Long: `doccontent drives a text document whose positions survive edits and
whose edits can be undone and redone.

It runs randomized sessions against a reference model, replays YAML
scenarios, and runs Lua scripts against a document.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&st.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file")

	rootCmd.AddCommand(newFuzzCommand(st))
	rootCmd.AddCommand(newReplayCommand(st))
	rootCmd.AddCommand(newScriptCommand(st))
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

func (st *rootState) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.debug {
		cfg.Log.Level = "debug"
	}
	st.cfg = cfg
	st.runID = uuid.NewString()

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level).
		With(logging.FieldRunID, st.runID)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logger))

	logger.Debug("configuration loaded",
		logging.FieldPath, st.configPath,
		"max_undo", cfg.Content.MaxUndo,
		"sharing_includes_displaced", cfg.Content.SharingIncludesDisplaced,
	)
	return nil
}

// contentLogger returns the logger documents should use: the command logger
// when debugging, otherwise nothing, since documents only log at debug level.
func (st *rootState) contentLogger(ctx context.Context) *log.Logger {
	if logging.ParseLevel(st.cfg.Log.Level) == log.DebugLevel {
		return logging.FromContext(ctx)
	}
	return logging.Discard()
}

// checkerOptions builds document options from the [content] config.
func (st *rootState) checkerOptions(ctx context.Context, cc config.ContentConfig) mirror.Options {
	return mirror.Options{
		MaxUndo:                  cc.MaxUndo,
		SweepThreshold:           cc.SweepThreshold,
		InitialCapacity:          cc.InitialCapacity,
		SharingIncludesDisplaced: cc.SharingIncludesDisplaced,
		Logger:                   st.contentLogger(ctx),
	}
}
