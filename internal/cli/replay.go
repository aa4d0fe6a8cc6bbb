package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontent/internal/logging"
	"github.com/dshills/doccontent/internal/scenario"
)

func newReplayCommand(st *rootState) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>...",
		Short: "Replay YAML scenarios",
		Long: `Replay scripted edit scenarios from YAML files and check their
expectations.

Documents start from the [content] config; a scenario's own max_undo and
sharing_includes_displaced take precedence.

With --watch a single file is replayed again every time it changes, until
interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				if len(args) != 1 {
					return fmt.Errorf("--watch takes exactly one file")
				}
				return runWatch(cmd, st, args[0])
			}
			return runReplay(cmd, st, args)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "replay whenever the file changes")

	return cmd
}

func runReplay(cmd *cobra.Command, st *rootState, paths []string) error {
	ctx := cmd.Context()
	base := st.checkerOptions(ctx, st.cfg.Content)
	failed := 0
	for _, path := range paths {
		scs, err := scenario.LoadFile(path)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("replaying", logging.FieldPath, path, "scenarios", len(scs))
		failed += printResults(cmd.OutOrStdout(), scenario.RunAll(ctx, scs, base))
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrScenariosFailed, failed)
	}
	return nil
}

func runWatch(cmd *cobra.Command, st *rootState, path string) error {
	ctx := cmd.Context()
	base := st.checkerOptions(ctx, st.cfg.Content)
	logger := logging.FromContext(ctx)
	out := cmd.OutOrStdout()

	logger.Info("watching", logging.FieldPath, path)
	return scenario.Watch(ctx, path, scenario.DefaultDebounce, base, func(results []scenario.Result, err error) {
		if err != nil {
			logger.Error("load failed", logging.FieldError, err)
			return
		}
		printResults(out, results)
	})
}

// printResults writes one line per scenario and returns the failure count.
func printResults(w io.Writer, results []scenario.Result) int {
	failed := 0
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(w, "PASS %s (%d steps)\n", r.Name, r.Steps)
			continue
		}
		failed++
		fmt.Fprintf(w, "FAIL %s\n", r.Name)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return failed
}
