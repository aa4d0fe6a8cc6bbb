package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontent/internal/logging"
	"github.com/dshills/doccontent/internal/session"
)

type fuzzFlags struct {
	seed           uint64
	sessions       int
	steps          int
	jobs           int
	text           string
	shareDisplaced bool
}

func newFuzzCommand(st *rootState) *cobra.Command {
	flags := &fuzzFlags{}

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run randomized sessions against the reference model",
		Long: `Run seeded random edit sessions. Every operation is applied to a real
document and to an independent reference model; a session fails at the
first step where the two disagree.

Examples:
  doccontent fuzz                          # one session, settings from config
  doccontent fuzz --sessions 64 --jobs 8   # seeds seed..seed+63 in parallel
  doccontent fuzz --seed 1234 --debug      # replay one seed step by step`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFuzz(cmd, st, flags)
		},
	}

	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "first seed (default from config)")
	cmd.Flags().IntVar(&flags.sessions, "sessions", 0, "number of sessions (default from config)")
	cmd.Flags().IntVar(&flags.steps, "steps", 0, "steps per session (default from config)")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "parallel sessions (default GOMAXPROCS)")
	cmd.Flags().StringVar(&flags.text, "text", "", "initial document text")
	cmd.Flags().BoolVar(&flags.shareDisplaced, "share-displaced", false,
		"let new positions share positions collapsed by a removal")

	return cmd
}

func runFuzz(cmd *cobra.Command, st *rootState, flags *fuzzFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	sc := st.cfg.Session
	cc := st.cfg.Content

	if cmd.Flags().Changed("seed") {
		sc.Seed = flags.seed
	}
	if cmd.Flags().Changed("sessions") {
		sc.Sessions = flags.sessions
	}
	if cmd.Flags().Changed("steps") {
		sc.Steps = flags.steps
	}
	if cmd.Flags().Changed("share-displaced") {
		cc.SharingIncludesDisplaced = flags.shareDisplaced
	}
	if sc.Sessions < 1 {
		return fmt.Errorf("--sessions must be at least 1")
	}

	cfg := session.Config{
		Seed:      sc.Seed,
		Steps:     sc.Steps,
		MaxInsert: sc.MaxInsert,
		Alphabet:  sc.Alphabet,
		Text:      flags.text,
		Checker:   st.checkerOptions(ctx, cc),
	}

	logger.Info("fuzzing",
		logging.FieldSeed, sc.Seed,
		logging.FieldSession, sc.Sessions,
		logging.FieldSteps, sc.Steps,
	)

	reports, err := session.RunMany(ctx, cfg, sc.Sessions, flags.jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := session.Failed(reports)
	for _, r := range failed {
		fmt.Fprintf(out, "%s\n  %v\n", r, r.Failure)
	}
	fmt.Fprintf(out, "%d sessions, %d failed\n", len(reports), len(failed))

	if len(failed) > 0 {
		return ErrSessionsFailed
	}
	return nil
}
