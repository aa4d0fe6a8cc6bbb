package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontent/internal/content"
	"github.com/dshills/doccontent/internal/logging"
	"github.com/dshills/doccontent/internal/script"
)

func newScriptCommand(st *rootState) *cobra.Command {
	var (
		text      string
		printText bool
	)

	cmd := &cobra.Command{
		Use:   "script <file.lua>",
		Short: "Run a Lua script against a document",
		Long: `Run a sandboxed Lua script against a fresh document. The script sees a
global table "doc" with insert, remove, undo, redo, position,
backward_position, offset, release, text and length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := append(st.cfg.Content.Options(),
				content.WithText(text),
				content.WithLogger(st.contentLogger(ctx)),
			)
			doc := content.New(opts...)

			eng := script.New(doc, script.WithOutput(cmd.OutOrStdout()))
			defer eng.Close()

			if err := eng.DoFile(ctx, args[0]); err != nil {
				return err
			}
			stats := doc.Stats()
			logging.FromContext(ctx).Debug("script done",
				logging.FieldPath, args[0],
				logging.FieldLength, stats.Length,
				logging.FieldPositions, stats.LivePositions,
			)
			if printText {
				fmt.Fprintln(cmd.OutOrStdout(), doc.Text())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "initial document text")
	cmd.Flags().BoolVar(&printText, "print", false, "print the final document text")

	return cmd
}
