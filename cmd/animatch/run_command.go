package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve one batch of unmatched anime releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			sum, err := a.Runner.Run(cmd.Context(), maxItems)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"selected=%d matched=%d local=%d remote=%d extraction_failed=%d no_match=%d\n",
				sum.Selected, sum.Matched, sum.Local, sum.Remote, sum.ExtractionFailed, sum.NoMatch)
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxItems, "max", "n", 0, "Maximum releases to process (default matcher.max_processed)")
	return cmd
}
