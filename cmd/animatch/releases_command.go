package main

import (
	"errors"
	"fmt"

	"github.com/pokerjest/animatch/internal/parser"
	"github.com/spf13/cobra"
)

func newReleasesCommand(ctx *commandContext) *cobra.Command {
	releasesCmd := &cobra.Command{
		Use:   "releases",
		Short: "Maintain matcher state on releases",
	}
	releasesCmd.AddCommand(newReleasesResetCommand(ctx))
	return releasesCmd
}

func newReleasesResetCommand(ctx *commandContext) *cobra.Command {
	var noMatch, extractionFailed, orphans bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear recorded results so the next run retries those releases",
		Long: "Clear recorded results so the next run retries those releases.\n" +
			"Useful after importing a fresh title dump.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var values []int
			if noMatch {
				values = append(values, int(parser.ReasonNoMatch))
			}
			if extractionFailed {
				values = append(values, int(parser.ReasonExtractionFailed))
			}
			if len(values) == 0 && !orphans {
				return errors.New("choose at least one of --no-match, --extraction-failed, --orphans")
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(values) > 0 {
				n, err := a.Releases.ResetValues(cmd.Context(), values...)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Reset %d failed releases\n", n)
			}
			if orphans {
				n, err := a.Releases.ResetOrphaned(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Reset %d orphaned releases\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noMatch, "no-match", false, "Retry releases whose title had no AniDB match")
	cmd.Flags().BoolVar(&extractionFailed, "extraction-failed", false, "Retry releases whose name could not be parsed")
	cmd.Flags().BoolVar(&orphans, "orphans", false, "Retry releases pointing at ids missing from the title index")
	return cmd
}
