package main

import (
	"fmt"
	"io"

	"github.com/pokerjest/animatch/internal/anidb"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	titlesCmd := &cobra.Command{
		Use:   "titles",
		Short: "Manage the local AniDB title index",
	}
	titlesCmd.AddCommand(newTitlesImportCommand(ctx))
	titlesCmd.AddCommand(newTitlesCountCommand(ctx))
	return titlesCmd
}

func newTitlesImportCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the title index with the AniDB anime-titles dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			var r io.Reader
			if file != "" {
				rc, err := anidb.OpenTitleDump(file)
				if err != nil {
					return fmt.Errorf("open title dump: %w", err)
				}
				defer rc.Close()
				r = rc
			} else {
				log.Info().Str("url", a.Client.TitlesURL).Msg("downloading AniDB title dump")
				r, err = a.Client.FetchTitleDump(cmd.Context())
				if err != nil {
					return err
				}
			}

			n, err := anidb.ImportTitles(cmd.Context(), r, a.Catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d titles\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read a local anime-titles.dat(.gz) instead of downloading")
	return cmd
}

func newTitlesCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of indexed titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			n, err := a.Catalog.CountTitles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
