package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPopulateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "populate <aid>...",
		Short: "Refresh series info and episodes for AniDB ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aids := make([]int, 0, len(args))
			for _, arg := range args {
				aid, err := strconv.Atoi(arg)
				if err != nil || aid <= 0 {
					return fmt.Errorf("invalid AniDB id %q", arg)
				}
				aids = append(aids, aid)
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			for i, aid := range aids {
				if i > 0 {
					a.Cooldown.Pause()
				}
				if err := a.Populator.Populate(cmd.Context(), aid); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Populated %d\n", aid)
			}
			return nil
		},
	}
}
