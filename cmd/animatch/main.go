package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pokerjest/animatch/internal/db"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, newRootCommand()); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// execute runs the command tree and closes the database whatever the outcome.
func execute(ctx context.Context, cmd *cobra.Command) error {
	defer db.CloseDB()
	return cmd.ExecuteContext(ctx)
}
