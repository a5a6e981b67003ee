package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, eng, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		eng.Start(ctx)
		<-ctx.Done()
		eng.Stop()
		return nil
	},
}
