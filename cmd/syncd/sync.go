package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and the number of queued mutations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, eng, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		eng.Monitor.Probe(ctx)
		st, err := svc.Sync.Status(ctx)
		if err != nil {
			return err
		}

		state := "offline"
		if st.Online {
			state = "online"
		}
		fmt.Printf("remote: %s\npending: %d\n", state, st.Pending)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Drain queued mutations to the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := svc.Sync.Push(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("synced: %d\nfailed: %d\n", res.Synced, res.Failed)
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Refresh local caches from the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.Sync.Pull(ctx, cfg.OwnerID); err != nil {
			return err
		}
		fmt.Println("caches refreshed")
		return nil
	},
}
