package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/dbus"
)

var clearOpts struct {
	all bool
}

var clearCmd = &cobra.Command{
	Use:   "clear [APP_ID]",
	Short: "Remove queued banners",
	Long: `Remove banners that are still waiting to be shown.

The banner currently on screen is never affected.

Examples:
  lnbanner clear com.example.build   # Drop queued banners of one application
  lnbanner clear --all               # Drop every queued banner`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolVarP(&clearOpts.all, "all", "a", false,
		"Remove queued banners of every application")
}

func runClear(cmd *cobra.Command, args []string) error {
	if clearOpts.all == (len(args) == 1) {
		return fmt.Errorf("specify either an application id or --all")
	}

	return withClient(func(ctx context.Context, client *dbus.Client) error {
		var (
			removed int
			err     error
		)
		if clearOpts.all {
			removed, err = client.ClearAllPending(ctx)
		} else {
			removed, err = client.ClearPending(ctx, args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pending %s\n", removed, plural(removed, "banner", "banners"))
		return nil
	})
}
