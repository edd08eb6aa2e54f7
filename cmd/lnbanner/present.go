package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/dbus"
)

var presentOpts struct {
	icon  string
	quiet bool
}

var presentCmd = &cobra.Command{
	Use:   "present APP_ID TITLE [DETAIL]",
	Short: "Queue a banner on a running daemon",
	Long: `Queue a notification banner for a registered application.

The application must be listed under [[applications]] in the config file
of the running daemon. The record id is printed on success.

Examples:
  lnbanner present com.example.build "Build finished" "All 312 tests passed"
  lnbanner present com.example.mail "New mail" --icon mail.png`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPresent,
}

func init() {
	rootCmd.AddCommand(presentCmd)

	presentCmd.Flags().StringVar(&presentOpts.icon, "icon", "",
		"Icon image path, or a file name in the resource bundle")
	presentCmd.Flags().BoolVarP(&presentOpts.quiet, "quiet", "q", false,
		"Do not print the record id")
}

func runPresent(cmd *cobra.Command, args []string) error {
	appID, title := args[0], args[1]
	detail := ""
	if len(args) > 2 {
		detail = args[2]
	}

	return withClient(func(ctx context.Context, client *dbus.Client) error {
		id, err := client.Present(ctx, appID, title, detail, presentOpts.icon)
		if errors.Is(err, center.ErrUnregisteredApplication) {
			return fmt.Errorf("%w\nadd it under [[applications]] in %s", err, configPath())
		}
		if err != nil {
			return err
		}
		if !presentOpts.quiet {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	})
}
