package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/daemon"
	"github.com/jmylchreest/lnbanner/internal/dbus"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

var appsOpts struct {
	format string
	local  bool
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List registered applications",
	Long: `List the applications allowed to present banners.

By default the running daemon is asked. With --local the config file is
read instead, which works without a daemon.`,
	Args: cobra.NoArgs,
	RunE: runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)

	appsCmd.Flags().StringVarP(&appsOpts.format, "format", "f", formatText,
		"Output format (text, json, yaml)")
	appsCmd.Flags().BoolVar(&appsOpts.local, "local", false,
		"Read applications from the config file instead of the daemon")
}

func runApps(cmd *cobra.Command, args []string) error {
	var apps []registry.Application
	if appsOpts.local {
		apps = daemon.NewRegistry(cfg).List()
	} else {
		err := withClient(func(ctx context.Context, client *dbus.Client) error {
			var err error
			apps, err = client.ListApplications(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	return writeFormatted(cmd.OutOrStdout(), appsOpts.format, apps, func(w io.Writer) error {
		return writeAppsText(w, apps)
	})
}

// writeAppsText writes one application per line.
func writeAppsText(w io.Writer, apps []registry.Application) error {
	if len(apps) == 0 {
		_, err := fmt.Fprintln(w, "No applications registered")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tICON")
	for _, app := range apps {
		icon := app.IconPath
		if icon == "" {
			icon = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", app.ID, app.DisplayName(), icon)
	}
	return tw.Flush()
}
