package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/dbus"
	"github.com/jmylchreest/lnbanner/internal/model"
)

var styleCmd = &cobra.Command{
	Use:   "style [dark|light|toggle]",
	Short: "Show or change the banner style",
	Long: `Show or change the style used for banners.

A change applies from the next banner on; the banner on screen keeps the
style it was shown with. Without an argument the current style is printed.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dark", "light", "toggle"},
	RunE:      runStyle,
}

func init() {
	rootCmd.AddCommand(styleCmd)
}

func runStyle(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		current, err := client.BannerStyle(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		}

		next, err := resolveStyle(current, args[0])
		if err != nil {
			return err
		}
		if err := client.SetBannerStyle(ctx, next); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), next)
		return nil
	})
}

// resolveStyle returns the style requested by arg given the current one.
func resolveStyle(current model.BannerStyle, arg string) (model.BannerStyle, error) {
	if strings.EqualFold(strings.TrimSpace(arg), "toggle") {
		return current.Toggle(), nil
	}
	return model.ParseBannerStyle(arg)
}
