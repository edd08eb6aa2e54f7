package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/dbus"
)

const formatWaybar = "waybar"

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running daemon",
	Long: `Show the banner on screen, the queued banners and recent outcomes.

With --format waybar the output is a single line in Waybar's custom module
JSON format:

  "custom/lnbanner": {
    "exec": "lnbanner status --format waybar",
    "interval": 2,
    "return-type": "json",
    "on-click": "lnbanner clear --all"
  }

The Waybar text is the number of queued banners and the class is one of
empty, queued, active or error.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", formatText,
		"Output format (text, json, yaml, waybar)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	var status *dbus.Status
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		var err error
		status, err = client.Status(ctx)
		return err
	})

	if statusOpts.format == formatWaybar {
		if err != nil {
			logger.Debug("status unavailable", "error", err)
			return outputWaybar(w, WaybarStatus{Text: "", Alt: "error", Class: "error", Tooltip: "lnbanner is not running"})
		}
		return outputWaybar(w, generateWaybarStatus(status))
	}
	if err != nil {
		return err
	}

	return writeFormatted(w, statusOpts.format, status, func(w io.Writer) error {
		return writeStatusText(w, status, time.Now())
	})
}

// generateWaybarStatus creates a WaybarStatus from a daemon status.
func generateWaybarStatus(status *dbus.Status) WaybarStatus {
	pending := len(status.Pending)

	if status.Active == nil && pending == 0 {
		return WaybarStatus{
			Text:    "",
			Alt:     "empty",
			Tooltip: "No banners",
			Class:   "empty",
		}
	}

	class := "queued"
	if status.Active != nil {
		class = "active"
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%d", pending),
		Alt:        class,
		Tooltip:    buildWaybarTooltip(status),
		Class:      class,
		Percentage: min(pending, 100),
	}
}

// buildWaybarTooltip lists the active banner and the queued titles.
func buildWaybarTooltip(status *dbus.Status) string {
	var lines []string

	if a := status.Active; a != nil {
		lines = append(lines, fmt.Sprintf("%s: %s", a.ApplicationName, a.Record.Title))
	}
	if n := len(status.Pending); n > 0 {
		lines = append(lines, fmt.Sprintf("%d queued", n))
		for _, rec := range status.Pending {
			lines = append(lines, "  "+rec.Title)
		}
	}
	return strings.Join(lines, "\n")
}

func outputWaybar(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}

// writeStatusText writes the human-readable status. now anchors relative times.
func writeStatusText(w io.Writer, status *dbus.Status, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "State:\t%s\n", status.State)
	fmt.Fprintf(tw, "Style:\t%s\n", status.Style)

	if a := status.Active; a != nil {
		fmt.Fprintf(tw, "Active:\t%s: %s (%s, started %s)\n",
			a.ApplicationName, a.Record.Title, a.Style, relTime(a.StartedAt, now))
	} else {
		fmt.Fprintf(tw, "Active:\t-\n")
	}

	fmt.Fprintf(tw, "Pending:\t%d\n", len(status.Pending))
	for _, rec := range status.Pending {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", rec.ApplicationID, rec.Title, relTime(rec.EnqueuedAt, now))
	}

	if len(status.Recent) > 0 {
		fmt.Fprintf(tw, "Recent:\t\n")
		for _, st := range status.Recent {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", st.Status, st.ApplicationID, st.Title, relTime(st.CreatedAt, now))
		}
	}
	return tw.Flush()
}

func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
