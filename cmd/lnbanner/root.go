package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lnbanner",
	Short: "In-app notification banners for the terminal",
	Long: `lnbanner shows in-app notification banners one at a time.

Registered applications submit notifications, which are queued and shown
in arrival order as a banner that animates in, stays on screen for a
while and animates out before the next one appears.

Run "lnbanner serve" to start the banner daemon; the other commands talk
to a running daemon over the session bus.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Log to stderr until the config says otherwise
		setupLogger(slog.LevelWarn)

		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogger(cfg.LogLevel())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/lnbanner/lnbanner.toml)")
}

// setupLogger configures the global slog logger writing to stderr.
func setupLogger(level slog.Level) {
	setLogLevel(level)

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// setLogLevel changes the level of the global logger. --verbose always
// wins over the configured level.
func setLogLevel(level slog.Level) {
	if globalOpts.verbose {
		level = slog.LevelDebug
	}
	logLevel.Set(level)
}
