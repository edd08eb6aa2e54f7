package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/config"
	"github.com/jmylchreest/lnbanner/internal/daemon"
	"github.com/jmylchreest/lnbanner/internal/dbus"
	"github.com/jmylchreest/lnbanner/internal/view"
)

var serveOpts struct {
	tui    bool
	noDBus bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the banner daemon",
	Long: `Run the notification center and show banners one at a time.

By default banners are printed to stdout. With --tui an interactive
full-screen view is used instead, which animates banners in and out and
offers key bindings to clear the queue or toggle the banner style. Logs
are written to $XDG_STATE_HOME/lnbanner/lnbanner.log while the TUI runs.

Unless disabled, the control service is exported on the session bus so
"lnbanner present" and the other commands can reach the daemon. The
config file is watched and applied without a restart; changes to the
display width and animation timing need a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveOpts.tui, "tui", false,
		"Use the interactive full-screen view")
	serveCmd.Flags().BoolVar(&serveOpts.noDBus, "no-dbus", false,
		"Do not export the D-Bus control service")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timing := view.Timing{
		In:   cfg.Animation.In.Duration(),
		Out:  cfg.Animation.Out.Duration(),
		Hold: cfg.DisplayDuration,
	}

	var (
		bannerView center.View
		tui        *view.TUI
	)
	if serveOpts.tui {
		logFile, err := redirectLogs()
		if err != nil {
			return err
		}
		defer func() { _ = logFile.Close() }()

		tui = view.NewTUI(cfg.Display.Width, timing)
		bannerView = tui
	} else {
		bannerView = view.NewTerminal(os.Stdout, cfg.Display.Width, timing)
	}

	reg := daemon.NewRegistry(cfg)
	states := daemon.NewDisplayStateManager(100)

	c := center.New(reg, bannerView,
		center.WithLogger(logger),
		center.WithBannerStyle(cfg.Banner.Style),
		center.WithStallWarning(cfg.Behavior.StallWarning.Duration()),
	)
	defer c.Close()

	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetPresenter(c)
	notifier.SetEnabled(cfg.Behavior.SelfNotify)

	server := dbus.NewControlServer(c, reg, states, logger)
	c.SetEventHandler(fanOut(states.HandleEvent, server.HandleEvent))

	if cfg.DBus.Enabled && !serveOpts.noDBus {
		if err := server.Start(); err != nil {
			logger.Warn("D-Bus control service unavailable", "error", err)
			notifier.NotifyBusError(err)
		} else {
			defer func() { _ = server.Stop() }()
		}

		if cfg.DBus.MirrorFreedesktop {
			monitor := dbus.NewMonitor(logger)
			monitor.SetNotifyHandler(dbus.MirrorHandler(c, logger))
			if err := monitor.Start(); err != nil {
				logger.Warn("failed to start notification monitor", "error", err)
			} else {
				defer func() { _ = monitor.Stop() }()
			}
		}
	}

	watcher := daemon.NewConfigWatcher(configPath(), logger)
	watcher.SetReloadCallback(func(prev, next *config.Config) {
		daemon.ApplyConfig(prev, next, reg, c)
		notifier.SetEnabled(next.Behavior.SelfNotify)
		if level := next.LogLevel(); prev == nil || level != prev.LogLevel() {
			setLogLevel(level)
			logger.Info("log level changed", "level", level.String())
		}
		notifier.NotifyConfigReloaded(len(next.Applications))
	})
	watcher.SetErrorCallback(notifier.NotifyConfigError)
	if err := watcher.Start(ctx, cfg); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	logger.Info("lnbanner started",
		"version", version,
		"view", viewName(),
		"style", cfg.Banner.Style.String(),
		"applications", reg.Count())
	notifier.NotifyStartup(version)

	if tui != nil {
		if err := tui.Run(ctx, c); err != nil {
			return fmt.Errorf("banner view failed: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	return nil
}

// fanOut returns an event handler calling each handler in order.
func fanOut(handlers ...center.EventHandler) center.EventHandler {
	return func(ev center.Event) {
		for _, h := range handlers {
			h(ev)
		}
	}
}

// configPath returns the config file in use.
func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.Path()
}

func viewName() string {
	if serveOpts.tui {
		return "tui"
	}
	return "terminal"
}

// logPath returns the log file used while the TUI owns the terminal.
func logPath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "lnbanner", "lnbanner.log")
}

// redirectLogs points the global logger at the log file.
func redirectLogs() (*os.File, error) {
	path := logPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return f, nil
}
