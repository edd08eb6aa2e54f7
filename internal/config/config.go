// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

// SelfApplicationID is the application identifier lnbanner uses for its own banners.
const SelfApplicationID = "lnbanner"

// Config represents the lnbanner configuration.
// Loaded from ~/.config/lnbanner/lnbanner.toml
type Config struct {
	Banner       BannerConfig           `toml:"banner"`
	Animation    AnimationConfig        `toml:"animation"`
	Display      DisplayConfig          `toml:"display"`
	Behavior     BehaviorConfig         `toml:"behavior"`
	DBus         DBusConfig             `toml:"dbus"`
	Logging      LoggingConfig          `toml:"logging"`
	Applications []registry.Application `toml:"applications"`
}

// BannerConfig contains banner appearance settings.
type BannerConfig struct {
	Style model.BannerStyle `toml:"style"` // "dark" or "light"
}

// AnimationConfig contains banner transition durations.
type AnimationConfig struct {
	In  Duration `toml:"in"`
	Out Duration `toml:"out"`
}

// DisplayConfig controls how long a banner stays fully visible and how wide it is.
// The hold time is Base + PerRune for every rune of title and detail, capped at Max.
type DisplayConfig struct {
	Base    Duration `toml:"base"`
	PerRune Duration `toml:"per_rune"`
	Max     Duration `toml:"max"`
	Width   int      `toml:"width"` // Banner width in terminal cells
}

// BehaviorConfig contains behavior settings.
type BehaviorConfig struct {
	StallWarning Duration `toml:"stall_warning"` // 0 disables
	SelfNotify   bool     `toml:"self_notify"`   // Show banners for daemon events
}

// DBusConfig contains session bus settings.
type DBusConfig struct {
	Enabled bool `toml:"enabled"`

	// Also show banners for org.freedesktop.Notifications traffic from
	// registered applications. Requires permission to monitor the bus.
	MirrorFreedesktop bool `toml:"mirror_freedesktop"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Banner: BannerConfig{
			Style: model.StyleDark,
		},
		Animation: AnimationConfig{
			In:  Duration(300 * time.Millisecond),
			Out: Duration(300 * time.Millisecond),
		},
		Display: DisplayConfig{
			Base:    Duration(2 * time.Second),
			PerRune: Duration(50 * time.Millisecond),
			Max:     Duration(8 * time.Second),
			Width:   60,
		},
		Behavior: BehaviorConfig{
			StallWarning: Duration(30 * time.Second),
			SelfNotify:   true,
		},
		DBus: DBusConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "lnbanner", "lnbanner.toml")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Overlay file contents onto the defaults
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Banner.Style != model.StyleDark && c.Banner.Style != model.StyleLight {
		return model.ErrInvalidStyle
	}

	if c.Animation.In < 0 || c.Animation.In.Duration() > 10*time.Second {
		return fmt.Errorf("animation.in must be between 0 and 10s, got %s", c.Animation.In.Duration())
	}
	if c.Animation.Out < 0 || c.Animation.Out.Duration() > 10*time.Second {
		return fmt.Errorf("animation.out must be between 0 and 10s, got %s", c.Animation.Out.Duration())
	}

	if c.Display.Base < 0 || c.Display.PerRune < 0 {
		return errors.New("display.base and display.per_rune cannot be negative")
	}
	if c.Display.Max < c.Display.Base {
		return fmt.Errorf("display.max (%s) must not be less than display.base (%s)",
			c.Display.Max.Duration(), c.Display.Base.Duration())
	}
	if c.Display.Width < 20 || c.Display.Width > 200 {
		return fmt.Errorf("display.width must be between 20 and 200, got %d", c.Display.Width)
	}

	if c.Behavior.StallWarning < 0 {
		return errors.New("behavior.stall_warning cannot be negative")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Applications))
	for i, app := range c.Applications {
		id := strings.TrimSpace(app.ID)
		if id == "" {
			return fmt.Errorf("applications[%d]: %w", i, registry.ErrEmptyApplicationID)
		}
		if id == SelfApplicationID {
			return fmt.Errorf("applications[%d]: %q is reserved", i, SelfApplicationID)
		}
		if seen[id] {
			return fmt.Errorf("applications[%d]: %w: %s", i, registry.ErrDuplicateApplication, id)
		}
		seen[id] = true
	}

	return nil
}

// DisplayDuration returns how long a banner with textLen runes of title and
// detail stays fully visible.
func (c *Config) DisplayDuration(textLen int) time.Duration {
	d := c.Display.Base.Duration() + time.Duration(textLen)*c.Display.PerRune.Duration()
	if limit := c.Display.Max.Duration(); d > limit {
		return limit
	}
	return d
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", s)
	}
}
