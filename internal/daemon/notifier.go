package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lnbanner/internal/config"
	"github.com/jmylchreest/lnbanner/internal/model"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning
	// NotificationLevelError is for error messages.
	NotificationLevelError
)

// String returns the string representation of the level.
func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "info"
	}
}

// icon returns the bundled image shown for the level.
func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelWarning:
		return "dialog-warning.png"
	case NotificationLevelError:
		return "dialog-error.png"
	default:
		return "dialog-information.png"
	}
}

// Presenter accepts records for presentation. Implemented by the notification center.
type Presenter interface {
	Present(rec *model.Record, appID string) error
}

// InternalNotifier presents banners about lnbanner's own events.
// It uses rate limiting to prevent notification floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	presenter Presenter

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second, // Don't repeat same notification within 5 seconds
		enabled:        true,
	}
}

// SetPresenter sets where internal notifications are sent.
func (n *InternalNotifier) SetPresenter(p Presenter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presenter = p
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify presents an internal notification if not rate-limited.
// The key is used for rate limiting - same key won't notify again within minInterval.
// Reports whether the notification was queued.
func (n *InternalNotifier) Notify(key, title, detail string, level NotificationLevel) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}
	presenter := n.presenter
	if presenter == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no presenter", "title", title)
		return false
	}

	if lastTime, ok := n.lastNotifyTime[key]; ok && time.Since(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "title", title)
		return false
	}
	n.lastNotifyTime[key] = time.Now()
	n.mu.Unlock()

	rec, err := model.NewRecord(title, detail, level.icon())
	if err != nil {
		n.logger.Warn("failed to build internal notification", "key", key, "error", err)
		return false
	}

	n.logger.Debug("sending internal notification", "key", key, "title", title, "level", level.String())

	if err := presenter.Present(rec, config.SelfApplicationID); err != nil {
		n.logger.Warn("failed to present internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigReloaded presents a banner about the config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded(applications int) {
	detail := fmt.Sprintf("lnbanner configuration has been reloaded. %d applications registered.", applications)
	if applications == 1 {
		detail = "lnbanner configuration has been reloaded. 1 application registered."
	}
	n.Notify("config-reload", "Configuration Reloaded", detail, NotificationLevelInfo)
}

// NotifyConfigError presents a banner about a config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyBusError presents a banner when the D-Bus service could not start.
func (n *InternalNotifier) NotifyBusError(err error) {
	n.Notify(
		"dbus-error",
		"D-Bus Unavailable",
		"Remote control is disabled: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyStartup presents a banner that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"lnbanner Started",
		"Notification banners v"+version+" are now being shown.",
		NotificationLevelInfo,
	)
}
