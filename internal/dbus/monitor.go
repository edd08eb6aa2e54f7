package dbus

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/model"
)

const (
	freedesktopInterface = "org.freedesktop.Notifications"
	freedesktopNotify    = "Notify"
)

// NotifyHandler is called for every observed Notify call.
type NotifyHandler func(notification *DBusNotification)

// Presenter accepts records for presentation. Implemented by the notification center.
type Presenter interface {
	Present(rec *model.Record, appID string) error
}

// Monitor passively observes org.freedesktop.Notifications traffic without
// claiming the bus name, so it runs alongside the desktop's notification daemon.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify NotifyHandler
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetNotifyHandler sets the callback for observed notifications.
func (m *Monitor) SetNotifyHandler(handler NotifyHandler) {
	m.onNotify = handler
}

// Start begins monitoring the session bus for Notify calls.
// A monitoring connection cannot be used for anything else, so the monitor
// opens its own private connection.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	rules := []string{
		fmt.Sprintf("type='method_call',interface='%s',member='%s'", freedesktopInterface, freedesktopNotify),
	}

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		rules,
		uint32(0),
	).Err

	if err != nil {
		// BecomeMonitor might not be available (older D-Bus versions)
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		return m.startWithAddMatch()
	}

	m.logger.Info("started D-Bus monitor using BecomeMonitor")

	go m.processMessages()
	return nil
}

// startWithAddMatch uses the older AddMatch API for eavesdropping.
func (m *Monitor) startWithAddMatch() error {
	matchRule := fmt.Sprintf("type='method_call',interface='%s',member='%s',eavesdrop='true'",
		freedesktopInterface, freedesktopNotify)

	err := m.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch",
		0,
		matchRule,
	).Err
	if err != nil {
		m.conn.Close()
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")

	go m.processMessages()
	return nil
}

// processMessages reads and processes D-Bus messages until the connection closes.
func (m *Monitor) processMessages() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		m.handleMessage(msg)
	}
}

func (m *Monitor) handleMessage(msg *dbus.Message) {
	if !isNotifyCall(msg) {
		return
	}

	notification, err := parseNotify(msg)
	if err != nil {
		m.logger.Warn("malformed Notify call", "error", err)
		return
	}

	m.logger.Debug("captured notification",
		"app", notification.AppName,
		"summary", notification.Summary,
	)

	if m.onNotify != nil {
		m.onNotify(notification)
	}
}

func isNotifyCall(msg *dbus.Message) bool {
	if msg == nil || msg.Type != dbus.TypeMethodCall {
		return false
	}
	iface, ok := msg.Headers[dbus.FieldInterface]
	if !ok || iface.Value() != freedesktopInterface {
		return false
	}
	member, ok := msg.Headers[dbus.FieldMember]
	return ok && member.Value() == freedesktopNotify
}

// parseNotify decodes Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func parseNotify(msg *dbus.Message) (*DBusNotification, error) {
	if len(msg.Body) < 8 {
		return nil, fmt.Errorf("expected 8 arguments, got %d", len(msg.Body))
	}

	notification := &DBusNotification{}

	var ok bool
	if notification.AppName, ok = msg.Body[0].(string); !ok {
		return nil, errors.New("invalid app_name type")
	}
	if notification.ReplacesID, ok = msg.Body[1].(uint32); !ok {
		return nil, errors.New("invalid replaces_id type")
	}
	if notification.AppIcon, ok = msg.Body[2].(string); !ok {
		return nil, errors.New("invalid app_icon type")
	}
	if notification.Summary, ok = msg.Body[3].(string); !ok {
		return nil, errors.New("invalid summary type")
	}
	if notification.Body, ok = msg.Body[4].(string); !ok {
		return nil, errors.New("invalid body type")
	}

	if actions, ok := msg.Body[5].([]string); ok {
		notification.Actions = actions
	}
	if hints, ok := msg.Body[6].(map[string]dbus.Variant); ok {
		notification.Hints = hints
	}
	if timeout, ok := msg.Body[7].(int32); ok {
		notification.ExpireTimeout = timeout
	}

	return notification, nil
}

// Stop stops the monitor.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

// MirrorHandler returns a NotifyHandler that presents observed notifications
// from registered applications. Notifications from other applications are
// ignored.
func MirrorHandler(p Presenter, logger *slog.Logger) NotifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(n *DBusNotification) {
		rec, err := n.Record()
		if err != nil {
			logger.Debug("ignoring notification without summary", "app", n.AppName)
			return
		}

		appID := n.ApplicationID()
		if err := p.Present(rec, appID); err != nil {
			if errors.Is(err, center.ErrUnregisteredApplication) {
				logger.Debug("ignoring notification from unregistered application", "app_id", appID)
				return
			}
			logger.Warn("failed to mirror notification", "app_id", appID, "error", err)
		}
	}
}
