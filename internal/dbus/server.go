package dbus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/daemon"
	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

const (
	// DBusInterface is the control interface name.
	DBusInterface = "io.github.jmylchreest.lnbanner"
	// DBusPath is the control object path.
	DBusPath = "/io/github/jmylchreest/lnbanner"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.lnbanner"
)

// Center is the notification center as seen by the control service.
type Center interface {
	Present(rec *model.Record, appID string) error
	ClearPending(appID string) int
	ClearAllPending() int
	SetBannerStyle(style model.BannerStyle)
	BannerStyle() model.BannerStyle
	Snapshot() center.Snapshot
}

// Applications lists registered applications.
type Applications interface {
	List() []registry.Application
}

// Status is the reply of the Status method.
type Status struct {
	center.Snapshot `yaml:",inline"`
	Recent          []daemon.DisplayState `json:"recent,omitempty" yaml:"recent,omitempty"`
}

// ControlServer exports the notification center on the session bus.
type ControlServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	center Center
	apps   Applications
	states *daemon.DisplayStateManager

	mu      sync.RWMutex
	running bool
}

// NewControlServer creates a ControlServer for c. states may be nil.
func NewControlServer(c Center, apps Applications, states *daemon.DisplayStateManager, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		logger: logger,
		center: c,
		apps:   apps,
		states: states,
	}
}

// Start connects to the session bus and exports the control service.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control service started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus control service stopped")
	return nil
}

// Present queues a banner for app_id and returns the record id.
// D-Bus method: Present(ssss) -> s
func (s *ControlServer) Present(appID, title, detail, icon string) (string, *dbus.Error) {
	s.logger.Debug("Present called", "app_id", appID, "title", title)

	rec, err := model.NewRecord(title, detail, icon)
	if err != nil {
		return "", toDBusError(err)
	}
	if err := rec.Validate(); err != nil {
		return "", toDBusError(err)
	}

	if s.states != nil {
		s.states.Register(rec.ID, appID, rec.Title)
	}
	if err := s.center.Present(rec, appID); err != nil {
		if s.states != nil {
			s.states.Remove(rec.ID)
		}
		return "", toDBusError(err)
	}
	return rec.ID, nil
}

// ClearPending removes queued banners for app_id.
// D-Bus method: ClearPending(s) -> u
func (s *ControlServer) ClearPending(appID string) (uint32, *dbus.Error) {
	s.logger.Debug("ClearPending called", "app_id", appID)
	return uint32(s.center.ClearPending(appID)), nil
}

// ClearAllPending removes every queued banner.
// D-Bus method: ClearAllPending() -> u
func (s *ControlServer) ClearAllPending() (uint32, *dbus.Error) {
	s.logger.Debug("ClearAllPending called")
	return uint32(s.center.ClearAllPending()), nil
}

// SetBannerStyle sets the style used from the next banner on.
// D-Bus method: SetBannerStyle(s)
func (s *ControlServer) SetBannerStyle(style string) *dbus.Error {
	s.logger.Debug("SetBannerStyle called", "style", style)

	parsed, err := model.ParseBannerStyle(style)
	if err != nil {
		return toDBusError(err)
	}
	s.center.SetBannerStyle(parsed)
	return nil
}

// GetBannerStyle returns the style the next banner will use.
// D-Bus method: GetBannerStyle() -> s
func (s *ControlServer) GetBannerStyle() (string, *dbus.Error) {
	return s.center.BannerStyle().String(), nil
}

// Status returns the center snapshot and recent outcomes as JSON.
// D-Bus method: Status() -> s
func (s *ControlServer) Status() (string, *dbus.Error) {
	status := Status{Snapshot: s.center.Snapshot()}
	if s.states != nil {
		status.Recent = s.states.Recent()
	}

	data, err := json.Marshal(status)
	if err != nil {
		return "", toDBusError(fmt.Errorf("failed to encode status: %w", err))
	}
	return string(data), nil
}

// ListApplications returns the registered applications as JSON.
// D-Bus method: ListApplications() -> s
func (s *ControlServer) ListApplications() (string, *dbus.Error) {
	data, err := json.Marshal(s.apps.List())
	if err != nil {
		return "", toDBusError(fmt.Errorf("failed to encode applications: %w", err))
	}
	return string(data), nil
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Present",
			Args: []introspect.Arg{
				{Name: "app_id", Type: "s", Direction: "in"},
				{Name: "title", Type: "s", Direction: "in"},
				{Name: "detail", Type: "s", Direction: "in"},
				{Name: "icon", Type: "s", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "ClearPending",
			Args: []introspect.Arg{
				{Name: "app_id", Type: "s", Direction: "in"},
				{Name: "removed", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "ClearAllPending",
			Args: []introspect.Arg{
				{Name: "removed", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "SetBannerStyle",
			Args: []introspect.Arg{
				{Name: "style", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "GetBannerStyle",
			Args: []introspect.Arg{
				{Name: "style", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status_json", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "ListApplications",
			Args: []introspect.Arg{
				{Name: "applications_json", Type: "s", Direction: "out"},
			},
		},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "Presented",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "app_id", Type: "s"},
			},
		},
		{
			Name: "Dismissed",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "app_id", Type: "s"},
				{Name: "reason", Type: "s"},
			},
		},
		{
			Name: "Cleared",
			Args: []introspect.Arg{
				{Name: "app_id", Type: "s"},
				{Name: "removed", Type: "u"},
			},
		},
	}
}
