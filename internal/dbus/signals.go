package dbus

import (
	"fmt"

	"github.com/jmylchreest/lnbanner/internal/center"
)

// Dismissal reasons carried by the Dismissed signal.
const (
	ReasonDismissed = "dismissed"
	ReasonFailed    = "failed"
)

// HandleEvent emits the signal matching a center event. It is a no-op
// until the server has started.
func (s *ControlServer) HandleEvent(ev center.Event) {
	var err error
	switch ev.Type {
	case center.EventPresented:
		err = s.EmitPresented(ev.RecordID, ev.ApplicationID)
	case center.EventDismissed:
		err = s.EmitDismissed(ev.RecordID, ev.ApplicationID, ReasonDismissed)
	case center.EventFailed:
		err = s.EmitDismissed(ev.RecordID, ev.ApplicationID, ReasonFailed)
	case center.EventCleared:
		err = s.EmitCleared(ev.ApplicationID, ev.Count)
	default:
		return
	}
	if err != nil && err != errNotConnected {
		s.logger.Warn("failed to emit signal", "event", string(ev.Type), "id", ev.RecordID, "error", err)
	}
}

var errNotConnected = fmt.Errorf("not connected to D-Bus")

func (s *ControlServer) emit(member string, values ...any) error {
	s.mu.RLock()
	conn, running := s.conn, s.running
	s.mu.RUnlock()

	if conn == nil || !running {
		return errNotConnected
	}
	if err := conn.Emit(DBusPath, DBusInterface+"."+member, values...); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", member, err)
	}
	return nil
}

// EmitPresented emits the Presented signal when a banner starts on screen.
func (s *ControlServer) EmitPresented(id, appID string) error {
	if err := s.emit("Presented", id, appID); err != nil {
		return err
	}
	s.logger.Debug("emitted Presented signal", "id", id, "app_id", appID)
	return nil
}

// EmitDismissed emits the Dismissed signal when a banner session ends.
func (s *ControlServer) EmitDismissed(id, appID, reason string) error {
	if err := s.emit("Dismissed", id, appID, reason); err != nil {
		return err
	}
	s.logger.Debug("emitted Dismissed signal", "id", id, "app_id", appID, "reason", reason)
	return nil
}

// EmitCleared emits the Cleared signal. An empty app id means all applications.
func (s *ControlServer) EmitCleared(appID string, removed int) error {
	if err := s.emit("Cleared", appID, uint32(removed)); err != nil {
		return err
	}
	s.logger.Debug("emitted Cleared signal", "app_id", appID, "removed", removed)
	return nil
}
