package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/lnbanner/internal/center"
)

// DisplayStatus represents where a notification is in its banner lifecycle.
type DisplayStatus int

const (
	// DisplayStatusPending means the notification is queued for display.
	DisplayStatusPending DisplayStatus = iota
	// DisplayStatusActive means the banner is animating in.
	DisplayStatusActive
	// DisplayStatusDisplayed means the banner is fully visible.
	DisplayStatusDisplayed
	// DisplayStatusDismissed means the banner finished and left the screen.
	DisplayStatusDismissed
	// DisplayStatusFailed means the view could not draw the banner.
	DisplayStatusFailed
	// DisplayStatusCleared means the notification was removed before it was shown.
	DisplayStatusCleared
)

// String returns the string representation of DisplayStatus.
func (s DisplayStatus) String() string {
	switch s {
	case DisplayStatusPending:
		return "pending"
	case DisplayStatusActive:
		return "active"
	case DisplayStatusDisplayed:
		return "displayed"
	case DisplayStatusDismissed:
		return "dismissed"
	case DisplayStatusFailed:
		return "failed"
	case DisplayStatusCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s DisplayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DisplayStatus) UnmarshalText(text []byte) error {
	for status := DisplayStatusPending; status <= DisplayStatusCleared; status++ {
		if status.String() == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown display status %q", text)
}

// closed reports whether the status is final.
func (s DisplayStatus) closed() bool {
	return s == DisplayStatusDismissed || s == DisplayStatusFailed || s == DisplayStatusCleared
}

// DisplayState tracks one notification through the banner lifecycle.
type DisplayState struct {
	ID            string        `json:"id" yaml:"id"`
	ApplicationID string        `json:"app_id" yaml:"app_id"`
	Title         string        `json:"title" yaml:"title"`
	Status        DisplayStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	ClosedAt      time.Time     `json:"closed_at,omitzero" yaml:"closed_at,omitempty"`
}

// DisplayStateManager records the outcome of recent notifications from
// center events. Closed entries beyond the limit are forgotten oldest first.
type DisplayStateManager struct {
	mu    sync.RWMutex
	limit int

	byID  map[string]*DisplayState
	order []string // insertion order, oldest first

	now func() time.Time
}

// NewDisplayStateManager creates a DisplayStateManager keeping up to limit closed entries.
func NewDisplayStateManager(limit int) *DisplayStateManager {
	if limit <= 0 {
		limit = 50
	}
	return &DisplayStateManager{
		limit: limit,
		byID:  make(map[string]*DisplayState),
		now:   time.Now,
	}
}

// Register adds a pending notification.
func (m *DisplayStateManager) Register(id, appID, title string) *DisplayState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registerLocked(id, appID, title)
}

func (m *DisplayStateManager) registerLocked(id, appID, title string) *DisplayState {
	if state, exists := m.byID[id]; exists {
		return state
	}
	state := &DisplayState{
		ID:            id,
		ApplicationID: appID,
		Title:         title,
		Status:        DisplayStatusPending,
		CreatedAt:     m.now(),
	}
	m.byID[id] = state
	m.order = append(m.order, id)
	return state
}

// HandleEvent updates state from a center lifecycle event.
// Sessions for notifications that were never registered are tracked too.
func (m *DisplayStateManager) HandleEvent(ev center.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Type {
	case center.EventPresented:
		// A clear can race the presented event for the record just opened
		state := m.registerLocked(ev.RecordID, ev.ApplicationID, ev.Title)
		state.Status = DisplayStatusActive
		state.ClosedAt = time.Time{}
	case center.EventDisplayed:
		m.setStatusLocked(ev.RecordID, DisplayStatusDisplayed, ev.At)
	case center.EventDismissed:
		m.setStatusLocked(ev.RecordID, DisplayStatusDismissed, ev.At)
	case center.EventFailed:
		m.setStatusLocked(ev.RecordID, DisplayStatusFailed, ev.At)
	case center.EventCleared:
		// Cleared events carry no record ids; an empty application id means all
		for _, state := range m.byID {
			if state.Status != DisplayStatusPending {
				continue
			}
			if ev.ApplicationID == "" || state.ApplicationID == ev.ApplicationID {
				state.Status = DisplayStatusCleared
				state.ClosedAt = ev.At
			}
		}
	}

	m.pruneLocked()
}

func (m *DisplayStateManager) setStatusLocked(id string, status DisplayStatus, at time.Time) {
	state, exists := m.byID[id]
	if !exists {
		return
	}
	state.Status = status
	if status.closed() {
		state.ClosedAt = at
	}
}

// pruneLocked forgets the oldest closed entries once there are more than limit.
func (m *DisplayStateManager) pruneLocked() {
	closed := 0
	for _, id := range m.order {
		if m.byID[id].Status.closed() {
			closed++
		}
	}
	if closed <= m.limit {
		return
	}

	kept := m.order[:0]
	for _, id := range m.order {
		if closed > m.limit && m.byID[id].Status.closed() {
			delete(m.byID, id)
			closed--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// Remove forgets id, for notifications that were never queued.
func (m *DisplayStateManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; !exists {
		return
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the state for id.
func (m *DisplayStateManager) Get(id string) (DisplayState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.byID[id]
	if !exists {
		return DisplayState{}, false
	}
	return *state, true
}

// Recent returns copies of all tracked states, newest first.
func (m *DisplayStateManager) Recent() []DisplayState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]DisplayState, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		states = append(states, *m.byID[m.order[i]])
	}
	return states
}

// Count returns the number of tracked notifications.
func (m *DisplayStateManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
