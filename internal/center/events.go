package center

import (
	"time"

	"github.com/jmylchreest/lnbanner/internal/model"
)

// EventType identifies a center lifecycle event.
type EventType string

const (
	// EventPresented is emitted when a session opens for a record.
	EventPresented EventType = "presented"
	// EventDisplayed is emitted when the banner has finished animating in.
	EventDisplayed EventType = "displayed"
	// EventDismissed is emitted when the banner has finished animating out.
	EventDismissed EventType = "dismissed"
	// EventFailed is emitted when the view could not render a record.
	EventFailed EventType = "failed"
	// EventCleared is emitted when pending records were removed.
	EventCleared EventType = "cleared"
)

// Event describes a change in the center. Record fields are empty for EventCleared.
type Event struct {
	Type          EventType         `json:"type"`
	RecordID      string            `json:"record_id,omitempty"`
	ApplicationID string            `json:"app_id,omitempty"`
	Title         string            `json:"title,omitempty"`
	Style         model.BannerStyle `json:"style"`
	Count         int               `json:"count,omitempty"` // records removed, for EventCleared
	At            time.Time         `json:"at"`
}

// EventHandler receives center events. It is called without the center's
// lock held and may call back into the center.
type EventHandler func(Event)

func sessionEvent(typ EventType, s *session, at time.Time) Event {
	return Event{
		Type:          typ,
		RecordID:      s.banner.Record.ID,
		ApplicationID: s.banner.Record.ApplicationID,
		Title:         s.banner.Record.Title,
		Style:         s.banner.Style,
		At:            at,
	}
}
