package center

import (
	"time"

	"github.com/jmylchreest/lnbanner/internal/model"
)

// ActiveBanner describes the banner on screen.
type ActiveBanner struct {
	Record          *model.Record     `json:"record" yaml:"record"`
	ApplicationName string            `json:"app_name" yaml:"app_name"`
	Style           model.BannerStyle `json:"style" yaml:"style"`
	StartedAt       time.Time         `json:"started_at" yaml:"started_at"`
}

// Snapshot is a point-in-time view of the center used for status output.
type Snapshot struct {
	State   State             `json:"state" yaml:"state"`
	Style   model.BannerStyle `json:"style" yaml:"style"`
	Active  *ActiveBanner     `json:"active,omitempty" yaml:"active,omitempty"`
	Pending []*model.Record   `json:"pending" yaml:"pending"`
}

// Snapshot returns the current state, style, active banner and pending records.
func (c *Center) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:   StateIdle,
		Style:   c.style,
		Pending: make([]*model.Record, 0, c.queue.Len()),
	}

	if s := c.session; s != nil {
		snap.State = s.state
		snap.Active = &ActiveBanner{
			Record:          s.banner.Record.Clone(),
			ApplicationName: s.banner.Application.DisplayName(),
			Style:           s.banner.Style,
			StartedAt:       s.startedAt,
		}
	}

	for e := c.queue.Front(); e != nil; e = e.Next() {
		snap.Pending = append(snap.Pending, e.Value.(*queued).record.Clone())
	}
	return snap
}
