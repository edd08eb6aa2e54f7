package center

import (
	"time"
)

// scheduleLocked opens a session for the oldest pending record when the
// center is idle. Caller must hold the lock.
func (c *Center) scheduleLocked() {
	if c.session != nil || c.closed {
		return
	}

	front := c.queue.Front()
	if front == nil {
		return
	}
	q := c.queue.Remove(front).(*queued)

	s := &session{
		banner: Banner{
			Record:      q.record,
			Application: q.app,
			Style:       c.style,
		},
		state:     StatePresentingIn,
		startedAt: c.now(),
	}
	c.session = s

	c.wg.Add(1)
	go c.runSession(s)

	c.logger.Debug("presenting notification",
		"id", q.record.ID,
		"app_id", q.record.ApplicationID,
		"style", s.banner.Style.String(),
		"pending", c.queue.Len(),
	)
}

// runSession drives one banner through animate-in, the display hold and
// animate-out, then hands over to the next pending record.
func (c *Center) runSession(s *session) {
	defer c.wg.Done()

	c.emit(sessionEvent(EventPresented, s, s.startedAt))

	b := s.banner
	if err := c.view.Render(b); err != nil {
		c.logger.Warn("failed to render banner",
			"id", b.Record.ID,
			"app_id", b.Record.ApplicationID,
			"error", err,
		)
		c.finishSession(s, EventFailed)
		return
	}

	if !c.await(c.view.AnimateIn(b), s, "in") {
		return
	}

	c.setState(s, StateDisplayed)
	c.emit(sessionEvent(EventDisplayed, s, c.now()))

	if hold := c.view.DisplayDuration(b); hold > 0 {
		timer := time.NewTimer(hold)
		select {
		case <-timer.C:
		case <-c.stopCh:
			timer.Stop()
			return
		}
	}

	c.setState(s, StatePresentingOut)
	if !c.await(c.view.AnimateOut(b), s, "out") {
		return
	}

	c.finishSession(s, EventDismissed)
}

// await blocks until done is closed. It returns false if the center was
// closed first. There is no timeout; a stalled view stalls the center.
func (c *Center) await(done <-chan struct{}, s *session, phase string) bool {
	if done == nil {
		return true
	}

	var warn <-chan time.Time
	if c.stallWarning > 0 {
		timer := time.NewTimer(c.stallWarning)
		defer timer.Stop()
		warn = timer.C
	}

	for {
		select {
		case <-done:
			return true
		case <-warn:
			c.logger.Warn("banner animation has not completed",
				"id", s.banner.Record.ID,
				"app_id", s.banner.Record.ApplicationID,
				"phase", phase,
				"waited", c.stallWarning,
			)
			warn = nil
		case <-c.stopCh:
			return false
		}
	}
}

func (c *Center) setState(s *session, state State) {
	c.mu.Lock()
	s.state = state
	c.mu.Unlock()
}

// finishSession closes s and starts the next pending record, if any.
// The closing event is delivered before the next session opens.
func (c *Center) finishSession(s *session, typ EventType) {
	c.logger.Debug("banner session finished",
		"id", s.banner.Record.ID,
		"result", string(typ),
		"shown_for", time.Since(s.startedAt),
	)
	c.emit(sessionEvent(typ, s, c.now()))

	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.scheduleLocked()
	c.mu.Unlock()
}
