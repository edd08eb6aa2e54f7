package center

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

// State is the scheduler state.
type State int

const (
	// StateIdle means no banner is on screen.
	StateIdle State = iota
	// StatePresentingIn means a banner is animating on screen.
	StatePresentingIn
	// StateDisplayed means a banner is fully visible.
	StateDisplayed
	// StatePresentingOut means a banner is animating off screen.
	StatePresentingOut
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresentingIn:
		return "presenting-in"
	case StateDisplayed:
		return "displayed"
	case StatePresentingOut:
		return "presenting-out"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StatePresentingIn, StateDisplayed, StatePresentingOut} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown center state %q", text)
}

// queued is a pending record together with the application metadata resolved
// when it was enqueued. Registration is checked once, at enqueue time.
type queued struct {
	record *model.Record
	app    registry.Application
}

// session is the banner currently on screen.
type session struct {
	banner    Banner
	state     State
	startedAt time.Time
}

// Option configures a Center.
type Option func(*Center)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Center) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBannerStyle sets the initial banner style. Defaults to model.StyleDark.
func WithBannerStyle(style model.BannerStyle) Option {
	return func(c *Center) {
		c.style = style
	}
}

// WithStallWarning logs a warning when a view animation has not completed
// after d. The wait itself continues; zero disables the warning.
func WithStallWarning(d time.Duration) Option {
	return func(c *Center) {
		c.stallWarning = d
	}
}

// WithEventHandler sets the handler for lifecycle events.
func WithEventHandler(h EventHandler) Option {
	return func(c *Center) {
		c.onEvent = h
	}
}

// Center queues notification records and presents them one at a time.
type Center struct {
	apps   ApplicationLookup
	view   View
	logger *slog.Logger

	mu      sync.Mutex
	queue   *list.List // of *queued, FIFO
	session *session   // nil when idle
	style   model.BannerStyle
	closed  bool

	stallWarning time.Duration
	onEvent      EventHandler
	now          func() time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Center that validates application identifiers against apps
// and draws banners with view.
func New(apps ApplicationLookup, view View, opts ...Option) *Center {
	c := &Center{
		apps:   apps,
		view:   view,
		logger: slog.Default(),
		queue:  list.New(),
		style:  model.StyleDark,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEventHandler replaces the lifecycle event handler.
func (c *Center) SetEventHandler(h EventHandler) {
	c.mu.Lock()
	c.onEvent = h
	c.mu.Unlock()
}

// Present enqueues rec for presentation on behalf of appID.
//
// The call fails with *UnregisteredApplicationError if appID is not
// registered, and nothing is enqueued. On success a copy of rec is appended
// to the pending queue; if no banner is on screen, its presentation starts
// immediately.
func (c *Center) Present(rec *model.Record, appID string) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	app, ok := c.apps.Lookup(appID)
	if !ok {
		c.logger.Debug("rejected notification for unregistered application", "app_id", appID)
		return &UnregisteredApplicationError{ApplicationID: appID}
	}

	record := rec.Clone()
	record.ApplicationID = appID

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	record.EnqueuedAt = c.now()
	c.queue.PushBack(&queued{record: record, app: app})
	pending := c.queue.Len()
	c.scheduleLocked()
	c.mu.Unlock()

	c.logger.Debug("queued notification",
		"id", record.ID,
		"app_id", appID,
		"queue_size", pending,
	)
	return nil
}

// ClearPending removes every pending record for appID, keeping the relative
// order of the rest. The banner on screen is never affected.
// Returns the number of records removed.
func (c *Center) ClearPending(appID string) int {
	c.mu.Lock()
	removed := 0
	for e := c.queue.Front(); e != nil; {
		next := e.Next()
		if e.Value.(*queued).record.ApplicationID == appID {
			c.queue.Remove(e)
			removed++
		}
		e = next
	}
	style := c.style
	c.mu.Unlock()

	if removed == 0 {
		return 0
	}

	c.logger.Debug("cleared pending notifications", "app_id", appID, "count", removed)
	c.emit(Event{
		Type:          EventCleared,
		ApplicationID: appID,
		Style:         style,
		Count:         removed,
		At:            c.now(),
	})
	return removed
}

// ClearAllPending empties the pending queue. The banner on screen is never
// affected. Returns the number of records removed.
func (c *Center) ClearAllPending() int {
	c.mu.Lock()
	removed := c.queue.Len()
	c.queue.Init()
	style := c.style
	c.mu.Unlock()

	if removed == 0 {
		return 0
	}

	c.logger.Debug("cleared all pending notifications", "count", removed)
	c.emit(Event{
		Type:  EventCleared,
		Style: style,
		Count: removed,
		At:    c.now(),
	})
	return removed
}

// SetBannerStyle sets the style used from the next presentation on.
// A banner already on screen keeps the style it started with.
func (c *Center) SetBannerStyle(style model.BannerStyle) {
	c.mu.Lock()
	old := c.style
	c.style = style
	c.mu.Unlock()

	if old != style {
		c.logger.Debug("banner style changed", "old", old.String(), "new", style.String())
	}
}

// BannerStyle returns the style the next presentation will use.
func (c *Center) BannerStyle() model.BannerStyle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// State returns the scheduler state.
func (c *Center) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StateIdle
	}
	return c.session.state
}

// Active returns the record on screen, if any.
func (c *Center) Active() (*model.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, false
	}
	return c.session.banner.Record.Clone(), true
}

// Pending returns copies of the pending records in presentation order.
func (c *Center) Pending() []*model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]*model.Record, 0, c.queue.Len())
	for e := c.queue.Front(); e != nil; e = e.Next() {
		records = append(records, e.Value.(*queued).record.Clone())
	}
	return records
}

// PendingCount returns the number of pending records.
func (c *Center) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// Close stops the center. Pending records are dropped, a session waiting on
// the view is abandoned, and further Present calls fail with ErrClosed.
// Close blocks until the session goroutine has exited.
func (c *Center) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	dropped := c.queue.Len()
	c.queue.Init()
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	c.logger.Debug("notification center closed", "dropped", dropped)
}

// emit delivers events to the handler. Must not be called with the lock held.
func (c *Center) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	handler := c.onEvent
	c.mu.Unlock()

	if handler == nil {
		return
	}
	for _, ev := range events {
		handler(ev)
	}
}
