package center

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

const (
	acmeApp = "com.acme.app"
	mailApp = "org.example.mail"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeView records rendered banners. In manual mode every animation waits
// until the test completes it; in auto mode animations finish immediately.
type fakeView struct {
	mu        sync.Mutex
	auto      bool
	renderErr map[string]error // by title
	rendered  []Banner
	in        map[string]chan struct{} // by title
	out       map[string]chan struct{}
	visible   int
	overlaps  int
}

func newFakeView(auto bool) *fakeView {
	return &fakeView{
		auto:      auto,
		renderErr: make(map[string]error),
		in:        make(map[string]chan struct{}),
		out:       make(map[string]chan struct{}),
	}
}

func (v *fakeView) Render(b Banner) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.renderErr[b.Record.Title]; err != nil {
		return err
	}
	if v.visible != 0 {
		v.overlaps++
	}
	v.visible++
	v.rendered = append(v.rendered, b)
	return nil
}

func (v *fakeView) AnimateIn(b Banner) <-chan struct{} {
	return v.transition(v.in, b, false)
}

func (v *fakeView) DisplayDuration(Banner) time.Duration {
	return 0
}

func (v *fakeView) AnimateOut(b Banner) <-chan struct{} {
	return v.transition(v.out, b, true)
}

func (v *fakeView) transition(m map[string]chan struct{}, b Banner, leaving bool) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan struct{})
	if v.auto {
		if leaving {
			v.visible--
		}
		close(ch)
		return ch
	}
	m[b.Record.Title] = ch
	return ch
}

// finish completes the pending transition for title once the center has requested it.
func (v *fakeView) finish(t *testing.T, m func(*fakeView) map[string]chan struct{}, title string, leaving bool) {
	t.Helper()
	var ch chan struct{}
	require.Eventually(t, func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		var ok bool
		ch, ok = m(v)[title]
		if ok {
			delete(m(v), title)
			if leaving {
				v.visible--
			}
		}
		return ok
	}, waitFor, tick, "transition for %q was never requested", title)
	close(ch)
}

func (v *fakeView) finishIn(t *testing.T, title string) {
	v.finish(t, func(v *fakeView) map[string]chan struct{} { return v.in }, title, false)
}

func (v *fakeView) finishOut(t *testing.T, title string) {
	v.finish(t, func(v *fakeView) map[string]chan struct{} { return v.out }, title, true)
}

// show runs a full manual presentation of title.
func (v *fakeView) show(t *testing.T, title string) {
	t.Helper()
	v.finishIn(t, title)
	v.finishOut(t, title)
}

func (v *fakeView) renderedTitles() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	titles := make([]string, len(v.rendered))
	for i, b := range v.rendered {
		titles[i] = b.Record.Title
	}
	return titles
}

func (v *fakeView) renderedBanners() []Banner {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Banner(nil), v.rendered...)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = string(ev.Type) + ":" + ev.Title
	}
	return out
}

func testRegistry() *registry.Registry {
	return registry.New(
		registry.Application{ID: acmeApp, Name: "Acme", IconPath: "acme.png"},
		registry.Application{ID: mailApp, Name: "Mail"},
	)
}

func testRecord(t *testing.T, title string) *model.Record {
	t.Helper()
	r, err := model.NewRecord(title, "detail for "+title, "")
	require.NoError(t, err)
	return r
}

func newTestCenter(t *testing.T, view View, opts ...Option) *Center {
	t.Helper()
	c := New(testRegistry(), view, opts...)
	t.Cleanup(c.Close)
	return c
}

func waitIdle(t *testing.T, c *Center) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == StateIdle && c.PendingCount() == 0
	}, waitFor, tick)
}

func pendingTitles(c *Center) []string {
	var titles []string
	for _, r := range c.Pending() {
		titles = append(titles, r.Title)
	}
	return titles
}

func TestPresent_UnregisteredApplication(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	err := c.Present(testRecord(t, "C"), "unknown.app")
	require.Error(t, err)

	var unreg *UnregisteredApplicationError
	require.ErrorAs(t, err, &unreg)
	assert.Equal(t, "unknown.app", unreg.ApplicationID)
	assert.ErrorIs(t, err, ErrUnregisteredApplication)
	assert.Contains(t, err.Error(), "unknown.app")

	assert.Equal(t, 0, c.PendingCount())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, view.renderedTitles())
}

func TestPresent_UnregisteredDoesNotChangeQueue(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), acmeApp))
	before := pendingTitles(c)

	for i := 0; i < 5; i++ {
		err := c.Present(testRecord(t, fmt.Sprintf("X%d", i)), "nope")
		assert.ErrorIs(t, err, ErrUnregisteredApplication)
	}

	assert.Equal(t, before, pendingTitles(c))
}

func TestPresent_InvalidRecord(t *testing.T) {
	c := newTestCenter(t, newFakeView(false))

	assert.ErrorIs(t, c.Present(nil, acmeApp), ErrNilRecord)
	assert.ErrorIs(t, c.Present(&model.Record{Title: ""}, acmeApp), model.ErrEmptyTitle)
	assert.Equal(t, 0, c.PendingCount())
}

func TestPresent_StartsImmediatelyWhenIdle(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	rec := testRecord(t, "A")
	require.NoError(t, c.Present(rec, acmeApp))

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "A", active.Title)
	assert.Equal(t, acmeApp, active.ApplicationID)
	assert.False(t, active.EnqueuedAt.IsZero())
	assert.Equal(t, StatePresentingIn, c.State())
	assert.Equal(t, 0, c.PendingCount())

	// The caller's record is not modified.
	assert.Empty(t, rec.ApplicationID)
	assert.True(t, rec.EnqueuedAt.IsZero())
}

func TestScheduler_StateMachine(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	assert.Equal(t, StatePresentingIn, c.State())

	view.finishIn(t, "A")
	require.Eventually(t, func() bool {
		return c.State() == StatePresentingOut
	}, waitFor, tick)

	view.finishOut(t, "A")
	require.Eventually(t, func() bool {
		return c.State() == StateIdle
	}, waitFor, tick)

	_, ok := c.Active()
	assert.False(t, ok)
}

func TestScheduler_FIFOOneAtATime(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	titles := []string{"A", "B", "C", "D", "E"}
	for _, title := range titles {
		require.NoError(t, c.Present(testRecord(t, title), acmeApp))
	}
	assert.Equal(t, []string{"B", "C", "D", "E"}, pendingTitles(c))

	for i, title := range titles {
		view.show(t, title)
		if i < len(titles)-1 {
			require.Eventually(t, func() bool {
				active, ok := c.Active()
				return ok && active.Title == titles[i+1]
			}, waitFor, tick)
		}
	}

	waitIdle(t, c)
	assert.Equal(t, titles, view.renderedTitles())
	assert.Zero(t, view.overlaps)
}

func TestScheduler_ConcurrentPresentNeverOverlaps(t *testing.T) {
	view := newFakeView(true)
	c := newTestCenter(t, view)

	const producers = 8
	const perProducer = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				rec, err := model.NewRecord(fmt.Sprintf("p%d-%d", p, i), "", "")
				if err != nil {
					t.Error(err)
					return
				}
				if err := c.Present(rec, acmeApp); err != nil {
					t.Error(err)
				}
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(view.renderedTitles()) == producers*perProducer
	}, waitFor, tick)
	waitIdle(t, c)

	banners := view.renderedBanners()
	assert.True(t, sort.SliceIsSorted(banners, func(i, j int) bool {
		return banners[i].Record.EnqueuedAt.Before(banners[j].Record.EnqueuedAt)
	}), "banners must be shown in enqueue order")
	assert.Zero(t, view.overlaps)

	// Per-producer order is call order.
	next := make(map[string]int)
	for _, b := range banners {
		var p, i int
		_, err := fmt.Sscanf(b.Record.Title, "p%d-%d", &p, &i)
		require.NoError(t, err)
		key := fmt.Sprint(p)
		assert.Equal(t, next[key], i)
		next[key] = i + 1
	}
}

func TestClearPending_KeepsActiveAndOrder(t *testing.T) {
	view := newFakeView(false)
	events := &eventLog{}
	c := newTestCenter(t, view, WithEventHandler(events.handle))

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), mailApp))
	require.NoError(t, c.Present(testRecord(t, "C"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "D"), mailApp))
	require.NoError(t, c.Present(testRecord(t, "E"), acmeApp))

	removed := c.ClearPending(acmeApp)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"B", "D"}, pendingTitles(c))

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "A", active.Title)

	assert.Equal(t, 0, c.ClearPending("nobody"))

	view.show(t, "A")
	view.show(t, "B")
	view.show(t, "D")
	waitIdle(t, c)

	assert.Equal(t, []string{"A", "B", "D"}, view.renderedTitles())
	assert.Contains(t, events.types(), "cleared:")
}

func TestClearAllPending(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	// Idle and empty: no-op.
	assert.Equal(t, 0, c.ClearAllPending())

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), mailApp))
	require.NoError(t, c.Present(testRecord(t, "C"), acmeApp))

	assert.Equal(t, 2, c.ClearAllPending())
	assert.Equal(t, 0, c.PendingCount())

	// Idempotent.
	assert.Equal(t, 0, c.ClearAllPending())
	assert.Equal(t, 0, c.PendingCount())

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "A", active.Title)

	view.show(t, "A")
	waitIdle(t, c)
	assert.Equal(t, []string{"A"}, view.renderedTitles())
}

func TestBannerStyle_AppliesToNextPresentation(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	assert.Equal(t, model.StyleDark, c.BannerStyle())

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), acmeApp))

	view.finishIn(t, "A")
	c.SetBannerStyle(model.StyleLight)
	assert.Equal(t, model.StyleLight, c.BannerStyle())
	view.finishOut(t, "A")

	view.show(t, "B")
	waitIdle(t, c)

	banners := view.renderedBanners()
	require.Len(t, banners, 2)
	assert.Equal(t, model.StyleDark, banners[0].Style)
	assert.Equal(t, model.StyleLight, banners[1].Style)
}

func TestWithBannerStyle(t *testing.T) {
	c := newTestCenter(t, newFakeView(true), WithBannerStyle(model.StyleLight))
	assert.Equal(t, model.StyleLight, c.BannerStyle())
}

func TestAcmeScenario(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view)

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), acmeApp))

	err := c.Present(testRecord(t, "C"), "unknown.app")
	var unreg *UnregisteredApplicationError
	require.ErrorAs(t, err, &unreg)

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "A", active.Title)
	assert.Equal(t, []string{"B"}, pendingTitles(c))

	view.finishIn(t, "A")
	require.Eventually(t, func() bool {
		return c.State() == StatePresentingOut || c.State() == StateDisplayed
	}, waitFor, tick)

	assert.Equal(t, 1, c.ClearPending(acmeApp))
	assert.Empty(t, c.Pending())

	view.finishOut(t, "A")
	waitIdle(t, c)

	assert.Equal(t, []string{"A"}, view.renderedTitles())
}

func TestUnregisterAfterEnqueue_StillPresented(t *testing.T) {
	reg := testRegistry()
	view := newFakeView(false)
	c := New(reg, view)
	t.Cleanup(c.Close)

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), mailApp))
	require.True(t, reg.Unregister(mailApp))

	view.show(t, "A")
	view.show(t, "B")
	waitIdle(t, c)

	banners := view.renderedBanners()
	require.Len(t, banners, 2)
	assert.Equal(t, "Mail", banners[1].Application.Name)

	assert.ErrorIs(t, c.Present(testRecord(t, "C"), mailApp), ErrUnregisteredApplication)
}

func TestRenderFailure_SkipsToNext(t *testing.T) {
	view := newFakeView(true)
	view.renderErr["broken"] = errors.New("no surface")
	events := &eventLog{}
	c := newTestCenter(t, view, WithEventHandler(events.handle))

	require.NoError(t, c.Present(testRecord(t, "broken"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "fine"), acmeApp))

	require.Eventually(t, func() bool {
		return len(view.renderedTitles()) == 1
	}, waitFor, tick)
	waitIdle(t, c)

	assert.Equal(t, []string{"fine"}, view.renderedTitles())
	assert.Contains(t, events.types(), "failed:broken")
}

func TestEvents_Order(t *testing.T) {
	view := newFakeView(true)
	events := &eventLog{}
	c := newTestCenter(t, view, WithEventHandler(events.handle))

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), acmeApp))

	require.Eventually(t, func() bool {
		return len(events.types()) == 6
	}, waitFor, tick)

	assert.Equal(t, []string{
		"presented:A", "displayed:A", "dismissed:A",
		"presented:B", "displayed:B", "dismissed:B",
	}, events.types())
}

func TestEventHandler_MayPresent(t *testing.T) {
	view := newFakeView(true)
	c := newTestCenter(t, view)

	var once sync.Once
	c.SetEventHandler(func(ev Event) {
		if ev.Type == EventDismissed && ev.Title == "A" {
			once.Do(func() {
				rec, err := model.NewRecord("follow-up", "", "")
				if err == nil {
					_ = c.Present(rec, acmeApp)
				}
			})
		}
	})

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.Eventually(t, func() bool {
		return len(view.renderedTitles()) == 2
	}, waitFor, tick)
	assert.Equal(t, []string{"A", "follow-up"}, view.renderedTitles())
}

// nilView completes every transition synchronously.
type nilView struct {
	mu    sync.Mutex
	count int
}

func (v *nilView) Render(Banner) error {
	v.mu.Lock()
	v.count++
	v.mu.Unlock()
	return nil
}

func (v *nilView) AnimateIn(Banner) <-chan struct{} {
	return nil
}

func (v *nilView) DisplayDuration(Banner) time.Duration {
	return time.Millisecond
}

func (v *nilView) AnimateOut(Banner) <-chan struct{} {
	return nil
}

func TestScheduler_NilChannelMeansCompleted(t *testing.T) {
	view := &nilView{}
	c := newTestCenter(t, view)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Present(testRecord(t, fmt.Sprint(i)), acmeApp))
	}
	waitIdle(t, c)

	view.mu.Lock()
	defer view.mu.Unlock()
	assert.Equal(t, 3, view.count)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStallWarning_LogsButKeepsWaiting(t *testing.T) {
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	view := newFakeView(false)
	c := newTestCenter(t, view, WithLogger(logger), WithStallWarning(10*time.Millisecond))

	require.NoError(t, c.Present(testRecord(t, "slow"), acmeApp))

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "banner animation has not completed")
	}, waitFor, tick)

	// Still presenting; the warning does not abort the session.
	assert.Equal(t, StatePresentingIn, c.State())

	view.show(t, "slow")
	waitIdle(t, c)
}

func TestClose(t *testing.T) {
	view := newFakeView(false)
	c := New(testRegistry(), view)

	require.NoError(t, c.Present(testRecord(t, "stuck"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "waiting"), acmeApp))

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Close did not release the stalled session")
	}

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.PendingCount())
	assert.ErrorIs(t, c.Present(testRecord(t, "late"), acmeApp), ErrClosed)

	// Closing twice is safe.
	c.Close()
}

func TestSnapshot(t *testing.T) {
	view := newFakeView(false)
	c := newTestCenter(t, view, WithBannerStyle(model.StyleLight))

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Active)
	assert.Empty(t, snap.Pending)

	require.NoError(t, c.Present(testRecord(t, "A"), acmeApp))
	require.NoError(t, c.Present(testRecord(t, "B"), mailApp))

	snap = c.Snapshot()
	assert.Equal(t, StatePresentingIn, snap.State)
	assert.Equal(t, model.StyleLight, snap.Style)
	require.NotNil(t, snap.Active)
	assert.Equal(t, "A", snap.Active.Record.Title)
	assert.Equal(t, "Acme", snap.Active.ApplicationName)
	assert.Equal(t, model.StyleLight, snap.Active.Style)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, "B", snap.Pending[0].Title)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StatePresentingIn, "presenting-in"},
		{StateDisplayed, "displayed"},
		{StatePresentingOut, "presenting-out"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestBanner_Icon(t *testing.T) {
	t.Setenv("LNBANNER_BUNDLE_DIR", "/bundle")

	withOwn := Banner{
		Record:      &model.Record{IconPath: "own.png"},
		Application: registry.Application{IconPath: "app.png"},
	}
	assert.Equal(t, "/bundle/images/own.png", withOwn.Icon())

	withApp := Banner{
		Record:      &model.Record{},
		Application: registry.Application{IconPath: "app.png"},
	}
	assert.Equal(t, "/bundle/images/app.png", withApp.Icon())

	fallback := Banner{Record: &model.Record{}}
	assert.Equal(t, "/bundle/images/default-icon.png", fallback.Icon())
}
