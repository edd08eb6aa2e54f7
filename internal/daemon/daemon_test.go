package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/config"
	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

type recordingPresenter struct {
	mu      sync.Mutex
	records []*model.Record
	appIDs  []string
	err     error
}

func (p *recordingPresenter) Present(rec *model.Record, appID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, rec)
	p.appIDs = append(p.appIDs, appID)
	return nil
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

type styleRecorder struct {
	calls []model.BannerStyle
}

func (s *styleRecorder) SetBannerStyle(style model.BannerStyle) {
	s.calls = append(s.calls, style)
}

func TestInternalNotifier_PresentsUnderSelfApplication(t *testing.T) {
	p := &recordingPresenter{}
	n := NewInternalNotifier(nil)
	n.SetPresenter(p)

	assert.True(t, n.Notify("k", "Title", "Detail", NotificationLevelWarning))

	require.Equal(t, 1, p.count())
	assert.Equal(t, config.SelfApplicationID, p.appIDs[0])
	assert.Equal(t, "Title", p.records[0].Title)
	assert.Equal(t, "dialog-warning.png", p.records[0].IconPath)
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	p := &recordingPresenter{}
	n := NewInternalNotifier(nil)
	n.SetPresenter(p)

	assert.True(t, n.Notify("same", "One", "", NotificationLevelInfo))
	assert.False(t, n.Notify("same", "Two", "", NotificationLevelInfo))
	assert.True(t, n.Notify("other", "Three", "", NotificationLevelInfo))
	assert.Equal(t, 2, p.count())

	n.SetMinInterval(0)
	assert.True(t, n.Notify("same", "Four", "", NotificationLevelInfo))
}

func TestInternalNotifier_DisabledOrNoPresenter(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.False(t, n.Notify("k", "Title", "", NotificationLevelInfo))

	p := &recordingPresenter{}
	n.SetPresenter(p)
	n.SetEnabled(false)
	assert.False(t, n.Notify("k", "Title", "", NotificationLevelInfo))
	assert.Zero(t, p.count())
}

func TestInternalNotifier_PresentError(t *testing.T) {
	p := &recordingPresenter{err: errors.New("closed")}
	n := NewInternalNotifier(nil)
	n.SetPresenter(p)

	assert.False(t, n.Notify("k", "Title", "", NotificationLevelError))
}

func TestInternalNotifier_Helpers(t *testing.T) {
	p := &recordingPresenter{}
	n := NewInternalNotifier(nil)
	n.SetPresenter(p)

	n.NotifyStartup("1.2.3")
	n.NotifyConfigReloaded(1)
	n.NotifyConfigError(errors.New("bad width"))
	n.NotifyBusError(errors.New("no session bus"))

	require.Equal(t, 4, p.count())
	assert.Contains(t, p.records[0].Detail, "v1.2.3")
	assert.Contains(t, p.records[1].Detail, "1 application registered")
	assert.Contains(t, p.records[2].Detail, "bad width")
	assert.Equal(t, "dialog-error.png", p.records[3].IconPath)
}

func TestNewRegistry_IncludesSelf(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Applications = []registry.Application{{ID: "com.acme.app", Name: "Acme"}}

	reg := NewRegistry(cfg)

	assert.True(t, reg.IsRegistered("com.acme.app"))
	assert.True(t, reg.IsRegistered(config.SelfApplicationID))
}

func TestApplyConfig(t *testing.T) {
	prev := config.DefaultConfig()
	prev.Applications = []registry.Application{{ID: "com.acme.app"}}
	reg := NewRegistry(prev)
	styler := &styleRecorder{}

	next := config.DefaultConfig()
	next.Applications = []registry.Application{{ID: "org.example.mail"}}
	ApplyConfig(prev, next, reg, styler)

	assert.False(t, reg.IsRegistered("com.acme.app"))
	assert.True(t, reg.IsRegistered("org.example.mail"))
	assert.True(t, reg.IsRegistered(config.SelfApplicationID))
	assert.Empty(t, styler.calls, "unchanged style is not reapplied")

	light := config.DefaultConfig()
	light.Banner.Style = model.StyleLight
	ApplyConfig(next, light, reg, styler)
	assert.Equal(t, []model.BannerStyle{model.StyleLight}, styler.calls)

	ApplyConfig(nil, light, reg, styler)
	assert.Len(t, styler.calls, 2)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lnbanner.toml")

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)

	reloaded := make(chan *config.Config, 4)
	w.SetReloadCallback(func(_, cfg *config.Config) { reloaded <- cfg })

	initial := config.DefaultConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	t.Cleanup(w.Stop)
	assert.Same(t, initial, w.CurrentConfig())

	content := "[banner]\nstyle = \"light\"\n\n[[applications]]\nid = \"com.acme.app\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// A write may surface as several events; wait for the complete file
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Banner.Style != model.StyleLight {
				continue
			}
			require.Len(t, cfg.Applications, 1)
			assert.Equal(t, "com.acme.app", cfg.Applications[0].ID)
			return
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lnbanner.toml")

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)

	errs := make(chan error, 4)
	w.SetErrorCallback(func(err error) { errs <- err })

	initial := config.DefaultConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(path, []byte("[display]\nwidth = 1\n"), 0644))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reload error not reported")
	}
	assert.Same(t, initial, w.CurrentConfig())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lnbanner.toml")

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)

	called := make(chan struct{}, 1)
	w.SetReloadCallback(func(_, _ *config.Config) { called <- struct{}{} })

	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0644))

	select {
	case <-called:
		t.Fatal("reload triggered by unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "nested", "lnbanner.toml"), nil)
	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	w.Stop()
	w.Stop()
}

func TestDisplayStateManager_Lifecycle(t *testing.T) {
	m := NewDisplayStateManager(10)
	m.Register("a", "com.acme.app", "A")

	state, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, DisplayStatusPending, state.Status)

	m.HandleEvent(center.Event{Type: center.EventPresented, RecordID: "a", ApplicationID: "com.acme.app", Title: "A"})
	state, _ = m.Get("a")
	assert.Equal(t, DisplayStatusActive, state.Status)

	m.HandleEvent(center.Event{Type: center.EventDisplayed, RecordID: "a"})
	state, _ = m.Get("a")
	assert.Equal(t, DisplayStatusDisplayed, state.Status)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.HandleEvent(center.Event{Type: center.EventDismissed, RecordID: "a", At: at})
	state, _ = m.Get("a")
	assert.Equal(t, DisplayStatusDismissed, state.Status)
	assert.Equal(t, at, state.ClosedAt)
}

func TestDisplayStateManager_PresentedBeforeRegister(t *testing.T) {
	m := NewDisplayStateManager(10)
	m.HandleEvent(center.Event{Type: center.EventPresented, RecordID: "a", ApplicationID: "x", Title: "A"})
	m.Register("a", "x", "A")

	state, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, DisplayStatusActive, state.Status)
	assert.Equal(t, 1, m.Count())
}

func TestDisplayStateManager_Cleared(t *testing.T) {
	m := NewDisplayStateManager(10)
	m.Register("a", "com.acme.app", "A")
	m.Register("b", "org.example.mail", "B")
	m.Register("c", "com.acme.app", "C")
	m.HandleEvent(center.Event{Type: center.EventPresented, RecordID: "a", ApplicationID: "com.acme.app"})

	m.HandleEvent(center.Event{Type: center.EventCleared, ApplicationID: "com.acme.app", Count: 1})

	a, _ := m.Get("a")
	b, _ := m.Get("b")
	c, _ := m.Get("c")
	assert.Equal(t, DisplayStatusActive, a.Status, "on-screen banner is not cleared")
	assert.Equal(t, DisplayStatusPending, b.Status)
	assert.Equal(t, DisplayStatusCleared, c.Status)

	m.HandleEvent(center.Event{Type: center.EventCleared, Count: 1})
	b, _ = m.Get("b")
	assert.Equal(t, DisplayStatusCleared, b.Status)
}

func TestDisplayStateManager_ClearedBeforePresented(t *testing.T) {
	m := NewDisplayStateManager(10)
	m.Register("a", "com.acme.app", "A")

	// The session for a opened before the clear, its presented event arrives after
	m.HandleEvent(center.Event{Type: center.EventCleared, ApplicationID: "com.acme.app", At: time.Now()})
	m.HandleEvent(center.Event{Type: center.EventPresented, RecordID: "a", ApplicationID: "com.acme.app"})

	a, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, DisplayStatusActive, a.Status)
	assert.True(t, a.ClosedAt.IsZero())
}

func TestDisplayStateManager_PrunesClosed(t *testing.T) {
	m := NewDisplayStateManager(2)
	for _, id := range []string{"a", "b", "c"} {
		m.Register(id, "x", id)
		m.HandleEvent(center.Event{Type: center.EventFailed, RecordID: id})
	}
	m.Register("d", "x", "d")

	_, ok := m.Get("a")
	assert.False(t, ok, "oldest closed entry is forgotten")

	recent := m.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)

	m.Remove("d")
	assert.Equal(t, 2, m.Count())
}

func TestDisplayStatus_String(t *testing.T) {
	assert.Equal(t, "pending", DisplayStatusPending.String())
	assert.Equal(t, "cleared", DisplayStatusCleared.String())
	assert.Equal(t, "unknown", DisplayStatus(99).String())
}
