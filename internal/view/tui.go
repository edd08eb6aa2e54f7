package view

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/model"
)

// ErrTUINotRunning is returned by Render once the TUI program has exited.
var ErrTUINotRunning = errors.New("banner TUI is not running")

// frameInterval is the time between slide frames.
const frameInterval = 33 * time.Millisecond

// Controller is the part of the notification center the TUI drives from key presses.
type Controller interface {
	ClearAllPending() int
	SetBannerStyle(style model.BannerStyle)
	BannerStyle() model.BannerStyle
	PendingCount() int
}

// TUI is a full-screen bubbletea program that slides banners down from the
// top of the terminal.
//
// View methods block until Run has started the program.
type TUI struct {
	width  int
	timing Timing
	opts   []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
	ready   chan struct{}
	exited  chan struct{}
}

// NewTUI creates a TUI view. opts are passed to tea.NewProgram.
func NewTUI(width int, timing Timing, opts ...tea.ProgramOption) *TUI {
	return &TUI{
		width:  max(width, MinWidth),
		timing: timing,
		opts:   opts,
		ready:  make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Run starts the program and blocks until the user quits or ctx is cancelled.
// It may be called once.
func (t *TUI) Run(ctx context.Context, ctrl Controller) error {
	t.mu.Lock()
	if t.program != nil {
		t.mu.Unlock()
		return errors.New("banner TUI already started")
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, t.opts...)
	t.program = tea.NewProgram(newTUIModel(ctrl, t.width), opts...)
	t.mu.Unlock()

	close(t.ready)
	defer close(t.exited)

	_, err := t.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Done is closed once the program has exited.
func (t *TUI) Done() <-chan struct{} {
	return t.exited
}

func (t *TUI) send(msg tea.Msg) bool {
	select {
	case <-t.ready:
	case <-t.exited:
		return false
	}
	select {
	case <-t.exited:
		return false
	default:
	}
	t.program.Send(msg)
	return true
}

// Render hands the banner to the program. It is hidden until AnimateIn.
func (t *TUI) Render(b center.Banner) error {
	if !t.send(renderMsg{banner: b}) {
		return ErrTUINotRunning
	}
	return nil
}

// AnimateIn slides the banner down into view.
func (t *TUI) AnimateIn(center.Banner) <-chan struct{} {
	return t.animate(false, t.timing.In)
}

// DisplayDuration returns the hold time for b.
func (t *TUI) DisplayDuration(b center.Banner) time.Duration {
	return t.timing.hold(b)
}

// AnimateOut slides the banner back up out of view.
func (t *TUI) AnimateOut(center.Banner) <-chan struct{} {
	return t.animate(true, t.timing.Out)
}

func (t *TUI) animate(out bool, d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if !t.send(animateMsg{out: out, d: d, done: done}) {
		return nil
	}
	return done
}

type phase int

const (
	phaseHidden phase = iota
	phaseIn
	phaseShown
	phaseOut
)

type renderMsg struct {
	banner center.Banner
}

type animateMsg struct {
	out  bool
	d    time.Duration
	done chan struct{}
}

type frameMsg struct {
	seq int
}

// tuiModel is the bubbletea model behind TUI.
type tuiModel struct {
	ctrl  Controller
	keys  KeyMap
	help  help.Model
	width int

	banner *center.Banner
	phase  phase
	seq    int
	step   int
	steps  int
	done   chan struct{}

	status string
}

func newTUIModel(ctrl Controller, width int) tuiModel {
	return tuiModel{
		ctrl:  ctrl,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		width: width,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case renderMsg:
		m = m.complete()
		b := msg.banner
		m.banner = &b
		m.phase = phaseHidden
		return m, nil

	case animateMsg:
		m = m.complete()
		m.seq++
		m.done = msg.done
		m.step = 0
		m.steps = int(msg.d / frameInterval)
		m.phase = phaseIn
		if msg.out {
			m.phase = phaseOut
		}
		if m.steps <= 0 {
			return m.complete(), nil
		}
		return m, m.tick()

	case frameMsg:
		if msg.seq != m.seq || m.done == nil {
			return m, nil
		}
		m.step++
		if m.step >= m.steps {
			return m.complete(), nil
		}
		return m, m.tick()
	}

	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.complete(), tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.ClearAll):
		if m.ctrl != nil {
			n := m.ctrl.ClearAllPending()
			m.status = fmt.Sprintf("Cleared %d pending", n)
		}

	case key.Matches(msg, m.keys.ToggleStyle):
		if m.ctrl != nil {
			next := m.ctrl.BannerStyle().Toggle()
			m.ctrl.SetBannerStyle(next)
			m.status = "Next banner style: " + next.String()
		}
	}
	return m, nil
}

func (m tuiModel) tick() tea.Cmd {
	seq := m.seq
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{seq: seq}
	})
}

// complete finishes the running transition, if any.
func (m tuiModel) complete() tuiModel {
	if m.done == nil {
		return m
	}
	close(m.done)
	m.done = nil

	switch m.phase {
	case phaseIn:
		m.phase = phaseShown
	case phaseOut:
		m.phase = phaseHidden
		m.banner = nil
	}
	return m
}

// visible returns the fraction of the banner on screen.
func (m tuiModel) visible() float64 {
	switch m.phase {
	case phaseShown:
		return 1
	case phaseIn:
		return float64(m.step) / float64(m.steps)
	case phaseOut:
		return 1 - float64(m.step)/float64(m.steps)
	default:
		return 0
	}
}

func (m tuiModel) View() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var sb strings.Builder
	if m.ctrl != nil {
		sb.WriteString(muted.Render(fmt.Sprintf("lnbanner · next style: %s · pending: %d",
			m.ctrl.BannerStyle(), m.ctrl.PendingCount())))
		sb.WriteString("\n\n")
	}

	if m.banner != nil {
		sb.WriteString(slide(RenderBanner(*m.banner, m.width), m.visible()))
	} else {
		sb.WriteString(muted.Render("No banner on screen"))
	}
	sb.WriteString("\n\n")

	if m.status != "" {
		sb.WriteString(m.status)
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// slide shows the bottom frac of the rendered banner, padded with blank
// lines so the layout height stays fixed.
func slide(rendered string, frac float64) string {
	lines := strings.Split(rendered, "\n")
	n := int(math.Ceil(frac * float64(len(lines))))
	n = min(max(n, 0), len(lines))

	out := make([]string, 0, len(lines))
	for range len(lines) - n {
		out = append(out, "")
	}
	out = append(out, lines[len(lines)-n:]...)
	return strings.Join(out, "\n")
}
