package view

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jmylchreest/lnbanner/internal/center"
)

// Terminal writes banners to an io.Writer, one box per notification.
// Transitions are timed but not drawn.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	timing Timing
}

// NewTerminal creates a terminal view writing to w.
func NewTerminal(w io.Writer, width int, timing Timing) *Terminal {
	return &Terminal{
		w:      w,
		width:  max(width, MinWidth),
		timing: timing,
	}
}

// Render writes the banner.
func (t *Terminal) Render(b center.Banner) error {
	out := RenderBanner(b, t.width)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintln(t.w, out); err != nil {
		return fmt.Errorf("failed to write banner: %w", err)
	}
	return nil
}

// AnimateIn completes after the configured in duration.
func (t *Terminal) AnimateIn(center.Banner) <-chan struct{} {
	return after(t.timing.In)
}

// DisplayDuration returns the hold time for b.
func (t *Terminal) DisplayDuration(b center.Banner) time.Duration {
	return t.timing.hold(b)
}

// AnimateOut completes after the configured out duration.
func (t *Terminal) AnimateOut(center.Banner) <-chan struct{} {
	return after(t.timing.Out)
}
