// Package view draws notification banners for the notification center.
package view

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jmylchreest/lnbanner/internal/center"
	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/resource"
)

// MinWidth is the narrowest banner that can be drawn.
const MinWidth = 20

// Palette holds the colors for one banner style.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
}

var (
	darkPalette = Palette{
		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("245"),
		Accent:     lipgloss.Color("39"),
	}
	lightPalette = Palette{
		Background: lipgloss.Color("254"),
		Foreground: lipgloss.Color("235"),
		Muted:      lipgloss.Color("240"),
		Accent:     lipgloss.Color("25"),
	}
)

// PaletteFor returns the palette for style.
func PaletteFor(style model.BannerStyle) Palette {
	if style == model.StyleLight {
		return lightPalette
	}
	return darkPalette
}

// Timing controls banner transitions and how long a banner is held on screen.
type Timing struct {
	In  time.Duration
	Out time.Duration

	// Hold returns the display duration for a banner with textLen runes of
	// title and detail. Nil uses DefaultHold.
	Hold func(textLen int) time.Duration
}

// DefaultHold shows a banner for two seconds plus 50ms per rune, up to eight seconds.
func DefaultHold(textLen int) time.Duration {
	d := 2*time.Second + time.Duration(textLen)*50*time.Millisecond
	return min(d, 8*time.Second)
}

func (t Timing) hold(b center.Banner) time.Duration {
	textLen := 0
	if b.Record != nil {
		textLen = b.Record.TextLength()
	}
	if t.Hold == nil {
		return DefaultHold(textLen)
	}
	return t.Hold(textLen)
}

// RenderBanner draws b as a bordered box width cells wide, colored for the
// banner's style. The icon is shown by name when the file exists.
func RenderBanner(b center.Banner, width int) string {
	width = max(width, MinWidth)
	p := PaletteFor(b.Style)
	inner := width - 4 // border + padding

	base := lipgloss.NewStyle().Background(p.Background)
	header := base.Foreground(p.Accent).Bold(true)
	title := base.Foreground(p.Foreground).Bold(true)
	muted := base.Foreground(p.Muted)

	lines := []string{header.Render(ansi.Truncate(b.Application.DisplayName(), inner, "…"))}
	if b.Record != nil {
		lines = append(lines, title.Render(ansi.Truncate(b.Record.Title, inner, "…")))
		if detail := b.Record.DetailTruncated(inner); detail != "" {
			lines = append(lines, base.Foreground(p.Foreground).Render(detail))
		}
	}
	if icon := b.Icon(); resource.Exists(icon) {
		lines = append(lines, muted.Render(ansi.Truncate(iconName(icon), inner, "…")))
	}

	box := lipgloss.NewStyle().
		Width(width-2).
		Padding(0, 1).
		Background(p.Background).
		Foreground(p.Foreground).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Muted).
		BorderBackground(p.Background)

	return box.Render(strings.Join(lines, "\n"))
}

func iconName(path string) string {
	return "▣ " + filepath.Base(path)
}

// after returns a channel closed once d has elapsed, or nil when d is not positive.
func after(d time.Duration) <-chan struct{} {
	if d <= 0 {
		return nil
	}
	done := make(chan struct{})
	time.AfterFunc(d, func() { close(done) })
	return done
}
