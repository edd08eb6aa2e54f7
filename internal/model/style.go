package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStyle is returned when a banner style name is not recognised.
var ErrInvalidStyle = errors.New("banner style must be dark or light")

// BannerStyle is the visual style of a presented banner.
// Exactly two styles exist; the zero value is StyleDark.
type BannerStyle int

const (
	// StyleDark renders light text on a dark banner.
	StyleDark BannerStyle = iota
	// StyleLight renders dark text on a light banner.
	StyleLight
)

// String returns the string representation of the style.
func (s BannerStyle) String() string {
	switch s {
	case StyleDark:
		return "dark"
	case StyleLight:
		return "light"
	default:
		return "unknown"
	}
}

// Toggle returns the other style.
func (s BannerStyle) Toggle() BannerStyle {
	if s == StyleLight {
		return StyleDark
	}
	return StyleLight
}

// ParseBannerStyle parses "dark" or "light" (case insensitive).
func ParseBannerStyle(s string) (BannerStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return StyleDark, nil
	case "light":
		return StyleLight, nil
	default:
		return StyleDark, fmt.Errorf("%w: %q", ErrInvalidStyle, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s BannerStyle) MarshalText() ([]byte, error) {
	if s != StyleDark && s != StyleLight {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStyle, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BannerStyle) UnmarshalText(text []byte) error {
	style, err := ParseBannerStyle(string(text))
	if err != nil {
		return err
	}
	*s = style
	return nil
}
