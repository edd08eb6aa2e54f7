package view

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the banner TUI.
type KeyMap struct {
	ClearAll    key.Binding
	ToggleStyle key.Binding
	Quit        key.Binding
	Help        key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ClearAll, k.ToggleStyle, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ClearAll, k.ToggleStyle},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ClearAll: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear pending"),
		),
		ToggleStyle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle style"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
