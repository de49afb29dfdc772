// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings. Printable keys belong to the input
// line, so every binding here uses a modifier or a non-printing key.
type KeyMap struct {
	Send key.Binding

	NextRoom     key.Binding
	PreviousRoom key.Binding

	// Message pane scrolling.
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Bottom     key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "send"),
	),
	NextRoom: key.NewBinding(
		key.WithKeys("ctrl+n", "tab"),
		key.WithHelp("C-n", "next room"),
	),
	PreviousRoom: key.NewBinding(
		key.WithKeys("ctrl+p", "shift+tab"),
		key.WithHelp("C-p", "prev room"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("ctrl+g", "end"),
		key.WithHelp("C-g", "latest"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("Esc", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Send, keys.NextRoom, keys.PreviousRoom, keys.ScrollUp, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Send, keys.Quit},
		{keys.NextRoom, keys.PreviousRoom},
		{keys.ScrollUp, keys.ScrollDown, keys.Bottom},
	}
}
