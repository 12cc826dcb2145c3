// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard's bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Press    key.Binding
	Close    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Stop    key.Binding
	Deposit key.Binding
	Copy    key.Binding

	SessionsPrev key.Binding
	SessionsNext key.Binding
	ClaimsPrev   key.Binding
	ClaimsNext   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev option")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next option")),
		Press:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),

		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Deposit: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deposit")),
		Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy address")),

		SessionsPrev: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "sessions prev")),
		SessionsNext: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "sessions next")),
		ClaimsPrev:   key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "claims prev")),
		ClaimsNext:   key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "claims next")),
	}
}

// Hints are the bindings shown in the status bar while the tab is active.
func (k KeyMap) Hints() []key.Binding {
	return []key.Binding{k.Up, k.Press, k.Stop, k.Deposit, k.Copy, k.SessionsNext, k.ClaimsNext}
}
