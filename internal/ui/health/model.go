// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package health implements the swarm health tab: which supported models
// the swarm can serve end to end, and which nodes host which layers.
package health

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// KeyMap defines the tab's bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	}
}

// Hints are the bindings shown in the status bar.
func (k KeyMap) Hints() []key.Binding {
	return []key.Binding{k.Down, k.PageDown, k.Top}
}

// Model is the health tab. It does not poll; the root model hands it every
// registry answer through SetViews.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	views     []registry.ModelView
	loaded    bool
	err       error
	updatedAt time.Time

	width    int
	viewport viewport.Model
}

// New creates the tab.
func New(theme *styles.Theme) Model {
	return Model{theme: theme, keys: DefaultKeyMap(), viewport: viewport.New(80, 20)}
}

// SetSize sets the drawing area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.content())
}

// Keys returns the tab's bindings.
func (m Model) Keys() KeyMap { return m.keys }

// SetViews records a registry poll. On error the last good views stay.
func (m *Model) SetViews(views []registry.ModelView, err error, at time.Time) {
	m.err = err
	if err == nil {
		m.views = views
		m.loaded = true
		m.updatedAt = at
	}
	m.viewport.SetContent(m.content())
}

// Views returns the last good registry answer.
func (m Model) Views() []registry.ModelView { return m.views }

// UpdatedAt is when the last good answer arrived.
func (m Model) UpdatedAt() time.Time { return m.updatedAt }

// Err is the last poll's error, nil after a success.
func (m Model) Err() error { return m.err }

// Update scrolls the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.keys.Up):
			m.viewport.LineUp(1)
			return m, nil
		case key.Matches(k, m.keys.Down):
			m.viewport.LineDown(1)
			return m, nil
		case key.Matches(k, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the tab.
func (m Model) View() string {
	return m.viewport.View()
}
