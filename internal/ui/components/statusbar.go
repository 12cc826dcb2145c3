// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is the application state shown at the left of the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusLoading
	StatusError
	StatusOffline
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	case StatusOffline:
		return "Node unreachable"
	default:
		return "Unknown"
	}
}

// Icon uses distinct shapes alongside colours.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return "●"
	case StatusStreaming:
		return "~"
	case StatusLoading:
		return "○"
	case StatusError:
		return "x"
	case StatusOffline:
		return "!"
	default:
		return "?"
	}
}

// KeyHint is one "key action" pair.
type KeyHint struct {
	Key    string
	Action string
}

// StatusBar is the bottom bar: state, active model, last refresh and the
// key hints of the current tab.
type StatusBar struct {
	Status    Status
	Model     string
	UpdatedAt time.Time
	Hints     []KeyHint
	Width     int

	now   func() time.Time
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme, now: time.Now}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) { s.Width = width }

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme

	state := t.StatusActive
	switch s.Status {
	case StatusError, StatusOffline:
		state = t.StatusError
	case StatusStreaming, StatusLoading:
		state = t.StatusKey
	}
	left := []string{state.Render(s.Status.Icon() + " " + s.Status.String())}
	if s.Model != "" {
		left = append(left, t.StatusText.Render(s.Model))
	}
	if !s.UpdatedAt.IsZero() {
		left = append(left, t.StatusText.Render("updated "+humanize.RelTime(s.UpdatedAt, s.now(), "ago", "from now")))
	}

	hints := make([]string, 0, len(s.Hints))
	for _, h := range s.Hints {
		hints = append(hints, t.StatusKey.Render(h.Key)+t.StatusText.Render(" "+h.Action))
	}

	sep := t.StatusText.Render("  ")
	leftStr := strings.Join(left, sep)
	rightStr := strings.Join(hints, sep)

	// Drop hints from the end until they fit.
	for len(hints) > 0 && lipgloss.Width(leftStr)+lipgloss.Width(rightStr)+4 > s.Width {
		hints = hints[:len(hints)-1]
		rightStr = strings.Join(hints, sep)
	}

	gap := s.Width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr) - 2
	if gap < 1 {
		gap = 1
	}
	return t.StatusBar.Width(s.Width).Render(leftStr + t.StatusText.Render(strings.Repeat(" ", gap)) + rightStr)
}
