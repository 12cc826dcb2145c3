// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// Spinner is a bubbles spinner with a message and an elapsed timer.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
}

// NewSpinner creates an ASCII line spinner.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Purple)
	return Spinner{spinner: s, message: message}
}

// Start activates the spinner and returns its first tick.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop hides the spinner.
func (s *Spinner) Stop() { s.active = false }

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool { return s.active }

// SetMessage changes the text next to the spinner.
func (s *Spinner) SetMessage(message string) { s.message = message }

// Update advances the animation while active.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders "<frame> message (Ns)" or nothing when stopped.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	elapsed := int(time.Since(s.startTime).Seconds())
	msg := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(s.message)
	return fmt.Sprintf("%s %s %s", s.spinner.View(), msg,
		lipgloss.NewStyle().Foreground(styles.TextMuted).Render(fmt.Sprintf("(%ds)", elapsed)))
}
