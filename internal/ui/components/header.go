// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// =============================================================================
// HEADER - brand, tab strip and node mode
// =============================================================================

// Header is the top bar of the TUI.
type Header struct {
	Brand  string
	Tabs   []string
	Active int
	Cloud  bool
	Wallet string
	Width  int

	theme *styles.Theme
}

// NewHeader creates a header with the given tab titles.
func NewHeader(theme *styles.Theme, tabs ...string) *Header {
	return &Header{Brand: "dllm", Tabs: tabs, Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (h *Header) SetWidth(width int) { h.Width = width }

// Select activates tab i, wrapping around at both ends.
func (h *Header) Select(i int) {
	if len(h.Tabs) == 0 {
		return
	}
	h.Active = ((i % len(h.Tabs)) + len(h.Tabs)) % len(h.Tabs)
}

// Next activates the following tab.
func (h *Header) Next() { h.Select(h.Active + 1) }

// Prev activates the previous tab.
func (h *Header) Prev() { h.Select(h.Active - 1) }

// ModeLabel is LOCAL or CLOUD.
func (h *Header) ModeLabel() string {
	if h.Cloud {
		return "CLOUD"
	}
	return "LOCAL"
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme

	tabs := make([]string, len(h.Tabs))
	for i, title := range h.Tabs {
		label := fmt.Sprintf("%d %s", i+1, title)
		if i == h.Active {
			tabs[i] = t.TabActive.Render(label)
		} else {
			tabs[i] = t.TabInactive.Render(label)
		}
	}

	left := t.HeaderBrand.Render(h.Brand) + "  " + strings.Join(tabs, "")

	modeColor := styles.Emerald
	if h.Cloud {
		modeColor = styles.Amber
	}
	right := lipgloss.NewStyle().Foreground(modeColor).Bold(true).Render(h.ModeLabel())
	if h.Wallet != "" {
		right = t.HeaderMode.Render(h.Wallet) + "  " + right
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + right)
}
