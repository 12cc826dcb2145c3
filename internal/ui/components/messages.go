// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import tea "github.com/charmbracelet/bubbletea"

// Poll sources a tab can ask the root model to refresh.
const (
	SourceStatus  = "status"
	SourceHealth  = "health"
	SourceHistory = "history"
)

// RefreshMsg asks the root model to poll Source now instead of waiting for
// the next tick, e.g. after a start, stop or deposit.
type RefreshMsg struct {
	Source string
}

// Refresh wraps a RefreshMsg in a command.
func Refresh(source string) tea.Cmd {
	return func() tea.Msg { return RefreshMsg{Source: source} }
}
