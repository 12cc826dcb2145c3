// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// ModelCard renders one hosted model slice. A stopped slice shows only its
// name and status. Focused cards get a highlighted border.
func ModelCard(theme *styles.Theme, m control.ModelStatus, width int, focused bool) string {
	name := m.Model
	if name == "" {
		name = "(no model)"
	}
	lines := []string{theme.CardTitle.Render(name) + "  " + styles.RenderNodeStatus(m.Status)}

	if m.Active() {
		field := func(label, value string) {
			lines = append(lines, theme.Label.Render(label)+theme.Value.Render(value))
		}
		field("Layers", m.Range().String())
		field("Peers", strconv.Itoa(m.Peers.Len()))
		field("Sessions", strconv.Itoa(m.Sessions))
		field("Balance", wallet.FormatOptionalAPT(m.Wallet.Balance, 5)+" APT")
		field("Top-up", wallet.FormatOptionalAPT(m.Wallet.TopupBalance, 5)+" APT")
		field("Spending", wallet.FormatAPT(m.Wallet.Spending, 5)+" APT")
		field("Earning", wallet.FormatAPT(m.Wallet.Earning, 5)+" APT")
		if m.Wallet.Address != "" {
			field("Wallet", wallet.ShortenAddress(m.Wallet.Address))
		}
	}

	card := theme.Card.BorderForeground(styles.StatusColor(m.Status))
	if focused {
		card = card.BorderStyle(lipgloss.ThickBorder()).BorderForeground(styles.Cyan)
	}
	if width > 4 {
		card = card.Width(width - 2)
	}
	return card.Render(strings.Join(lines, "\n"))
}

// ModelCards renders every reported model, or empty when there are none.
func ModelCards(theme *styles.Theme, st *control.P2PStatus, width, focus int) string {
	if st == nil || len(st.Models) == 0 {
		return ""
	}
	cards := make([]string, len(st.Models))
	for i, m := range st.Models {
		cards[i] = ModelCard(theme, m, width, i == focus)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}
