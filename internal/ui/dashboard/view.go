// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/indexer"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/util"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// View renders the tab.
func (m Model) View() string {
	vp := m.viewport
	vp.SetContent(m.content())
	return vp.View()
}

func (m Model) content() string {
	width := max(m.width, 40)
	sections := []string{m.theme.Section.Render("Active Models"), m.cards(width)}

	if hint := m.cardHint(); hint != "" {
		sections = append(sections, m.theme.Muted.Render(hint))
	}
	if m.depositFor != "" {
		sections = append(sections, m.depositView())
	}
	if !m.deps.Cloud {
		sections = append(sections, m.theme.Section.Render("Start a Model"), m.formView())
	}
	sections = append(sections, m.historyView()...)
	return strings.Join(sections, "\n")
}

func (m Model) cards(width int) string {
	if m.status == nil || len(m.status.Models) == 0 {
		if m.deps.Cloud {
			return m.theme.Muted.Render("Wait for a model to be assigned.")
		}
		return m.theme.Muted.Render("No active models. Start a new model to begin.")
	}
	focus := -1
	if f, ok := m.focused(); ok && f.kind == focusCard {
		focus = f.index
	}
	return components.ModelCards(m.theme, m.status, min(width, 72), focus)
}

func (m Model) depositView() string {
	lines := []string{
		m.theme.CardTitle.Render("Deposit for " + m.depositFor),
		m.theme.FieldFocus.Render(m.deposit.View()),
		m.theme.Muted.Render(DepositNote),
	}
	if m.depositing {
		lines = append(lines, m.theme.Notice.Render("Depositing..."))
	} else {
		lines = append(lines, m.theme.Muted.Render("enter deposit  esc cancel"))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// START FORM
// =============================================================================

func (m Model) isFocused(k focusKind) bool {
	f, ok := m.focused()
	return ok && f.kind == k
}

func (m Model) selectView(k focusKind, value string) string {
	style := m.theme.FieldBlur
	if m.isFocused(k) {
		style = m.theme.FieldFocus
	}
	return style.Render("‹ " + value + " ›")
}

func (m Model) fieldView(k focusKind, label, view string, width int) string {
	style := m.theme.FieldBlur
	if m.isFocused(k) {
		style = m.theme.FieldFocus
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.theme.Label.Render(label), style.Width(width).Render(view))
}

func (m Model) buttonView(k focusKind, label string) string {
	if m.isFocused(k) {
		return m.theme.ButtonFocus.Render(label)
	}
	return m.theme.Button.Render(label)
}

func (m Model) formView() string {
	f := m.form
	model := "Select a model"
	spec, ok := f.spec()
	if ok {
		model = spec.ID
	}

	suggest := "Calculate Suggests"
	if f.suggesting {
		suggest = "Calculating..."
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center,
		m.selectView(focusModel, model), " ",
		m.selectView(focusMemory, fmt.Sprintf("%dGB", f.memoryGB())), " ",
		m.buttonView(focusSuggest, suggest),
	)
	lines := []string{row}
	if f.detected != "" {
		lines = append(lines, m.theme.Muted.Render("Detected "+f.detected))
	}

	if f.warning != "" {
		lines = append(lines, styles.RenderWarning(f.warning))
	}
	if ok {
		lines = append(lines, fmt.Sprintf("This model has %s layers and needs %s of memory.",
			m.theme.CardTitle.Render(strconv.Itoa(spec.Layers)),
			m.theme.CardTitle.Render(fmt.Sprintf("%g GB", spec.MemoryGB))))
	}

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
		m.fieldView(focusFrom, "Start Layer", f.from.View(), 10), "  ",
		m.fieldView(focusTo, "End Layer", f.to.View(), 10),
	))

	generate := "Generate Account"
	if f.generating {
		generate = "Generating..."
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Bottom,
		m.fieldView(focusKey, "Private Key", f.key.View(), 40), "  ",
		m.buttonView(focusGenerate, generate),
	))

	if f.address != "" {
		bal := "..."
		if f.balance != nil {
			bal = wallet.FormatAPT(*f.balance, 5)
		}
		lines = append(lines, m.theme.Label.Render("Account")+m.theme.Value.Render(wallet.ShortenAddress(f.address)),
			m.theme.Label.Render("Balance")+m.theme.Value.Render(bal+" APT"))
	}
	if f.needsFunds() {
		lines = append(lines,
			m.theme.Notice.Render("Fund Your Account"),
			m.theme.Muted.Render("Your account needs funds to start a P2P session. Please use the Aptos faucet to transfer some APT to your account."),
			m.theme.Muted.Render("Go to Aptos Faucet: "+wallet.FaucetWebURL),
		)
	}

	start := "Start"
	if f.starting {
		start = "Starting..."
	}
	lines = append(lines, m.buttonView(focusStart, start))
	if f.err != "" {
		lines = append(lines, styles.RenderError(f.err))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// HISTORY
// =============================================================================

func (m Model) ownerCell(addr string) string {
	s := wallet.ShortenAddress(addr)
	if m.status.OwnsAddress(addr) || (addr != "" && strings.EqualFold(addr, m.form.address)) {
		s += " (you)"
	}
	return s
}

func pager(theme *styles.Theme, page indexer.Page, n int, prev, next string) string {
	parts := []string{fmt.Sprintf("page %d", page.Index+1)}
	if indexer.HasPrev(page) {
		parts = append(parts, prev+" prev")
	}
	if indexer.HasNext(n, page) {
		parts = append(parts, next+" next")
	}
	return theme.Muted.Render(strings.Join(parts, "  "))
}

func (m Model) historyView() []string {
	h := m.history
	addr := m.WalletAddress()

	sessTitle := m.theme.Section.Render("Created Sessions")
	claimTitle := m.theme.Section.Render("Claimed Requests")
	switch {
	case !enabled(m.deps):
		return []string{sessTitle, m.theme.Muted.Render("No indexer configured.")}
	case addr == "":
		return []string{sessTitle, m.theme.Muted.Render("No wallet address yet."), claimTitle, m.theme.Muted.Render("No wallet address yet.")}
	}

	sess := components.NewTable(m.theme,
		components.Column{Title: "Session", Width: 14},
		components.Column{Title: "Owner", Width: 20},
		components.Column{Title: "Max Tokens", Width: 10, Right: true},
		components.Column{Title: "Price/Token", Width: 11, Right: true},
		components.Column{Title: "Nodes", Width: 5, Right: true},
		components.Column{Title: "Time", Width: 16},
	)
	sess.Empty = "No sessions."
	rows := make([][]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		rows = append(rows, []string{
			s.SessionID,
			m.ownerCell(s.Owner),
			util.FormatCount(s.MaxTokens),
			util.FormatCount(s.PricePerToken),
			strconv.Itoa(len(s.Addresses)),
			util.FormatUnix(s.Timestamp),
		})
	}
	sess.SetRows(rows)

	claims := components.NewTable(m.theme,
		components.Column{Title: "Session", Width: 14},
		components.Column{Title: "Owner", Width: 20},
		components.Column{Title: "Claimer", Width: 20},
		components.Column{Title: "Tokens", Width: 8, Right: true},
		components.Column{Title: "Reward", Width: 12, Right: true},
		components.Column{Title: "Time", Width: 16},
	)
	claims.Empty = "No claims."
	rows = make([][]string, 0, len(h.claims))
	for _, c := range h.claims {
		rows = append(rows, []string{
			c.SessionID,
			m.ownerCell(c.Owner),
			m.ownerCell(c.Claimer),
			util.FormatCount(c.TokenCount),
			wallet.FormatAPT(c.TotalReward, 5),
			util.FormatUnix(c.Timestamp),
		})
	}
	claims.SetRows(rows)

	out := []string{sessTitle}
	switch {
	case h.sessErr != nil:
		out = append(out, styles.RenderError(h.sessErr.Error()))
		if h.sessLoaded {
			out = append(out, sess.View())
		}
	case !h.sessLoaded:
		out = append(out, m.theme.Muted.Render("Loading..."))
	default:
		out = append(out, sess.View())
	}
	out = append(out, pager(m.theme, h.sessPage, len(h.sessions), "[", "]"), claimTitle)
	switch {
	case h.claimErr != nil:
		out = append(out, styles.RenderError(h.claimErr.Error()))
		if h.claimLoaded {
			out = append(out, claims.View())
		}
	case !h.claimLoaded:
		out = append(out, m.theme.Muted.Render("Loading..."))
	default:
		out = append(out, claims.View())
	}
	out = append(out, pager(m.theme, h.claimPage, len(h.claims), "{", "}"))
	return out
}
