// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/util"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// markdown renders finished assistant replies, caching by message id. The
// cache is dropped when the wrap width changes.
type markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown(dark bool) *markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdown{style: style, cache: make(map[string]string)}
}

func (md *markdown) render(id, text string, width int) string {
	if width < 20 {
		width = 20
	}
	if md.renderer == nil || md.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		md.renderer, md.width = r, width
		md.cache = make(map[string]string)
	}
	if out, ok := md.cache[id]; ok {
		return out
	}
	out, err := md.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.Trim(out, "\n")
	md.cache[id] = out
	return out
}

// =============================================================================
// VIEW
// =============================================================================

// refresh rebuilds the transcript in the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
}

func (m *Model) transcript() string {
	width := max(m.viewport.Width-2, 20)
	if m.chat == nil || len(m.chat.Messages) == 0 {
		return m.theme.Muted.Render(fmt.Sprintf("Ask the swarm anything. Replies come from %s.", m.deps.Options.SelectedModel))
	}

	model := m.chat.Model
	if model == "" {
		model = "Assistant"
	}

	blocks := make([]string, 0, len(m.chat.Messages))
	for i, msg := range m.chat.Messages {
		streaming := m.state == StateStreaming && i == len(m.chat.Messages)-1
		switch msg.Role {
		case openai.RoleUser:
			blocks = append(blocks,
				m.theme.RoleUser.Render("You")+"\n"+
					m.theme.UserBubble.Width(width-2).Render(msg.Content))
		default:
			body := msg.Content
			if streaming {
				body = lipgloss.NewStyle().Width(width).Render(body + "▌")
			} else {
				body = m.md.render(msg.ID, msg.Content, width-4)
			}
			blocks = append(blocks, m.theme.RoleAssistant.Render(model)+"\n"+body)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the tab.
func (m Model) View() string {
	switch m.overlay {
	case overlayStatus:
		return m.statusOverlay()
	case overlayChats:
		return m.listOverlay()
	}

	status := m.spinner.View()
	if status == "" {
		status = m.theme.Muted.Render("model: " + m.deps.Options.SelectedModel)
	}
	input := m.theme.InputBox.Width(max(m.width-4, 10)).Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), status, input)
}

func (m Model) statusOverlay() string {
	var b strings.Builder
	b.WriteString(m.theme.CardTitle.Render("Current Model Status"))
	b.WriteString("\n\n")
	if m.status == nil || len(m.status.Models) == 0 {
		b.WriteString(m.theme.Muted.Render("No active models."))
	} else {
		b.WriteString(components.ModelCards(m.theme, m.status, max(m.width-10, 30), -1))
	}
	b.WriteString("\n" + m.theme.Muted.Render("esc to close"))
	return m.theme.Overlay.Render(b.String())
}

func (m Model) listOverlay() string {
	var b strings.Builder
	b.WriteString(m.theme.CardTitle.Render("Your chats"))
	b.WriteString("\n\n")
	if len(m.chatList) == 0 {
		b.WriteString(m.theme.Muted.Render("No saved chats."))
	}
	titleWidth := max(m.width-40, 20)
	for i, c := range m.chatList {
		line := util.PadRight(util.TruncateWidth(c.Title, titleWidth), titleWidth) + "  " +
			util.PadLeft(fmt.Sprintf("%d msgs", c.MessageCount), 8) + "  " +
			util.Ago(c.UpdatedAt)
		if i == m.listCursor {
			b.WriteString(m.theme.TableSelect.Render("> " + line))
		} else {
			b.WriteString(m.theme.TableRow.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + m.theme.Muted.Render("enter open  d delete  esc close"))
	return m.theme.Overlay.Render(b.String())
}
