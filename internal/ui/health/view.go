// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package health

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/util"
)

const layerMapWidth = 24

func (m Model) content() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.RenderError(m.err.Error()))
		b.WriteString("\n\n")
	}
	if !m.loaded {
		if m.err == nil {
			b.WriteString(m.theme.Muted.Render("Loading swarm health..."))
		}
		return b.String()
	}

	b.WriteString(m.supportedLine())
	for _, v := range m.views {
		b.WriteString("\n\n")
		b.WriteString(m.modelCard(v))
	}
	return b.String()
}

// supportedLine lists every supported model, green when the swarm covers it
// and yellow otherwise.
func (m Model) supportedLine() string {
	complete := lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	incomplete := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)

	names := make([]string, 0, len(m.views))
	for _, v := range m.views {
		if v.Covered {
			names = append(names, complete.Render(v.Model))
		} else {
			names = append(names, incomplete.Render(v.Model))
		}
	}
	list := m.theme.Muted.Render("No supported models.")
	if len(names) > 0 {
		list = strings.Join(names, m.theme.Muted.Render(" • "))
	}
	return m.theme.Section.Render("Supported Models") + "\n" + list
}

func (m Model) modelCard(v registry.ModelView) string {
	title := lipgloss.JoinHorizontal(lipgloss.Center,
		m.theme.CardTitle.Render(v.Model), "  ", styles.RenderCompleteness(v.Covered))

	lines := []string{title}
	if v.TotalLayers > 0 {
		lines = append(lines, "Swarm  "+components.SwarmLayerBar(v.Ranges(), v.TotalLayers, layerMapWidth))
	}
	if gaps := v.Gaps(); len(gaps) > 0 && len(v.Nodes) > 0 {
		parts := make([]string, len(gaps))
		for i, g := range gaps {
			parts[i] = g.String()
		}
		lines = append(lines, m.theme.Notice.Render("Missing layers: "+strings.Join(parts, ", ")))
	}
	lines = append(lines, "", m.nodeTable(v))
	lines = append(lines, m.theme.Muted.Render("Worker Nodes for "+v.Model))

	return m.theme.Card.Render(strings.Join(lines, "\n"))
}

func (m Model) nodeTable(v registry.ModelView) string {
	t := components.NewTable(m.theme,
		components.Column{Title: "Node ID", Width: 14},
		components.Column{Title: "Layers", Width: 20},
		components.Column{Title: "", Width: layerMapWidth, Raw: true},
		components.Column{Title: "Output Tps", Width: 10, Right: true},
		components.Column{Title: "Output Tokens", Width: 13, Right: true},
		components.Column{Title: "Network Out", Width: 11, Right: true},
		components.Column{Title: "Network In", Width: 10, Right: true},
	)
	t.Empty = "No active nodes for this model"

	rows := make([][]string, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		r := n.Info.Layers
		s := n.Info.Stats
		rows = append(rows, []string{
			n.ID,
			layerCell(r, v.TotalLayers),
			components.NodeLayerBar(r, v.TotalLayers, layerMapWidth),
			util.FormatTPS(s.TokenOutTps),
			util.FormatCount(s.TokenOutSum),
			util.FormatBytes(s.NetworkOutBytes),
			util.FormatBytes(s.NetworkInBytes),
		})
	}
	t.SetRows(rows)
	return t.View()
}

func layerCell(r layers.Range, total int) string {
	return fmt.Sprintf("%s (out of %d)", r, total)
}
