// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

const (
	cellOn  = "█"
	cellOff = "░"
)

// NodeLayerBar draws one cell per layer for a single node, filled where the
// node hosts the layer. Models with more layers than width are sampled.
func NodeLayerBar(r layers.Range, total, width int) string {
	return renderCells(layers.Covered(r.Start, r.End, total), width, styles.Cyan, styles.OverlayDim)
}

// SwarmLayerBar draws the union of all node ranges. Hosted layers are
// green and gaps red, so an incomplete swarm shows where it is missing.
func SwarmLayerBar(ranges []layers.Range, total, width int) string {
	if total <= 0 {
		return ""
	}
	cells := make([]bool, total)
	for _, r := range ranges {
		for i, on := range layers.Covered(r.Start, r.End, total) {
			cells[i] = cells[i] || on
		}
	}
	return renderCells(cells, width, styles.Emerald, styles.Rose)
}

func renderCells(cells []bool, width int, on, off lipgloss.TerminalColor) string {
	if len(cells) == 0 {
		return ""
	}
	cells = sample(cells, width)

	onStyle := lipgloss.NewStyle().Foreground(on)
	offStyle := lipgloss.NewStyle().Foreground(off)

	var b strings.Builder
	run, runOn := 0, cells[0]
	flush := func() {
		if run == 0 {
			return
		}
		if runOn {
			b.WriteString(onStyle.Render(strings.Repeat(cellOn, run)))
		} else {
			b.WriteString(offStyle.Render(strings.Repeat(cellOff, run)))
		}
	}
	for _, c := range cells {
		if c != runOn {
			flush()
			run, runOn = 0, c
		}
		run++
	}
	flush()
	return b.String()
}

// sample shrinks cells to width. A sampled cell is off when any layer it
// stands for is off, so gaps never disappear.
func sample(cells []bool, width int) []bool {
	if width <= 0 || len(cells) <= width {
		return cells
	}
	out := make([]bool, width)
	for i := range out {
		lo := i * len(cells) / width
		hi := (i + 1) * len(cells) / width
		if hi <= lo {
			hi = lo + 1
		}
		v := true
		for _, c := range cells[lo:hi] {
			v = v && c
		}
		out[i] = v
	}
	return out
}
