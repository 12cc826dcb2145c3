// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/util"
)

// Column is a table column. Right aligns numbers. Raw cells are already
// styled and are padded but never truncated.
type Column struct {
	Title string
	Width int
	Right bool
	Raw   bool
}

// Table renders fixed-width rows with an optional selected row. Cells are
// measured in terminal cells, so wide runes in ids keep columns aligned.
type Table struct {
	Columns  []Column
	Rows     [][]string
	Selected int
	Empty    string

	theme *styles.Theme
}

// NewTable creates a table with no selection.
func NewTable(theme *styles.Theme, cols ...Column) *Table {
	return &Table{Columns: cols, Selected: -1, theme: theme}
}

// SetRows replaces the rows and clamps the selection.
func (t *Table) SetRows(rows [][]string) {
	t.Rows = rows
	if t.Selected >= len(rows) {
		t.Selected = len(rows) - 1
	}
}

// MoveSelection moves the cursor by delta within the rows.
func (t *Table) MoveSelection(delta int) {
	if len(t.Rows) == 0 {
		t.Selected = -1
		return
	}
	t.Selected += delta
	if t.Selected < 0 {
		t.Selected = 0
	}
	if t.Selected >= len(t.Rows) {
		t.Selected = len(t.Rows) - 1
	}
}

func (t *Table) line(cells []string) string {
	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		if col.Raw {
			parts[i] = v + strings.Repeat(" ", max(col.Width-lipgloss.Width(v), 0))
			continue
		}
		v = util.TruncateWidth(v, col.Width)
		if col.Right {
			parts[i] = util.PadLeft(v, col.Width)
		} else {
			parts[i] = util.PadRight(v, col.Width)
		}
	}
	return strings.Join(parts, "  ")
}

// View renders the header and rows, or the Empty text when there are none.
func (t *Table) View() string {
	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}

	var b strings.Builder
	b.WriteString(t.theme.TableHeader.Render(t.line(titles)))
	b.WriteString("\n")
	if len(t.Rows) == 0 {
		b.WriteString(t.theme.Muted.Render(t.Empty))
		return b.String()
	}
	for i, row := range t.Rows {
		style := t.theme.TableRow
		if i == t.Selected {
			style = t.theme.TableSelect
		}
		b.WriteString(style.Render(t.line(row)))
		if i < len(t.Rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
