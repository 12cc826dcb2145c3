// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND TABS
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMode  lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// ==========================================================================
	// CARDS AND FIELDS
	// ==========================================================================

	Card      lipgloss.Style
	CardTitle lipgloss.Style
	Section   lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Notice    lipgloss.Style

	// ==========================================================================
	// TABLES AND FORMS
	// ==========================================================================

	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	TableSelect lipgloss.Style
	FieldFocus  lipgloss.Style
	FieldBlur   lipgloss.Style
	Button      lipgloss.Style
	ButtonFocus lipgloss.Style

	// ==========================================================================
	// CHAT
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleUser        lipgloss.Style
	RoleAssistant   lipgloss.Style
	InputBox        lipgloss.Style
	Overlay         lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	StatusText   lipgloss.Style
	StatusError  lipgloss.Style
	StatusActive lipgloss.Style
}

// NewTheme builds the theme. name is the config value: "dark" and "light"
// force the background, anything else detects it from the terminal.
func NewTheme(name string) *Theme {
	output := termenv.NewOutput(os.Stdout)
	t := &Theme{
		ColorProfile: output.Profile,
		IsDark:       output.HasDarkBackground(),
		Width:        80,
		Height:       24,
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		t.IsDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		t.IsDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t.initStyles()
	return t
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

func (t *Theme) initStyles() {
	// =========================================================================
	// HEADER AND TABS
	// =========================================================================

	t.Header = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(OverlayDim)

	t.HeaderBrand = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.HeaderMode = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		Bold(true).
		Padding(0, 2)

	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)

	// =========================================================================
	// CARDS AND FIELDS
	// =========================================================================

	t.Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1).
		MarginBottom(1)

	t.CardTitle = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.Section = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		MarginTop(1)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(12)

	t.Value = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Notice = lipgloss.NewStyle().
		Foreground(Amber)

	// =========================================================================
	// TABLES AND FORMS
	// =========================================================================

	t.TableHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(OverlayDim)

	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TableSelect = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg)

	t.FieldFocus = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)

	t.FieldBlur = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceBright).
		Padding(0, 2)

	t.ButtonFocus = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 2)

	// =========================================================================
	// CHAT
	// =========================================================================

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.RoleUser = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.RoleAssistant = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.InputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.Overlay = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Cyan).
		Background(SurfaceDim).
		Padding(1, 2)

	// =========================================================================
	// STATUS BAR
	// =========================================================================

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SurfaceDim).
		Bold(true)

	t.StatusText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Background(SurfaceDim).
		Bold(true)

	t.StatusActive = lipgloss.NewStyle().
		Foreground(Emerald).
		Background(SurfaceDim)
}
