// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Purple - Primary accent, assistant messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, active tab, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Ready nodes, complete swarms, local mode
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber - Incomplete nodes and swarms, cloud mode
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Stopped nodes, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var (
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
	OverlayDim    = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
)

// =============================================================================
// MESSAGE COLORS
// =============================================================================

var (
	UserBubbleFg     = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

	AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}
)

// SelectionBg highlights the focused row of a list.
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// =============================================================================
// NODE STATUS
// =============================================================================

// Node statuses as reported by the control plane.
const (
	StatusReady      = "ready"
	StatusIncomplete = "incomplete"
	StatusStopped    = "stopped"
)

// StatusColor maps a node status to its colour: ready green, incomplete
// yellow, stopped red. Anything else is muted.
func StatusColor(status string) lipgloss.TerminalColor {
	switch status {
	case StatusReady:
		return Emerald
	case StatusIncomplete:
		return Amber
	case StatusStopped:
		return Rose
	default:
		return TextMuted
	}
}

// StatusIcon gives each status a distinct shape so it reads without colour.
func StatusIcon(status string) string {
	switch status {
	case StatusReady:
		return "●"
	case StatusIncomplete:
		return "◐"
	case StatusStopped:
		return "○"
	default:
		return "·"
	}
}

// RenderNodeStatus renders "<icon> <status>" in the status colour.
func RenderNodeStatus(status string) string {
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Bold(true).
		Render(StatusIcon(status) + " " + status)
}

// RenderCompleteness is the swarm badge for a model.
func RenderCompleteness(complete bool) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(TextInverse)
	if complete {
		return style.Background(Emerald).Render("Complete")
	}
	return style.Background(Amber).Render("Incomplete")
}

// =============================================================================
// MESSAGE HELPERS
// =============================================================================

// RenderSuccess renders "[OK] message" in green.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).Render("[OK] " + message)
}

// RenderError renders "[X] message" in red.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render("[X] " + message)
}

// RenderWarning renders "[!] message" in amber.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).Render("[!] " + message)
}
