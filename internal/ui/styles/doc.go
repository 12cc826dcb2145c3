// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colour palette and lipgloss styles of the dllm TUI.

All colours are lipgloss.AdaptiveColor values, so they follow the terminal's
light or dark background unless the theme is forced in the config.

# Status colours

Node and swarm state always use the same mapping:

	ready / Complete        Emerald
	incomplete / Incomplete Amber
	stopped                 Rose

Each status also has an icon (StatusIcon) so it can be read without colour.

# Theme

NewTheme builds the styles the tabs use (tabs, cards, tables, chat bubbles,
status bar). Tabs receive the theme from the root model and never build
styles of their own.
*/
package styles
