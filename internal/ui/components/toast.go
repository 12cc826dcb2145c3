// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind selects colour, icon and lifetime of a toast.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
)

const (
	InfoToastDuration    = 4 * time.Second
	WarningToastDuration = 6 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

func (k ToastKind) duration() time.Duration {
	switch k {
	case ToastError:
		return ErrorToastDuration
	case ToastWarning:
		return WarningToastDuration
	default:
		return InfoToastDuration
	}
}

// Toast is a non-blocking notification that dismisses itself.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// Expired reports whether the toast has outlived its duration at now.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager keeps the visible toasts, newest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int
	max    int
	now    func() time.Time
}

// NewToastManager shows at most three toasts at once.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, max: 3, now: time.Now}
}

// Add pushes a toast and returns its id.
func (m *ToastManager) Add(kind ToastKind, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: m.now(),
		Duration:  kind.duration(),
	}
	m.nextID++

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.max {
		m.toasts = m.toasts[:m.max]
	}
	return t.ID
}

func (m *ToastManager) Error(message string) int   { return m.Add(ToastError, message) }
func (m *ToastManager) Warning(message string) int { return m.Add(ToastWarning, message) }
func (m *ToastManager) Success(message string) int { return m.Add(ToastSuccess, message) }
func (m *ToastManager) Info(message string) int    { return m.Add(ToastInfo, message) }

// Dismiss removes the newest toast.
func (m *ToastManager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick drops expired toasts and returns what is left.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.Expired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// Empty reports whether nothing is shown.
func (m *ToastManager) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) == 0
}

// =============================================================================
// MESSAGES
// =============================================================================

// ToastTickMsg drives expiry.
type ToastTickMsg time.Time

// ToastTickCmd ticks every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg(t)
	})
}

// ToastMsg asks the root model to show a toast. Tabs return it from their
// commands instead of holding a manager.
type ToastMsg struct {
	Kind    ToastKind
	Message string
}

// ShowToast wraps a ToastMsg in a command.
func ShowToast(kind ToastKind, message string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Kind: kind, Message: message} }
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToast renders one toast at most width cells wide.
func RenderToast(t Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 20 {
		maxWidth = 20
	}

	var color lipgloss.AdaptiveColor
	var icon string
	switch t.Kind {
	case ToastError:
		color, icon = styles.Rose, "[X]"
	case ToastWarning:
		color, icon = styles.Amber, "[!]"
	case ToastSuccess:
		color, icon = styles.Emerald, "[OK]"
	default:
		color, icon = styles.Cyan, "[i]"
	}

	body := lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon) + " " +
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(t.Message)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(maxWidth).
		Render(body)
}

// RenderToastStack stacks toasts right-aligned, newest at the bottom.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rendered = append(rendered, RenderToast(toasts[i], width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if width <= 0 {
		return stack
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, strings.TrimRight(stack, "\n"))
}
