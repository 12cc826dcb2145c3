// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds the small building blocks shared by the tabs:
// the header with its tab strip, the status bar, toasts, the spinner,
// layer coverage bars and plain text tables.
//
// Components render strings. They do not own tea.Programs and only a few
// (Spinner, ToastManager) take part in the update loop.
package components
