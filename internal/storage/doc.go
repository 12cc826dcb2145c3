// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps the client's local state under ~/.dllm.
//
// Two stores live here:
//
//   - ChatStore writes one JSON file per finished chat to ~/.dllm/chats.
//   - KV is a small sqlite key/value table (~/.dllm/local.db) holding the
//     node's private key and the chat options.
//
// Both are safe for use from the TUI's command goroutines.
package storage
