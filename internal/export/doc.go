// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved chats to files.
//
// # Formats
//
//   - Markdown: readable transcript with a YAML front matter block
//   - JSON: the stored chat as is
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", export.DefaultOptions())
//	path, err := export.ToFile(chat, exp, "exports")
package export
