// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the dllm packages.
//
// # Key Functions
//
// Text:
//   - TruncateWidth: display-width aware truncation (CJK safe)
//   - PadRight: pad a cell to a display width
//
// Formatting:
//   - FormatBytes, FormatRate: network counters for the health tables
//   - FormatCount: thousands separators for token sums
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.PadRight(util.TruncateWidth(nodeID, 18), 18)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
