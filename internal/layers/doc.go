// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package layers holds the layer arithmetic used by the dashboard and the
// health view.
//
// A model is split into Layers transformer blocks. Each node in the swarm
// hosts a contiguous 1-based inclusive Range of them. A model can serve
// requests only when the union of all node ranges covers 1..Layers without a
// gap, which IsModelComplete checks.
//
// The package also converts between a memory budget and a layer count for
// the P2P start form, and interprets the control plane's suggest_layers reply.
package layers
