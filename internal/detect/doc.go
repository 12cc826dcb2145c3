// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect finds how much memory this machine can give to model
// layers, so the start form and `dllm suggest` can preselect a budget.
//
// Probes run in order and the first answer wins:
//
//   - NVIDIA VRAM (via nvidia-smi)
//   - Apple Silicon unified memory (via sysctl hw.memsize)
//   - System RAM (via /proc/meminfo)
//
// # Usage
//
//	info, err := detect.MemoryCached(ctx)
//	if err == nil {
//		gb := detect.RecommendGB(layers.MaxMemoryOptions, info, layers.DefaultMaxMemoryGB)
//	}
package detect
