// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

// systemShare is the part of system RAM offered to layers; the rest stays
// with the OS and the client.
const systemShare = 0.75

// UsableGB is how much of info may host layers.
func UsableGB(info MemoryInfo) float64 {
	gb := float64(info.TotalMB) / 1024
	if info.Source == SourceSystem || info.Source == SourceApple {
		gb *= systemShare
	}
	return gb
}

// RecommendGB picks the largest option that fits in info. def is returned
// when nothing was detected or no option fits.
func RecommendGB(options []int, info MemoryInfo, def int) int {
	usable := UsableGB(info)
	if usable <= 0 {
		return def
	}
	best := 0
	for _, gb := range options {
		if float64(gb) <= usable && gb > best {
			best = gb
		}
	}
	if best == 0 {
		return def
	}
	return best
}
