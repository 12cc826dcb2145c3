// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package layers

import (
	"fmt"
	"sort"
)

// Range is a 1-based inclusive span of layers hosted by one node.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String renders the range the way the health table shows it.
func (r Range) String() string {
	return fmt.Sprintf("%d - %d", r.Start, r.End)
}

// Len is the number of layers in r, zero for an inverted range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func sortedCopy(ranges []Range) []Range {
	out := make([]Range, len(ranges))
	copy(out, ranges)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// IsModelComplete reports whether ranges jointly cover layers 1..totalLayers.
//
// Ranges are visited in start order while tracking the highest end seen so
// far. A range starting more than one past that end leaves a gap. The input
// slice is not modified.
func IsModelComplete(ranges []Range, totalLayers int) bool {
	if len(ranges) == 0 {
		return false
	}

	coveredUntil := 0
	for _, r := range sortedCopy(ranges) {
		if r.Start > coveredUntil+1 {
			return false
		}
		if r.End > coveredUntil {
			coveredUntil = r.End
		}
	}
	return coveredUntil == totalLayers
}

// Gaps lists the spans of 1..totalLayers not hosted by any range.
func Gaps(ranges []Range, totalLayers int) []Range {
	var gaps []Range
	coveredUntil := 0
	for _, r := range sortedCopy(ranges) {
		if coveredUntil >= totalLayers {
			break
		}
		if r.Start > coveredUntil+1 {
			end := r.Start - 1
			if end > totalLayers {
				end = totalLayers
			}
			gaps = append(gaps, Range{Start: coveredUntil + 1, End: end})
		}
		if r.End > coveredUntil {
			coveredUntil = r.End
		}
	}
	if coveredUntil < totalLayers {
		gaps = append(gaps, Range{Start: coveredUntil + 1, End: totalLayers})
	}
	return gaps
}

// Covered returns a per-layer map for the layer bar: index i is set when
// layer i+1 lies within start..end.
func Covered(start, end, totalLayers int) []bool {
	if totalLayers <= 0 {
		return nil
	}
	out := make([]bool, totalLayers)
	for i := range out {
		out[i] = start <= i+1 && i+1 <= end
	}
	return out
}
