// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

// =============================================================================
// COVERAGE TESTS
// =============================================================================

func TestIsModelComplete(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
		total  int
		want   bool
	}{
		{"contiguous", []Range{{1, 10}, {11, 20}}, 20, true},
		{"gap", []Range{{1, 10}, {15, 20}}, 20, false},
		{"empty", nil, 20, false},
		{"unsorted", []Range{{11, 20}, {1, 10}}, 20, true},
		{"overlapping", []Range{{1, 12}, {8, 20}}, 20, true},
		{"short", []Range{{1, 10}, {11, 19}}, 20, false},
		{"missing first layer", []Range{{2, 20}}, 20, false},
		{"contained range", []Range{{1, 20}, {5, 6}}, 20, true},
		{"overshoot", []Range{{1, 25}}, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsModelComplete(tt.ranges, tt.total); got != tt.want {
				t.Errorf("IsModelComplete(%v, %d) = %v, want %v", tt.ranges, tt.total, got, tt.want)
			}
		})
	}
}

func TestIsModelComplete_DoesNotReorderInput(t *testing.T) {
	in := []Range{{11, 20}, {1, 10}}
	IsModelComplete(in, 20)
	assert.Equal(t, []Range{{11, 20}, {1, 10}}, in)
}

func TestGaps(t *testing.T) {
	assert.Equal(t, []Range{{11, 14}}, Gaps([]Range{{1, 10}, {15, 20}}, 20))
	assert.Equal(t, []Range{{1, 20}}, Gaps(nil, 20))
	assert.Equal(t, []Range{{17, 20}}, Gaps([]Range{{1, 16}}, 20))
	assert.Empty(t, Gaps([]Range{{1, 10}, {11, 20}}, 20))
}

func TestCovered(t *testing.T) {
	got := Covered(2, 4, 5)
	assert.Equal(t, []bool{false, true, true, true, false}, got)
	assert.Nil(t, Covered(1, 2, 0))
}

func TestRangeString(t *testing.T) {
	assert.Equal(t, "1 - 16", Range{1, 16}.String())
	assert.Equal(t, 16, Range{1, 16}.Len())
	assert.Equal(t, 0, Range{5, 2}.Len())
}

// =============================================================================
// SUGGESTION TESTS
// =============================================================================

func TestMaxLayersForMemory(t *testing.T) {
	llama3b := ModelSpec{ID: "llama32-3b", Layers: 28, MemoryGB: 8}
	assert.Equal(t, 28, MaxLayersForMemory(llama3b, 8))
	assert.Equal(t, 14, MaxLayersForMemory(llama3b, 4))
	assert.Equal(t, 3, MaxLayersForMemory(llama3b, 1))
	assert.Equal(t, 0, MaxLayersForMemory(ModelSpec{}, 8))
}

func TestRequiredMemoryGB(t *testing.T) {
	vision := ModelSpec{ID: "llama32-vision-11b", Layers: 40, MemoryGB: 25}
	assert.Equal(t, 7, RequiredMemoryGB(vision, 10))
	assert.Equal(t, 25, RequiredMemoryGB(vision, 40))
}

func TestInterpret(t *testing.T) {
	spec := ModelSpec{ID: "llama32-1b", Layers: 16, MemoryGB: 3}

	s := Interpret(spec, SuggestReply{FromLayer: intp(0), ToLayer: intp(8)})
	require.True(t, s.OK)
	assert.Equal(t, 0, s.From)
	assert.Equal(t, 8, s.To)

	s = Interpret(spec, SuggestReply{MinLayers: intp(8)})
	assert.False(t, s.OK)
	assert.Equal(t, "Need at least 2GB of memory for 8 layers.", s.Warning)

	s = Interpret(spec, SuggestReply{Distribution: []int{1, 1}})
	assert.Equal(t, "Unable to determine suggested layers.", s.Warning)
}

func TestValidateRange(t *testing.T) {
	spec := ModelSpec{ID: "phi3", Layers: 32, MemoryGB: 4}

	assert.NoError(t, ValidateRange(spec, 0, 32))
	assert.NoError(t, ValidateRange(spec, 31, 32))
	assert.Error(t, ValidateRange(spec, 5, 5))
	assert.Error(t, ValidateRange(spec, -1, 3))
	assert.Error(t, ValidateRange(spec, 0, 33))
	assert.ErrorIs(t, ValidateRange(ModelSpec{}, 0, 1), ErrNoModel)
}

func TestClampRange(t *testing.T) {
	spec := ModelSpec{ID: "llama32-1b", Layers: 16, MemoryGB: 3}
	from, to := ClampRange(spec, 0, 18)
	assert.Equal(t, 0, from)
	assert.Equal(t, 16, to)

	from, to = ClampRange(spec, 20, 3)
	assert.Equal(t, 15, from)
	assert.Equal(t, 16, to)
}

func TestCatalog(t *testing.T) {
	m, ok := Find(DefaultCatalog(), "phi3")
	require.True(t, ok)
	assert.Equal(t, 32, m.Layers)
	_, ok = Find(DefaultCatalog(), "gpt2")
	assert.False(t, ok)
	assert.Contains(t, MaxMemoryOptions, DefaultMaxMemoryGB)
}
