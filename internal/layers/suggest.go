// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package layers

import (
	"errors"
	"fmt"
	"math"
)

// ModelSpec describes a model the node can host.
type ModelSpec struct {
	ID       string  `json:"id"`
	Layers   int     `json:"layers"`
	MemoryGB float64 `json:"memory"`
}

// DefaultCatalog is used when the registry's model list is unavailable.
func DefaultCatalog() []ModelSpec {
	return []ModelSpec{
		{ID: "llama32-1b", Layers: 16, MemoryGB: 3},
		{ID: "llama32-3b", Layers: 28, MemoryGB: 8},
		{ID: "llama32-vision-11b", Layers: 40, MemoryGB: 25},
		{ID: "phi3", Layers: 32, MemoryGB: 4},
	}
}

// Find returns the spec with the given id.
func Find(catalog []ModelSpec, id string) (ModelSpec, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return ModelSpec{}, false
}

// MaxMemoryOptions are the memory budgets offered by the start form, in GB.
var MaxMemoryOptions = []int{1, 2, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 24, 32, 48, 64}

// DefaultMaxMemoryGB is the preselected memory budget.
const DefaultMaxMemoryGB = 8

// MaxLayersForMemory is how many of the model's layers fit in memGB.
func MaxLayersForMemory(spec ModelSpec, memGB float64) int {
	if spec.MemoryGB <= 0 || spec.Layers <= 0 || memGB <= 0 {
		return 0
	}
	return int(math.Floor(memGB / spec.MemoryGB * float64(spec.Layers)))
}

// RequiredMemoryGB is the whole number of GB needed to host minLayers.
func RequiredMemoryGB(spec ModelSpec, minLayers int) int {
	if spec.Layers <= 0 {
		return 0
	}
	return int(math.Ceil(spec.MemoryGB * float64(minLayers) / float64(spec.Layers)))
}

// SuggestReply is the control plane's suggest_layers answer.
type SuggestReply struct {
	Distribution []int `json:"distribution"`
	MinLayers    *int  `json:"min_layers,omitempty"`
	FromLayer    *int  `json:"from_layer,omitempty"`
	ToLayer      *int  `json:"to_layer,omitempty"`
}

// Suggestion is a SuggestReply reduced to what the start form needs.
type Suggestion struct {
	From    int
	To      int
	OK      bool
	Warning string
}

// ErrNoModel is returned when a suggestion is requested without a model.
var ErrNoModel = errors.New("Please select a model first.")

// Interpret turns a reply into either a range or a user-facing warning.
func Interpret(spec ModelSpec, reply SuggestReply) Suggestion {
	switch {
	case reply.FromLayer != nil && reply.ToLayer != nil:
		return Suggestion{From: *reply.FromLayer, To: *reply.ToLayer, OK: true}
	case reply.MinLayers != nil:
		need := RequiredMemoryGB(spec, *reply.MinLayers)
		return Suggestion{Warning: fmt.Sprintf("Need at least %dGB of memory for %d layers.", need, *reply.MinLayers)}
	default:
		return Suggestion{Warning: "Unable to determine suggested layers."}
	}
}

// ValidateRange checks a start form range. from is the first layer index
// (0..Layers-1) and to is the exclusive upper bound (from+1..Layers).
func ValidateRange(spec ModelSpec, from, to int) error {
	if spec.ID == "" {
		return ErrNoModel
	}
	if from < 0 || from > spec.Layers-1 {
		return fmt.Errorf("start layer must be between 0 and %d", spec.Layers-1)
	}
	if to <= from {
		return fmt.Errorf("end layer must be greater than start layer")
	}
	if to > spec.Layers {
		return fmt.Errorf("end layer must be at most %d", spec.Layers)
	}
	return nil
}

// ClampRange pulls a range into the bounds of spec, keeping to > from.
func ClampRange(spec ModelSpec, from, to int) (int, int) {
	if spec.Layers <= 0 {
		return 0, 0
	}
	if from < 0 {
		from = 0
	}
	if from > spec.Layers-1 {
		from = spec.Layers - 1
	}
	if to > spec.Layers {
		to = spec.Layers
	}
	if to <= from {
		to = from + 1
	}
	return from, to
}
