// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import "github.com/wavefy/dllm-tui/internal/layers"

// SwarmHealth is the registry's view of one model across all nodes.
type SwarmHealth struct {
	Model       string `json:"model"`
	TotalLayers int    `json:"total_layers"`
	Nodes       []Node `json:"nodes"`
}

// Node is one swarm member serving a slice of a model.
type Node struct {
	ID   string   `json:"id"`
	Info NodeInfo `json:"info"`
}

// NodeInfo is what a node reports about itself.
type NodeInfo struct {
	Layers layers.Range `json:"layers"`
	Stats  NodeStats    `json:"stats"`
}

// NodeStats are cumulative counters and current rates.
type NodeStats struct {
	NetworkInBytes  uint64  `json:"network_in_bytes"`
	NetworkOutBytes uint64  `json:"network_out_bytes"`
	TokenInSum      uint64  `json:"token_in_sum"`
	TokenOutSum     uint64  `json:"token_out_sum"`
	NetworkInBps    float64 `json:"network_in_bps"`
	NetworkOutBps   float64 `json:"network_out_bps"`
	TokenInTps      float64 `json:"token_in_tps"`
	TokenOutTps     float64 `json:"token_out_tps"`
}

// SupportedModel is an entry of /api/models. Memory is in GB for the whole
// model.
type SupportedModel struct {
	ID     string  `json:"id"`
	Layers int     `json:"layers"`
	Memory float64 `json:"memory"`
}

// Ranges lists every node's slice.
func (h SwarmHealth) Ranges() []layers.Range {
	out := make([]layers.Range, 0, len(h.Nodes))
	for _, n := range h.Nodes {
		out = append(out, n.Info.Layers)
	}
	return out
}

// Complete reports whether the swarm covers every layer of the model.
func (h SwarmHealth) Complete() bool {
	return layers.IsModelComplete(h.Ranges(), h.TotalLayers)
}

// Gaps lists the layers no node hosts.
func (h SwarmHealth) Gaps() []layers.Range {
	return layers.Gaps(h.Ranges(), h.TotalLayers)
}

// ModelView pairs a supported model with its swarm health.
type ModelView struct {
	SwarmHealth
	Spec    SupportedModel
	Covered bool
}

// Join builds one view per supported model in registry order. Models the
// health report does not mention get an empty node list.
func Join(models []SupportedModel, health []SwarmHealth) []ModelView {
	byModel := make(map[string]SwarmHealth, len(health))
	for _, h := range health {
		byModel[h.Model] = h
	}

	views := make([]ModelView, 0, len(models))
	for _, m := range models {
		h, ok := byModel[m.ID]
		if !ok {
			h = SwarmHealth{Model: m.ID, TotalLayers: m.Layers, Nodes: []Node{}}
		}
		views = append(views, ModelView{SwarmHealth: h, Spec: m, Covered: h.Complete()})
	}
	return views
}

// Catalog converts the registry's list for the start form.
func Catalog(models []SupportedModel) []layers.ModelSpec {
	out := make([]layers.ModelSpec, 0, len(models))
	for _, m := range models {
		out = append(out, layers.ModelSpec{ID: m.ID, Layers: m.Layers, MemoryGB: m.Memory})
	}
	return out
}
