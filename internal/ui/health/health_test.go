// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package health

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

func testViews() []registry.ModelView {
	health := []registry.SwarmHealth{{
		Model:       "llama32-1b",
		TotalLayers: 16,
		Nodes: []registry.Node{
			{ID: "node-1", Info: registry.NodeInfo{Layers: layers.Range{Start: 1, End: 8}, Stats: registry.NodeStats{TokenOutSum: 1200, TokenOutTps: 4.5}}},
			{ID: "node-2", Info: registry.NodeInfo{Layers: layers.Range{Start: 9, End: 16}}},
		},
	}, {
		Model:       "phi3",
		TotalLayers: 32,
		Nodes:       []registry.Node{{ID: "node-3", Info: registry.NodeInfo{Layers: layers.Range{Start: 1, End: 10}}}},
	}}
	models := []registry.SupportedModel{
		{ID: "llama32-1b", Layers: 16, Memory: 3},
		{ID: "phi3", Layers: 32, Memory: 4},
		{ID: "llama32-3b", Layers: 28, Memory: 8},
	}
	return registry.Join(models, health)
}

func newTestModel() Model {
	m := New(styles.NewTheme("dark"))
	m.SetSize(160, 200)
	return m
}

func TestView_Loading(t *testing.T) {
	m := newTestModel()
	assert.Contains(t, m.View(), "Loading swarm health...")
}

func TestView_Models(t *testing.T) {
	m := newTestModel()
	m.SetViews(testViews(), nil, time.Now())

	view := m.View()
	assert.Contains(t, view, "Supported Models")
	assert.Contains(t, view, "Complete")
	assert.Contains(t, view, "Incomplete")
	assert.Contains(t, view, "1 - 8 (out of 16)")
	assert.Contains(t, view, "Missing layers: 11 - 32")
	assert.Contains(t, view, "No active nodes for this model")
	assert.Contains(t, view, "1,200")
	assert.Contains(t, view, "Worker Nodes for llama32-3b")
}

func TestSetViews_ErrorKeepsLastViews(t *testing.T) {
	m := newTestModel()
	at := time.Now()
	m.SetViews(testViews(), nil, at)
	m.SetViews(nil, errors.New("Connection to vLLM registry server failed: [502 Bad Gateway]"), at.Add(time.Second))

	assert.Len(t, m.Views(), 3)
	assert.Equal(t, at, m.UpdatedAt())
	assert.Error(t, m.Err())

	view := m.View()
	assert.Contains(t, view, "Connection to vLLM registry server failed")
	assert.Contains(t, view, "node-1")
}

func TestSetViews_ErrorBeforeFirstLoad(t *testing.T) {
	m := newTestModel()
	m.SetViews(nil, errors.New("registry down"), time.Now())

	view := m.View()
	assert.Contains(t, view, "registry down")
	assert.NotContains(t, view, "Loading swarm health...")
}
