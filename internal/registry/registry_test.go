// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/layers"
)

const healthBody = `[
  {"model":"llama32-1b","total_layers":16,"nodes":[
    {"id":"node-1","info":{"layers":{"start":1,"end":8},"stats":{"token_out_sum":1200,"token_out_tps":4.5,"network_out_bytes":2048,"network_in_bytes":1024}}},
    {"id":"node-2","info":{"layers":{"start":9,"end":16},"stats":{}}}
  ]},
  {"model":"phi3","total_layers":32,"nodes":[
    {"id":"node-3","info":{"layers":{"start":1,"end":10},"stats":{}}}
  ]}
]`

const modelsBody = `[
  {"id":"llama32-1b","layers":16,"memory":3},
  {"id":"phi3","layers":32,"memory":4},
  {"id":"llama32-3b","layers":28,"memory":8}
]`

func newRegistry(t *testing.T, broken bool) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		if broken {
			http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
			return
		}
		io.WriteString(w, healthBody)
	})
	r.Get("/api/models", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, modelsBody)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	c := NewClient(newRegistry(t, false).URL, nil, nil)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Len(t, health, 2)

	llama := health[0]
	assert.Equal(t, 16, llama.TotalLayers)
	assert.Equal(t, layers.Range{Start: 1, End: 8}, llama.Nodes[0].Info.Layers)
	assert.Equal(t, uint64(1200), llama.Nodes[0].Info.Stats.TokenOutSum)
	assert.InDelta(t, 4.5, llama.Nodes[0].Info.Stats.TokenOutTps, 0.001)
	assert.True(t, llama.Complete())
	assert.False(t, health[1].Complete())
	assert.Equal(t, []layers.Range{{Start: 11, End: 32}}, health[1].Gaps())
}

func TestHealth_StatusError(t *testing.T) {
	c := NewClient(newRegistry(t, true).URL, nil, nil)

	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Connection to vLLM registry server failed: [502 Bad Gateway]", err.Error())
}

func TestViews_JoinsMissingHealth(t *testing.T) {
	c := NewClient(newRegistry(t, false).URL, nil, nil)

	views, err := c.Views(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "llama32-1b", views[0].Model)
	assert.True(t, views[0].Covered)
	assert.False(t, views[1].Covered)

	missing := views[2]
	assert.Equal(t, "llama32-3b", missing.Model)
	assert.Equal(t, 28, missing.TotalLayers)
	assert.NotNil(t, missing.Nodes)
	assert.Empty(t, missing.Nodes)
	assert.False(t, missing.Covered)
}

func TestCatalog(t *testing.T) {
	specs := Catalog([]SupportedModel{{ID: "phi3", Layers: 32, Memory: 4}})
	assert.Equal(t, []layers.ModelSpec{{ID: "phi3", Layers: 32, MemoryGB: 4}}, specs)
}
