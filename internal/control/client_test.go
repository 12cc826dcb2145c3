// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/httpapi"
)

const modernStatus = `{
  "models": [{
    "status": "ready",
    "model": "llama32-1b",
    "from_layer": 0,
    "to_layer": 16,
    "peers": ["peer-a", "peer-b"],
    "sessions": 3,
    "wallet": {
      "spending": 120,
      "earning": 450,
      "balance": 250000000,
      "address": "0xabc"
    }
  }]
}`

// fakeNode records the last request body per route.
type fakeNode struct {
	status    string
	startBody map[string]any
	stopBody  map[string]any
	stopped   []string
	query     map[string]string

	// requireModel rejects stop bodies without a model, like the
	// multi-model server's P2pStop extractor.
	requireModel bool
}

func (f *fakeNode) server(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/v1/p2p", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, f.status)
		})
		r.Post("/start", func(w http.ResponseWriter, req *http.Request) {
			f.startBody = nil
			require.NoError(t, json.NewDecoder(req.Body).Decode(&f.startBody))
			if f.status != "{}" {
				http.Error(w, "Model already started", http.StatusBadRequest)
				return
			}
			io.WriteString(w, modernStatus)
		})
		r.Post("/stop", func(w http.ResponseWriter, req *http.Request) {
			f.stopBody = nil
			require.NoError(t, json.NewDecoder(req.Body).Decode(&f.stopBody))
			model, _ := f.stopBody["model"].(string)
			if f.requireModel && model == "" {
				http.Error(w, "Json deserialize error: missing field `model`", http.StatusBadRequest)
				return
			}
			f.stopped = append(f.stopped, model)
			io.WriteString(w, `{"models":[]}`)
		})
		r.Get("/suggest_layers", func(w http.ResponseWriter, req *http.Request) {
			f.query = map[string]string{
				"model":      req.URL.Query().Get("model"),
				"layers":     req.URL.Query().Get("layers"),
				"max_layers": req.URL.Query().Get("max_layers"),
			}
			io.WriteString(w, `{"distribution":[16],"from_layer":0,"to_layer":16}`)
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus_Modern(t *testing.T) {
	node := &fakeNode{status: modernStatus}
	c := NewClient(node.server(t).URL)

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Models, 1)
	assert.False(t, st.Legacy)

	m := st.Models[0]
	assert.Equal(t, StatusReady, m.Status)
	assert.Equal(t, "llama32-1b", m.Model)
	assert.Equal(t, 2, m.Peers.Len())
	assert.Equal(t, 3, m.Sessions)
	require.NotNil(t, m.Wallet.Balance)
	assert.Equal(t, uint64(250000000), *m.Wallet.Balance)
	assert.Nil(t, m.Wallet.TopupBalance)
	assert.True(t, m.Active())
	assert.Equal(t, "0xabc", st.WalletAddress())
	assert.True(t, st.OwnsAddress("0xABC"))
	assert.True(t, st.HasModel("llama32-1b"))
}

func TestStatus_Legacy(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLen  int
		wantPeer int
	}{
		{
			name:     "running",
			body:     `{"model":{"model":"phi3","from_layer":0,"to_layer":8},"spent":5,"earned":9,"balance":100,"peers":4,"sessions":1,"status":"ready"}`,
			wantLen:  1,
			wantPeer: 4,
		},
		{
			name:    "stopped",
			body:    `{"model":null,"spent":0,"earned":0,"peers":0,"sessions":0,"status":"stopped"}`,
			wantLen: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &fakeNode{status: tt.body}
			st, err := NewClient(node.server(t).URL).Status(context.Background())
			require.NoError(t, err)
			assert.True(t, st.Legacy)
			require.Len(t, st.Models, tt.wantLen)
			if tt.wantLen == 1 {
				m := st.Models[0]
				assert.Equal(t, "phi3", m.Model)
				assert.Equal(t, 8, m.ToLayer)
				assert.Equal(t, tt.wantPeer, m.Peers.Len())
				assert.Equal(t, uint64(5), m.Wallet.Spending)
				assert.Equal(t, uint64(9), m.Wallet.Earning)
				require.NotNil(t, m.Wallet.Balance)
				assert.Equal(t, uint64(100), *m.Wallet.Balance)
			}
		})
	}
}

func TestStart(t *testing.T) {
	node := &fakeNode{status: "{}"}
	c := NewClient(node.server(t).URL)

	st, err := c.Start(context.Background(), StartRequest{Model: "llama32-1b", FromLayer: 0, ToLayer: 16, PrivateKey: "0x01"})
	require.NoError(t, err)
	require.Len(t, st.Models, 1)
	assert.Equal(t, "llama32-1b", node.startBody["model"])
	assert.Equal(t, float64(16), node.startBody["to_layer"])
	assert.Equal(t, "0x01", node.startBody["private_key"])
}

func TestStart_AlreadyStarted(t *testing.T) {
	node := &fakeNode{status: modernStatus}
	c := NewClient(node.server(t).URL)

	_, err := c.Start(context.Background(), StartRequest{Model: "llama32-1b", ToLayer: 16})
	require.Error(t, err)
	assert.Equal(t, "Connection to vLLM control server failed: Model already started [400 Bad Request]", err.Error())
	assert.Equal(t, http.StatusBadRequest, httpapi.StatusCode(err))
}

func TestStart_RequiresModel(t *testing.T) {
	_, err := NewClient("http://unused").Start(context.Background(), StartRequest{})
	require.Error(t, err)
}

func TestStop(t *testing.T) {
	node := &fakeNode{status: modernStatus}
	c := NewClient(node.server(t).URL)

	st, err := c.Stop(context.Background(), "llama32-1b")
	require.NoError(t, err)
	assert.Empty(t, st.Models)
	assert.Equal(t, "llama32-1b", node.stopBody["model"])

	_, err = c.Stop(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, node.stopBody)
}

func TestStopActive(t *testing.T) {
	two := `{"models":[
	  {"status":"ready","model":"llama32-1b","from_layer":0,"to_layer":16},
	  {"status":"stopped","model":"phi3","from_layer":0,"to_layer":0},
	  {"status":"incomplete","model":"llama32-3b","from_layer":0,"to_layer":8}]}`
	node := &fakeNode{status: two, requireModel: true}

	st, names, err := NewClient(node.server(t).URL).StopActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama32-1b", "llama32-3b"}, names)
	assert.Equal(t, names, node.stopped)
	assert.Empty(t, st.Models)
}

func TestStopActive_NothingRunning(t *testing.T) {
	node := &fakeNode{status: `{"models":[]}`, requireModel: true}

	st, names, err := NewClient(node.server(t).URL).StopActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, st)
	assert.Nil(t, node.stopBody, "no stop request expected")
}

func TestStopActive_Legacy(t *testing.T) {
	node := &fakeNode{status: `{"model":{"model":"phi3","from_layer":0,"to_layer":8},"peers":1,"sessions":0,"status":"ready"}`}

	_, names, err := NewClient(node.server(t).URL).StopActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"phi3"}, names)
	assert.Empty(t, node.stopBody)
}

func TestStop_EmptyBodyRejectedByMultiModelServer(t *testing.T) {
	node := &fakeNode{status: modernStatus, requireModel: true}

	_, err := NewClient(node.server(t).URL).Stop(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpapi.StatusCode(err))
	assert.Contains(t, err.Error(), "missing field `model`")
}

func TestSuggestLayers(t *testing.T) {
	node := &fakeNode{status: modernStatus}
	c := NewClient(node.server(t).URL)

	res, err := c.SuggestLayers(context.Background(), "llama32-1b", 26, 16)
	require.NoError(t, err)
	require.NotNil(t, res.FromLayer)
	assert.Equal(t, 16, *res.ToLayer)
	assert.Equal(t, []int{16}, res.Distribution)
	assert.Equal(t, map[string]string{"model": "llama32-1b", "layers": "26", "max_layers": "16"}, node.query)

	_, err = c.SuggestLayers(context.Background(), "", 1, 1)
	assert.Error(t, err)
}

func TestStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base).Status(context.Background())
	require.Error(t, err)
	assert.True(t, httpapi.IsUnreachable(err))
	assert.Contains(t, err.Error(), ErrorPrefix)
}

func TestDecodeStatus_Invalid(t *testing.T) {
	_, err := decodeStatus([]byte("[1,2]"))
	assert.Error(t, err)
	_, err = decodeStatus([]byte("nope"))
	assert.Error(t, err)

	st, err := decodeStatus(nil)
	require.NoError(t, err)
	assert.Empty(t, st.Models)
}

func TestPeers_JSON(t *testing.T) {
	var p Peers
	require.NoError(t, json.Unmarshal([]byte(`7`), &p))
	assert.Equal(t, 7, p.Len())
	require.NoError(t, json.Unmarshal([]byte(`[]`), &p))
	assert.Equal(t, 0, p.Len())
	assert.NotNil(t, p.IDs)

	out, err := json.Marshal(PeerCount(3))
	require.NoError(t, err)
	assert.Equal(t, "3", string(out))
}
