// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/registry"
)

func TestObservePoll(t *testing.T) {
	rec := NewRecorder()
	rec.ObservePoll("status", 30*time.Millisecond, nil)
	rec.ObservePoll("status", 10*time.Millisecond, errors.New("down"))
	rec.ObservePoll("status", 10*time.Millisecond, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(rec.pollRequests.WithLabelValues("status", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.pollRequests.WithLabelValues("status", "error")))
}

func TestObserveStatus(t *testing.T) {
	rec := NewRecorder()
	bal := uint64(5000)
	rec.ObserveStatus(&control.P2PStatus{Models: []control.ModelStatus{
		{Status: control.StatusReady, Model: "phi3", Sessions: 2, Peers: control.PeerCount(3), Wallet: control.WalletInfo{Balance: &bal, Earning: 10}},
		{Status: control.StatusStopped, Model: "llama32-1b"},
	}})

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.modelsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(rec.modelSessions.WithLabelValues("phi3")))
	assert.Equal(t, float64(3), testutil.ToFloat64(rec.modelPeers.WithLabelValues("phi3")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.modelUp.WithLabelValues("phi3")))
	assert.Equal(t, float64(5000), testutil.ToFloat64(rec.walletBalance.WithLabelValues("phi3")))

	rec.ObserveStatus(nil)
	assert.Equal(t, float64(0), testutil.ToFloat64(rec.modelsActive))
	assert.Equal(t, 0, testutil.CollectAndCount(rec.modelSessions))
}

func TestObserveHealth(t *testing.T) {
	rec := NewRecorder()
	views := registry.Join(
		[]registry.SupportedModel{{ID: "phi3", Layers: 4, Memory: 4}},
		[]registry.SwarmHealth{{Model: "phi3", TotalLayers: 4, Nodes: []registry.Node{
			{ID: "n1", Info: registry.NodeInfo{Layers: layers.Range{Start: 1, End: 4}, Stats: registry.NodeStats{TokenOutTps: 2.5}}},
		}}},
	)
	rec.ObserveHealth(views)

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.swarmComplete.WithLabelValues("phi3")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.swarmNodes.WithLabelValues("phi3")))
	assert.Equal(t, 2.5, testutil.ToFloat64(rec.nodeTokenTPS.WithLabelValues("phi3", "n1")))
}

func TestRouter(t *testing.T) {
	rec := NewRecorder()
	rec.ObservePoll("health", time.Millisecond, nil)

	healthy := true
	srv := httptest.NewServer(NewRouter(rec, func() (bool, string) {
		if healthy {
			return true, ""
		}
		return false, "control plane unreachable"
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `dllm_poll_requests_total{result="ok",source="health"} 1`))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy = false
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "control plane unreachable")
}

func TestNewServer(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRecorder(), nil)
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
