// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exports what the pollers see as Prometheus metrics, for
// `dllm watch` running next to a node.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/registry"
)

const namespace = "dllm"

// Recorder owns a private registry and the collectors fed by the pollers.
type Recorder struct {
	Registry *prometheus.Registry

	pollRequests *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec

	modelsActive  prometheus.Gauge
	modelSessions *prometheus.GaugeVec
	modelPeers    *prometheus.GaugeVec
	modelUp       *prometheus.GaugeVec
	walletBalance *prometheus.GaugeVec
	walletEarning *prometheus.GaugeVec

	swarmComplete *prometheus.GaugeVec
	swarmNodes    *prometheus.GaugeVec
	nodeTokenTPS  *prometheus.GaugeVec
}

// NewRecorder registers every collector plus the Go and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		pollRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "requests_total",
			Help:      "Polls performed, by source and result.",
		}, []string{"source", "result"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "duration_seconds",
			Help:      "Poll latency by source.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"source"}),
		modelsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models_active",
			Help:      "Model slices hosted by this node that are not stopped.",
		}),
		modelSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "sessions",
			Help:      "Open sessions per hosted model.",
		}, []string{"model"}),
		modelPeers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "peers",
			Help:      "Connected peers per hosted model.",
		}, []string{"model"}),
		modelUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "ready",
			Help:      "1 when the hosted model reports ready, 0 otherwise.",
		}, []string{"model"}),
		walletBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_octas",
			Help:      "Wallet balance per hosted model, in octas.",
		}, []string{"model"}),
		walletEarning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "earning_octas",
			Help:      "Earnings reported per hosted model, in octas.",
		}, []string{"model"}),
		swarmComplete: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "swarm",
			Name:      "model_complete",
			Help:      "1 when the swarm covers every layer of the model.",
		}, []string{"model"}),
		swarmNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "swarm",
			Name:      "nodes",
			Help:      "Nodes serving the model.",
		}, []string{"model"}),
		nodeTokenTPS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "swarm",
			Name:      "node_output_tokens_per_second",
			Help:      "Output token rate per node.",
		}, []string{"model", "node"}),
	}

	r.Registry.MustRegister(
		r.pollRequests,
		r.pollDuration,
		r.modelsActive,
		r.modelSessions,
		r.modelPeers,
		r.modelUp,
		r.walletBalance,
		r.walletEarning,
		r.swarmComplete,
		r.swarmNodes,
		r.nodeTokenTPS,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return r
}

// Handler exposes the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// ObservePoll implements poll.Observer.
func (r *Recorder) ObservePoll(source string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.pollRequests.WithLabelValues(source, result).Inc()
	r.pollDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveStatus replaces the per-model gauges with st.
func (r *Recorder) ObserveStatus(st *control.P2PStatus) {
	r.modelSessions.Reset()
	r.modelPeers.Reset()
	r.modelUp.Reset()
	r.walletBalance.Reset()
	r.walletEarning.Reset()
	if st == nil {
		r.modelsActive.Set(0)
		return
	}

	r.modelsActive.Set(float64(len(st.Active())))
	for _, m := range st.Models {
		r.modelSessions.WithLabelValues(m.Model).Set(float64(m.Sessions))
		r.modelPeers.WithLabelValues(m.Model).Set(float64(m.Peers.Len()))
		r.modelUp.WithLabelValues(m.Model).Set(boolGauge(m.Status == control.StatusReady))
		r.walletEarning.WithLabelValues(m.Model).Set(float64(m.Wallet.Earning))
		if m.Wallet.Balance != nil {
			r.walletBalance.WithLabelValues(m.Model).Set(float64(*m.Wallet.Balance))
		}
	}
}

// ObserveHealth replaces the swarm gauges with views.
func (r *Recorder) ObserveHealth(views []registry.ModelView) {
	r.swarmComplete.Reset()
	r.swarmNodes.Reset()
	r.nodeTokenTPS.Reset()
	for _, v := range views {
		r.swarmComplete.WithLabelValues(v.Model).Set(boolGauge(v.Covered))
		r.swarmNodes.WithLabelValues(v.Model).Set(float64(len(v.Nodes)))
		for _, n := range v.Nodes {
			r.nodeTokenTPS.WithLabelValues(v.Model, n.ID).Set(n.Info.Stats.TokenOutTps)
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
