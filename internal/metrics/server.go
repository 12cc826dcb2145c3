// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthFunc reports whether the watched node is reachable, with a reason
// when it is not.
type HealthFunc func() (ok bool, reason string)

// NewRouter serves /metrics and /healthz.
func NewRouter(rec *Recorder, health HealthFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", rec.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		ok, reason := true, ""
		if health != nil {
			ok, reason = health()
		}
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": ok, "reason": reason})
	})
	return r
}

// NewServer wraps NewRouter in an http.Server listening on addr.
func NewServer(addr string, rec *Recorder, health HealthFunc) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(rec, health),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
