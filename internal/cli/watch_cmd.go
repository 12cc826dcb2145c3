// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch_cmd.go - Headless polling with a Prometheus endpoint.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/logging"
	"github.com/wavefy/dllm-tui/internal/metrics"
	"github.com/wavefy/dllm-tui/internal/poll"
	"github.com/wavefy/dllm-tui/internal/registry"
)

// watchState is the latest poll outcome, read by /healthz.
type watchState struct {
	mu     sync.Mutex
	status poll.Snapshot[*control.P2PStatus]
	swarm  poll.Snapshot[[]registry.ModelView]
}

func (s *watchState) health() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.status.Loading():
		return false, "waiting for first status poll"
	case s.status.Err != nil:
		return false, s.status.Err.Error()
	}
	return true, ""
}

type watchSummary struct {
	Status *control.P2PStatus   `json:"status"`
	Swarm  []registry.ModelView `json:"swarm"`
	Errors map[string]string    `json:"errors,omitempty"`
}

func handleWatch(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	svc, err := env.Services()
	if err != nil {
		return err
	}

	log := env.Log
	if !env.Args.Verbose {
		l, closer, err := logging.Setup(env.Config.Logging.Level, env.Config.Logging.File)
		if err != nil {
			return NewCommandError("watch", "logging", err)
		}
		defer closer.Close()
		log = l
	}

	rec := metrics.NewRecorder()
	state := &watchState{}
	polling := env.Config.Polling

	statusPoller := poll.New("status", polling.StatusInterval.Duration, svc.Control.Status)
	statusPoller.Observer = rec
	statusPoller.Logger = log
	statusPoller.OnResult = func(r poll.Result[*control.P2PStatus]) {
		state.mu.Lock()
		state.status.Apply(r.Value, r.Err, r.At)
		state.mu.Unlock()
		if r.Err == nil {
			rec.ObserveStatus(r.Value)
		}
	}

	swarmPoller := poll.New("health", polling.HealthInterval.Duration, svc.Registry.Views)
	swarmPoller.Observer = rec
	swarmPoller.Logger = log
	swarmPoller.OnResult = func(r poll.Result[[]registry.ModelView]) {
		state.mu.Lock()
		state.swarm.Apply(r.Value, r.Err, r.At)
		state.mu.Unlock()
		if r.Err == nil {
			rec.ObserveHealth(r.Value)
		}
	}

	if flags.BoolFlag("once") {
		st := statusPoller.Once(ctx)
		sw := swarmPoller.Once(ctx)
		summary := watchSummary{Status: st.Value, Swarm: sw.Value, Errors: map[string]string{}}
		for name, e := range map[string]error{"status": st.Err, "health": sw.Err} {
			if e != nil {
				summary.Errors[name] = e.Error()
			}
		}
		return env.emit(CmdWatch, summary, func(w io.Writer) {
			renderWatchSummary(w, svc.Control.BaseURL(), summary, env.Config.IsCloud())
		})
	}

	addr := flags.FlagOrDefault("metrics-addr", env.Config.Metrics.Addr)
	srv := metrics.NewServer(addr, rec, state.health)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return NewCommandError("watch", "listen", err)
	}
	log.WithFields(logrus.Fields{"addr": ln.Addr().String()}).Info("serving metrics")
	if !env.Args.Quiet && !env.Args.JSON {
		fmt.Fprintf(env.Err, "Serving /metrics and /healthz on http://%s (ctrl+c to stop)\n", ln.Addr())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 1)
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			cancel()
		}
	}()
	go func() { defer wg.Done(); statusPoller.Run(ctx) }()
	go func() { defer wg.Done(); swarmPoller.Run(ctx) }()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	srv.Shutdown(shutdownCtx)
	wg.Wait()

	select {
	case err := <-errc:
		return NewCommandError("watch", "serve", err)
	default:
		log.Info("watch stopped")
		return nil
	}
}

func renderWatchSummary(w io.Writer, node string, s watchSummary, cloud bool) {
	if e, ok := s.Errors["status"]; ok {
		fmt.Fprintln(w, ErrorStyle.Render(e))
	} else {
		renderStatus(w, node, s.Status, cloud)
	}
	fmt.Fprintln(w)
	if e, ok := s.Errors["health"]; ok {
		fmt.Fprintln(w, ErrorStyle.Render(e))
		return
	}
	renderSupported(w, s.Swarm)
}
