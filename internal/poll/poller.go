// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wavefy/dllm-tui/internal/logging"
)

// Result is one completed fetch.
type Result[T any] struct {
	Source   string
	Value    T
	Err      error
	At       time.Time
	Duration time.Duration
}

// Observer is told about every fetch, e.g. to export metrics.
type Observer interface {
	ObservePoll(source string, d time.Duration, err error)
}

// Poller fetches on a fixed interval until its context ends.
//
// Trigger asks for an immediate fetch (after start, stop or a deposit). A
// limiter keeps triggered fetches at least a quarter interval apart so a
// burst of user actions cannot hammer the server.
type Poller[T any] struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Fetch    func(ctx context.Context) (T, error)
	OnResult func(Result[T])
	Observer Observer
	Logger   logrus.FieldLogger

	trigger chan struct{}
	limiter *rate.Limiter
}

// New builds a poller. Timeout defaults to the interval.
func New[T any](name string, interval time.Duration, fetch func(context.Context) (T, error)) *Poller[T] {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller[T]{
		Name:     name,
		Interval: interval,
		Timeout:  interval,
		Fetch:    fetch,
		trigger:  make(chan struct{}, 1),
		limiter:  rate.NewLimiter(rate.Every(interval/4), 1),
	}
}

// Trigger requests a fetch as soon as the limiter allows. Extra triggers
// while one is pending are dropped.
func (p *Poller[T]) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Once performs a single fetch and reports it.
func (p *Poller[T]) Once(ctx context.Context) Result[T] {
	fctx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := p.Fetch(fctx)
	res := Result[T]{Source: p.Name, Value: v, Err: err, At: time.Now(), Duration: time.Since(start)}

	if p.Observer != nil {
		p.Observer.ObservePoll(p.Name, res.Duration, err)
	}
	if p.OnResult != nil {
		p.OnResult(res)
	}
	return res
}

// Run fetches immediately, then every Interval and on Trigger, until ctx is
// done. Transitions between failing and healthy are logged at Info.
func (p *Poller[T]) Run(ctx context.Context) error {
	log := logging.OrDiscard(p.Logger).WithField("source", p.Name)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	failing := false
	fetch := func() {
		res := p.Once(ctx)
		switch {
		case res.Err != nil && !failing && !errors.Is(res.Err, context.Canceled):
			failing = true
			log.WithError(res.Err).Info("poll failing")
		case res.Err == nil && failing:
			failing = false
			log.Info("poll recovered")
		}
	}

	fetch()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fetch()
		case <-p.trigger:
			if err := p.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			fetch()
			ticker.Reset(p.Interval)
		}
	}
}
