// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_KeepsLastGoodValue(t *testing.T) {
	var s Snapshot[int]
	assert.True(t, s.Loading())

	now := time.Now()
	s.Apply(1, nil, now)
	assert.Equal(t, 1, s.Value)
	assert.True(t, s.Loaded)
	assert.False(t, s.Stale())

	boom := errors.New("boom")
	s.Apply(0, boom, now.Add(time.Second))
	assert.Equal(t, 1, s.Value, "failure must not clear the value")
	assert.Equal(t, boom, s.Err)
	assert.True(t, s.Stale())
	assert.Equal(t, now, s.UpdatedAt)

	s.Apply(2, nil, now.Add(2*time.Second))
	assert.Equal(t, 2, s.Value)
	assert.NoError(t, s.Err)
}

func TestSnapshot_ErrorBeforeFirstValue(t *testing.T) {
	var s Snapshot[string]
	s.Apply("", errors.New("down"), time.Now())
	assert.False(t, s.Loading())
	assert.False(t, s.Stale())
	assert.False(t, s.Loaded)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) ObservePoll(source string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := "ok"
	if err != nil {
		state = "error"
	}
	r.calls = append(r.calls, source+":"+state)
}

func TestPoller_Once(t *testing.T) {
	rec := &recorder{}
	p := New("status", time.Second, func(context.Context) (int, error) { return 7, nil })
	p.Observer = rec

	var got Result[int]
	p.OnResult = func(r Result[int]) { got = r }

	res := p.Once(context.Background())
	assert.Equal(t, 7, res.Value)
	assert.Equal(t, "status", got.Source)
	assert.Equal(t, []string{"status:ok"}, rec.calls)
}

func TestPoller_OnceAppliesTimeout(t *testing.T) {
	p := New("slow", time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	p.Timeout = 20 * time.Millisecond

	res := p.Once(context.Background())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestPoller_RunTicksAndStops(t *testing.T) {
	var n int32
	p := New("health", 20*time.Millisecond, func(context.Context) (int32, error) {
		return atomic.AddInt32(&n, 1), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(3))
}

func TestPoller_Trigger(t *testing.T) {
	fetched := make(chan struct{}, 10)
	p := New("models", time.Hour, func(context.Context) (int, error) {
		fetched <- struct{}{}
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	<-fetched // initial fetch
	p.Trigger()
	p.Trigger()

	select {
	case <-fetched:
	case <-time.After(time.Second):
		require.Fail(t, "trigger did not cause a fetch")
	}
}
