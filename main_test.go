// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/ui/chat"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type fixture struct {
	statusCalls atomic.Int32
	status      *control.P2PStatus
	statusErr   error
}

func newTestModel(t *testing.T) (*Model, *fixture) {
	t.Helper()
	fx := &fixture{}
	store, err := storage.NewChatStore(t.TempDir())
	require.NoError(t, err)

	m := NewModel(styles.NewTheme("dark"), Deps{
		Status: func(context.Context) (*control.P2PStatus, error) {
			fx.statusCalls.Add(1)
			return fx.status, fx.statusErr
		},
		Health: func(context.Context) ([]registry.ModelView, error) { return nil, nil },
		Chat:   chat.Deps{Store: store, Options: storage.ChatOptions{SelectedModel: "llama32-1b"}},
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, fx
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTabs(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, TabChat, m.ActiveTab())

	// The chat input keeps digits and q.
	_, cmd := m.Update(keyPress("3"))
	assert.Equal(t, TabChat, m.ActiveTab())
	_, cmd = m.Update(keyPress("q"))
	assert.False(t, isQuit(cmd))

	m.Update(keyPress("tab"))
	assert.Equal(t, TabDashboard, m.ActiveTab())

	m.Update(keyPress("3"))
	assert.Equal(t, TabHealth, m.ActiveTab())

	m.Update(keyPress("tab"))
	assert.Equal(t, TabChat, m.ActiveTab())
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(keyPress("ctrl+c"))
	assert.True(t, isQuit(cmd))

	m.header.Select(TabHealth)
	_, cmd = m.Update(keyPress("q"))
	assert.True(t, isQuit(cmd))
}

func TestStatus_UpdatesTabs(t *testing.T) {
	m, _ := newTestModel(t)
	st := &control.P2PStatus{Models: []control.ModelStatus{{
		Status: control.StatusReady, Model: "phi3", FromLayer: 0, ToLayer: 32,
		Wallet: control.WalletInfo{Address: "0x1234567890abcdef"},
	}}}

	m.Update(statusMsg{status: st, at: time.Now()})
	assert.Equal(t, "phi3", m.chat.Options().SelectedModel)
	assert.Equal(t, "0x1234567890abcdef", m.header.Wallet)

	view := m.View()
	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "phi3")

	m.header.Select(TabDashboard)
	assert.Contains(t, m.View(), "Active Models")
}

func TestStatus_Unreachable(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(statusMsg{err: errors.New("connection refused"), at: time.Now()})
	assert.Contains(t, m.View(), "Node unreachable")

	m.Update(statusMsg{status: &control.P2PStatus{}, at: time.Now()})
	assert.NotContains(t, m.View(), "Node unreachable")
}

func TestRefresh_PollsStatus(t *testing.T) {
	m, fx := newTestModel(t)
	fx.status = &control.P2PStatus{}

	_, cmd := m.Update(components.RefreshMsg{Source: components.SourceStatus})
	msgs := collect(cmd)
	assert.Equal(t, int32(1), fx.statusCalls.Load())

	var got statusMsg
	for _, msg := range msgs {
		if s, ok := msg.(statusMsg); ok {
			got = s
		}
	}
	assert.False(t, got.next)
	assert.Same(t, fx.status, got.status)
}

func TestPollStatus_DeadlineStartsWhenCmdRuns(t *testing.T) {
	m, _ := newTestModel(t)
	m.deps.Polling.RequestTimeout.Duration = 20 * time.Millisecond
	var seen error
	called := false
	m.deps.Status = func(ctx context.Context) (*control.P2PStatus, error) {
		called = true
		seen = ctx.Err()
		return &control.P2PStatus{}, nil
	}

	cmd := m.pollStatus(false)
	require.NotNil(t, cmd)
	time.Sleep(60 * time.Millisecond)
	cmd()
	assert.True(t, called)
	assert.NoError(t, seen)
}

func TestToasts(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(components.ToastMsg{Kind: components.ToastSuccess, Message: "Stopped phi3"})
	assert.Contains(t, m.View(), "Stopped phi3")
}

func TestHealth_ReachesTab(t *testing.T) {
	m, _ := newTestModel(t)
	views := registry.Join([]registry.SupportedModel{{ID: "phi3", Layers: 32, Memory: 4}}, nil)

	m.Update(healthMsg{views: views, at: time.Now()})
	m.header.Select(TabHealth)
	view := m.View()
	assert.Contains(t, view, "Supported Models")
	assert.Contains(t, view, "No active nodes for this model")
}
