// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

type fakeStreamer struct {
	chunks  []string
	err     error
	block   bool
	started chan struct{}
	got     openai.ChatRequest
}

func (f *fakeStreamer) ChatStream(ctx context.Context, req openai.ChatRequest, cb openai.StreamCallback) (*openai.StreamStats, error) {
	f.got = req
	content := ""
	for _, c := range f.chunks {
		cb(openai.StreamChunk{Content: c})
		content += c
	}
	if f.block {
		close(f.started)
		<-ctx.Done()
		return nil, &openai.StreamError{Partial: content, Err: ctx.Err()}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &openai.StreamStats{Content: content, Chunks: len(f.chunks)}, nil
}

// collect runs cmd, expanding batches, and returns every message produced.
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

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func newTestModel(t *testing.T, s Streamer) (Model, *storage.ChatStore) {
	t.Helper()
	store, err := storage.NewChatStore(t.TempDir())
	require.NoError(t, err)
	m := New(styles.NewTheme("dark"), Deps{
		Streamer: s,
		Store:    store,
		Options:  storage.ChatOptions{SelectedModel: "llama32-1b", SystemPrompt: "be brief", Temperature: 0.5},
	})
	m.SetSize(80, 24)
	return m, store
}

func send(m Model, prompt string) (Model, tea.Cmd) {
	m.input.SetValue(prompt)
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestSubmit_StreamsAndSaves(t *testing.T) {
	fake := &fakeStreamer{chunks: []string{"Hi ", "there"}}
	m, store := newTestModel(t, fake)

	m, cmd := send(m, "hello")
	assert.Equal(t, StateStreaming, m.State())

	done, ok := find[StreamDoneMsg](collect(cmd))
	require.True(t, ok)

	m, cmd = m.Update(done)
	assert.Equal(t, StateReady, m.State())
	require.Len(t, m.Chat().Messages, 2)
	assert.Equal(t, "Hi there", m.Chat().Messages[1].Content)
	assert.Equal(t, 2, m.Chat().Messages[1].Chunks)

	require.Len(t, fake.got.Messages, 2)
	assert.Equal(t, openai.RoleSystem, fake.got.Messages[0].Role)
	assert.Equal(t, "llama32-1b", fake.got.Model)
	assert.InDelta(t, 0.5, fake.got.Temperature, 0.001)

	saved, ok := find[chatSavedMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, saved.err)

	items, err := store.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, m.Chat().ID, items[0].ID)
}

func TestSubmit_ErrorToastsAndSkipsSave(t *testing.T) {
	m, store := newTestModel(t, &fakeStreamer{err: errors.New("boom")})

	m, cmd := send(m, "hello")
	done, ok := find[StreamDoneMsg](collect(cmd))
	require.True(t, ok)

	m, cmd = m.Update(done)
	toast, ok := find[components.ToastMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, "Something went wrong: boom", toast.Message)
	assert.Equal(t, components.ToastError, toast.Kind)

	require.Len(t, m.Chat().Messages, 1)
	items, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCancel_KeepsPartialReply(t *testing.T) {
	fake := &fakeStreamer{chunks: []string{"par"}, block: true, started: make(chan struct{})}
	m, _ := newTestModel(t, fake)

	m, cmd := send(m, "hello")
	<-fake.started
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	done, ok := find[StreamDoneMsg](collect(cmd))
	require.True(t, ok)
	m, cmd = m.Update(done)

	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, "par", m.Chat().Messages[1].Content)
	_, saved := find[chatSavedMsg](collect(cmd))
	assert.True(t, saved)
}

func TestNewChat_IgnoresAbandonedStream(t *testing.T) {
	fake := &fakeStreamer{chunks: []string{"late"}}
	m, _ := newTestModel(t, fake)

	m, cmd := send(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Nil(t, m.Chat())

	done, ok := find[StreamDoneMsg](collect(cmd))
	require.True(t, ok)
	m, cmd = m.Update(done)
	assert.Nil(t, cmd)
	assert.Nil(t, m.Chat())
	assert.Equal(t, StateReady, m.State())
}

func TestEmptyPromptIgnored(t *testing.T) {
	m, _ := newTestModel(t, &fakeStreamer{})
	m, cmd := send(m, "   ")
	assert.Nil(t, cmd)
	assert.Nil(t, m.Chat())
}

func TestStatusOverlay(t *testing.T) {
	m, _ := newTestModel(t, &fakeStreamer{})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	view := m.View()
	assert.Contains(t, view, "Current Model Status")
	assert.Contains(t, view, "No active models.")

	m.SetStatus(&control.P2PStatus{Models: []control.ModelStatus{{Status: "ready", Model: "phi3", FromLayer: 1, ToLayer: 4}}})
	assert.Contains(t, m.View(), "phi3")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, m.View(), "Current Model Status")
}

func TestSetStatus_FollowsActiveModel(t *testing.T) {
	var saved storage.ChatOptions
	m := New(styles.NewTheme("dark"), Deps{
		Streamer:    &fakeStreamer{},
		Options:     storage.ChatOptions{SelectedModel: "local-model", Temperature: 0.9},
		SaveOptions: func(o storage.ChatOptions) error { saved = o; return nil },
	})

	stopped := &control.P2PStatus{Models: []control.ModelStatus{{Status: "stopped", Model: "phi3"}}}
	assert.Nil(t, m.SetStatus(stopped))
	assert.Equal(t, "local-model", m.Options().SelectedModel)

	active := &control.P2PStatus{Models: []control.ModelStatus{{Status: "incomplete", Model: "llama32-3b"}}}
	cmd := m.SetStatus(active)
	require.NotNil(t, cmd)
	collect(cmd)
	assert.Equal(t, "llama32-3b", m.Options().SelectedModel)
	assert.Equal(t, "llama32-3b", saved.SelectedModel)

	assert.Nil(t, m.SetStatus(active))
}

func TestChatList_OpenAndDelete(t *testing.T) {
	m, store := newTestModel(t, &fakeStreamer{})
	chat := &storage.Chat{Model: "phi3", Messages: []storage.ChatMessage{
		storage.NewMessage(openai.RoleUser, "what is a layer"),
		storage.NewMessage(openai.RoleAssistant, "a slice of the model"),
	}}
	require.NoError(t, store.Save(chat))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	list, ok := find[chatListMsg](collect(cmd))
	require.True(t, ok)
	m, _ = m.Update(list)
	assert.Contains(t, m.View(), "what is a layer")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	loaded, ok := find[chatLoadedMsg](collect(cmd))
	require.True(t, ok)
	m, _ = m.Update(loaded)
	require.NotNil(t, m.Chat())
	assert.Equal(t, chat.ID, m.Chat().ID)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	list, _ = find[chatListMsg](collect(cmd))
	m, _ = m.Update(list)
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	list, ok = find[chatListMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, list.err)
	assert.Empty(t, list.items)
	assert.Nil(t, m.Chat())
}

func TestStreamingBuffer(t *testing.T) {
	b := NewStreamingBuffer()
	_, ok := b.Flush()
	assert.False(t, ok)

	b.Write("a")
	b.Write("b")
	s, ok := b.Flush()
	assert.True(t, ok)
	assert.Equal(t, "ab", s)
	assert.Equal(t, 2, b.Chunks())
}
