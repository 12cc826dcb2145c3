// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wavefy/dllm-tui/internal/openai"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer collects chunks written by the streaming goroutine until
// the update loop drains them on the next frame tick. At most one frame per
// tick is rendered however fast chunks arrive.
type StreamingBuffer struct {
	mu     sync.Mutex
	buffer strings.Builder
	chunks int
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{}
}

// Write appends a chunk. Safe to call from any goroutine.
func (sb *StreamingBuffer) Write(s string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(s)
	sb.chunks++
}

// Flush returns and clears what accumulated since the last flush.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.buffer.Len() == 0 {
		return "", false
	}
	s := sb.buffer.String()
	sb.buffer.Reset()
	return s, true
}

// Chunks is the number of chunks written so far.
func (sb *StreamingBuffer) Chunks() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.chunks
}

// =============================================================================
// CANCELLATION
// =============================================================================

// cancelManager holds the cancel func of the running stream. It is shared by
// pointer so model copies made by the update loop see the same func.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel stops the running stream. Safe to call with none running.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// =============================================================================
// MESSAGES AND COMMANDS
// =============================================================================

// frameInterval caps transcript redraws while streaming.
const frameInterval = 33 * time.Millisecond

// StreamTickMsg drains the streaming buffer.
type StreamTickMsg struct {
	Time time.Time
}

// StreamDoneMsg ends a stream. Seq identifies the stream so results of a
// stream abandoned by ctrl+n are ignored.
type StreamDoneMsg struct {
	Seq   int
	Stats *openai.StreamStats
	Err   error
}

func streamTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// startStream runs ChatStream in a goroutine feeding buf and returns the
// command that waits for it to finish.
func startStream(ctx context.Context, s Streamer, req openai.ChatRequest, buf *StreamingBuffer, seq int) tea.Cmd {
	done := make(chan StreamDoneMsg, 1)
	go func() {
		stats, err := s.ChatStream(ctx, req, func(c openai.StreamChunk) {
			buf.Write(c.Content)
		})
		done <- StreamDoneMsg{Seq: seq, Stats: stats, Err: err}
	}()
	return func() tea.Msg { return <-done }
}
