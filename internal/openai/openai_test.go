// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r *ChunkReader) []string {
	t.Helper()
	var out []string
	for {
		s, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, s)
	}
}

// =============================================================================
// FRAMING TESTS
// =============================================================================

func TestDetectFraming(t *testing.T) {
	assert.Equal(t, FramingSSE, DetectFraming("text/event-stream; charset=utf-8", nil))
	assert.Equal(t, FramingJSON, DetectFraming("application/json", nil))
	assert.Equal(t, FramingText, DetectFraming("text/plain", []byte(`{"choices"`)))
	assert.Equal(t, FramingSSE, DetectFraming("", []byte("\ndata: {}")))
	assert.Equal(t, FramingJSON, DetectFraming("", []byte(`{"choices":[`)))
	assert.Equal(t, FramingJSON, DetectFraming("", []byte(` {`)))
	assert.Equal(t, FramingText, DetectFraming("", []byte("Hello")))
}

// nextWithin runs r.Next and fails when it has not returned after d.
func nextWithin(t *testing.T, r func() (string, error), d time.Duration) string {
	t.Helper()
	type result struct {
		s   string
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := r()
		done <- result{s, err}
	}()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		return res.s
	case <-time.After(d):
		t.Fatalf("no chunk after %s", d)
		return ""
	}
}

func TestChunkReader_FirstChunkDoesNotWaitForMore(t *testing.T) {
	for _, ct := range []string{"text/plain; charset=utf-8", ""} {
		t.Run("content-type="+ct, func(t *testing.T) {
			pr, pw := io.Pipe()
			t.Cleanup(func() { pw.Close() })
			go pw.Write([]byte("Hi"))

			ready := make(chan *ChunkReader, 1)
			go func() { ready <- NewChunkReader(pr, ct) }()
			var r *ChunkReader
			select {
			case r = <-ready:
			case <-time.After(2 * time.Second):
				t.Fatal("framing detection waited for more than the first write")
			}
			assert.Equal(t, FramingText, r.Framing())
			assert.Equal(t, "Hi", nextWithin(t, r.Next, 2*time.Second))
		})
	}
}

func TestChunkReader_SniffsSplitSSEMarker(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("da"))
		pw.Write([]byte("ta: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
		pw.Close()
	}()
	r := NewChunkReader(pr, "")
	assert.Equal(t, FramingSSE, r.Framing())
	assert.Equal(t, []string{"x"}, collect(t, r))
}

func TestChunkReader_JSON(t *testing.T) {
	body := `{"choices":[{"delta":{"content":"Hel"},"index":0}]}{"choices":[{"delta":{"content":"lo"},"index":0}]}{"choices":[{"delta":{},"finish_reason":"stop"}]}`
	r := NewChunkReader(strings.NewReader(body), "")
	assert.Equal(t, FramingJSON, r.Framing())
	assert.Equal(t, []string{"Hel", "lo"}, collect(t, r))
}

func TestChunkReader_SSE(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		": keep-alive\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\r\n\r\n" +
		"data: [DONE]\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n"
	r := NewChunkReader(strings.NewReader(body), "text/event-stream")
	assert.Equal(t, []string{"a", "b"}, collect(t, r))
}

func TestChunkReader_SSENoTrailingNewline(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}"
	r := NewChunkReader(strings.NewReader(body), "text/event-stream")
	assert.Equal(t, []string{"x"}, collect(t, r))
}

// splitReader returns one byte per Read to split multibyte runes.
type splitReader struct{ data []byte }

func (s *splitReader) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	p[0] = s.data[0]
	s.data = s.data[1:]
	return 1, nil
}

func TestChunkReader_TextKeepsRunesWhole(t *testing.T) {
	r := &ChunkReader{framing: FramingText}
	r.br = newBufioReader(&splitReader{data: []byte("héllo 世界")})
	pieces := collect(t, r)
	for _, p := range pieces {
		assert.True(t, strings.ToValidUTF8(p, "?") == p, "piece %q split a rune", p)
	}
	assert.Equal(t, "héllo 世界", strings.Join(pieces, ""))
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func newChatServer(t *testing.T, contentType, body string, got *ChatRequest) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/v1/chat/completions", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(got))
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if body == "" {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, body)
	})
	r.Get("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"object":"list","data":[{"id":"llama32-1b","object":"model"}]}`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatStream_PlainText(t *testing.T) {
	var got ChatRequest
	srv := newChatServer(t, "text/plain; charset=utf-8", "The answer is 42.", &got)
	c := NewClient(srv.URL, nil)

	var pieces []string
	stats, err := c.ChatStream(context.Background(), ChatRequest{
		Model:       "llama32-1b",
		Messages:    BuildMessages("be brief", []Message{{Role: RoleUser, Content: "q"}}),
		Temperature: 0.9,
	}, func(ch StreamChunk) { pieces = append(pieces, ch.Content) })
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", stats.Content)
	assert.Equal(t, stats.Content, strings.Join(pieces, ""))
	assert.True(t, got.Stream)
	assert.True(t, got.PlainText)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.InDelta(t, 0.9, got.Temperature, 0.0001)
}

func TestChatStream_JSONDeltas(t *testing.T) {
	var got ChatRequest
	body := `{"choices":[{"delta":{"content":"4"}}]}{"choices":[{"delta":{"content":"2"}}]}`
	srv := newChatServer(t, "", body, &got)

	stats, err := NewClient(srv.URL, nil).ChatStream(context.Background(), ChatRequest{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "q"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", stats.Content)
	assert.Equal(t, 2, stats.Chunks)
}

func TestChatStream_ServerError(t *testing.T) {
	var got ChatRequest
	srv := newChatServer(t, "", "", &got)

	_, err := NewClient(srv.URL, nil).ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "q"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
	assert.Contains(t, err.Error(), "503")
}

func TestChatStream_NoMessages(t *testing.T) {
	_, err := NewClient("http://unused", nil).ChatStream(context.Background(), ChatRequest{}, nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestListModels(t *testing.T) {
	var got ChatRequest
	srv := newChatServer(t, "", "x", &got)
	models, err := NewClient(srv.URL, nil).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama32-1b", models[0].ID)
}

func TestStreamError(t *testing.T) {
	err := &StreamError{Partial: "abc", Err: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "3 chars")
}

func TestBuildMessages_NoSystemPrompt(t *testing.T) {
	msgs := BuildMessages("", []Message{{Role: RoleUser, Content: "hi"}})
	assert.Len(t, msgs, 1)
}
