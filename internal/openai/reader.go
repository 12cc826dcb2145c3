// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Framing is how a completion stream is encoded on the wire.
type Framing int

const (
	// FramingText is bare UTF-8 text.
	FramingText Framing = iota
	// FramingJSON is back-to-back JSON delta objects without separators.
	FramingJSON
	// FramingSSE is Server-Sent Events carrying JSON deltas.
	FramingSSE
)

// DetectFraming picks a framing from the Content-Type, falling back to the
// first non-space bytes of the body.
func DetectFraming(contentType string, peek []byte) Framing {
	if f, ok := framingFromHeader(contentType); ok {
		return f
	}
	return sniffFraming(peek)
}

func framingFromHeader(contentType string) (Framing, bool) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "event-stream"):
		return FramingSSE, true
	case strings.Contains(ct, "json"):
		return FramingJSON, true
	case strings.HasPrefix(ct, "text/plain"):
		return FramingText, true
	}
	return FramingText, false
}

func sniffFraming(peek []byte) Framing {
	trimmed := bytes.TrimLeft(peek, " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte("data:")), bytes.HasPrefix(trimmed, []byte("event:")):
		return FramingSSE
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FramingJSON
	default:
		return FramingText
	}
}

// sseMarkers are the line starts that identify an unlabelled SSE body.
var sseMarkers = [][]byte{[]byte("data:"), []byte("event:")}

// peekArrived returns the bytes the body has delivered so far. It
// blocks for the first read only, and for more bytes only while what arrived
// could still be the start of an SSE marker.
func peekArrived(br *bufio.Reader) []byte {
	for {
		if _, err := br.Peek(br.Buffered() + 1); err != nil {
			b, _ := br.Peek(br.Buffered())
			return b
		}
		b, _ := br.Peek(br.Buffered())
		trimmed := bytes.TrimLeft(b, " \t\r\n")
		if len(trimmed) == 0 {
			continue
		}
		partial := false
		for _, m := range sseMarkers {
			if len(trimmed) < len(m) && bytes.HasPrefix(m, trimmed) {
				partial = true
			}
		}
		if !partial {
			return b
		}
	}
}

// ChunkReader yields content pieces from a completion body.
type ChunkReader struct {
	framing Framing
	br      *bufio.Reader
	dec     *json.Decoder
	pending []byte
	done    bool
}

// NewChunkReader wraps body. A decisive contentType sets the framing without
// touching the body; otherwise the first bytes to arrive are sniffed.
func NewChunkReader(body io.Reader, contentType string) *ChunkReader {
	br := newBufioReader(body)
	framing, ok := framingFromHeader(contentType)
	if !ok {
		framing = sniffFraming(peekArrived(br))
	}
	r := &ChunkReader{framing: framing, br: br}
	if r.framing == FramingJSON {
		r.dec = json.NewDecoder(br)
	}
	return r
}

// Framing reports the detected framing.
func (r *ChunkReader) Framing() Framing { return r.framing }

// Next returns the next non-empty piece of content, or io.EOF.
func (r *ChunkReader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	for {
		var (
			s   string
			err error
		)
		switch r.framing {
		case FramingSSE:
			s, err = r.nextSSE()
		case FramingJSON:
			s, err = r.nextJSON()
		default:
			s, err = r.nextText()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
			}
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
}

func (r *ChunkReader) nextJSON() (string, error) {
	var c deltaChunk
	if err := r.dec.Decode(&c); err != nil {
		return "", err
	}
	return c.content(), nil
}

func (r *ChunkReader) nextSSE() (string, error) {
	var (
		data    [][]byte
		readErr error
	)
	for {
		line, err := r.br.ReadBytes('\n')
		readErr = err
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if len(data) > 0 || err != nil {
				break
			}
			continue
		}
		// event:, id:, retry: and comment lines are ignored.
		if bytes.HasPrefix(line, []byte("data:")) {
			data = append(data, bytes.TrimSpace(line[5:]))
		}
		if err != nil {
			break
		}
	}
	if len(data) == 0 {
		return "", readErr
	}

	payload := bytes.Join(data, []byte("\n"))
	if bytes.Equal(payload, []byte("[DONE]")) {
		return "", io.EOF
	}
	var c deltaChunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", err
	}
	return c.content(), nil
}

// nextText returns whatever is buffered, holding back a trailing partial
// UTF-8 sequence until the rest arrives.
func (r *ChunkReader) nextText() (string, error) {
	buf := make([]byte, 1024)
	n, err := r.br.Read(buf)
	r.pending = append(r.pending, buf[:n]...)

	if err != nil {
		if errors.Is(err, io.EOF) && len(r.pending) > 0 {
			out := string(r.pending)
			r.pending = nil
			return out, nil
		}
		return "", err
	}

	cut := len(r.pending)
	for i := 0; i < utf8.UTFMax && i < len(r.pending); i++ {
		start := len(r.pending) - 1 - i
		if utf8.RuneStart(r.pending[start]) {
			if !utf8.FullRune(r.pending[start:]) {
				cut = start
			}
			break
		}
	}
	out := string(r.pending[:cut])
	r.pending = append([]byte(nil), r.pending[cut:]...)
	return out, nil
}

func newBufioReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 4096)
}
