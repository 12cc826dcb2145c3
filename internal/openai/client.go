// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai is the chat client for the swarm's OpenAI-compatible
// endpoint. Completions are always streamed; the server may frame the stream
// as bare text, concatenated JSON deltas or Server-Sent Events.
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/httpapi"
	"github.com/wavefy/dllm-tui/internal/logging"
)

// DefaultBaseURL is the local node's OpenAI-compatible server.
const DefaultBaseURL = "http://localhost:18888"

// ErrorPrefix starts every chat error message.
const ErrorPrefix = "Chat request failed"

// ErrNoMessages is returned when a request carries no messages.
var ErrNoMessages = errors.New("no messages to send")

// Client streams chat completions. It is safe for concurrent use.
type Client struct {
	req    *httpapi.Requester
	stream *httpapi.Requester
	log    logrus.FieldLogger
}

// NewClient creates a client for baseURL. Streams are bounded only by the
// caller's context.
func NewClient(baseURL string, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	log := logging.OrDiscard(logger).WithField("component", "chat")
	return &Client{
		req:    httpapi.NewRequester(baseURL, ErrorPrefix, nil, log),
		stream: httpapi.NewRequester(baseURL, ErrorPrefix, &http.Client{}, log),
		log:    log,
	}
}

// ListModels returns the models served at /v1/models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out modelList
	if err := c.req.GetJSON(ctx, "/v1/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ChatStream sends req and calls callback for every piece of output. The
// returned stats hold the full text. Cancelling ctx stops the stream and
// returns a *StreamError carrying what arrived so far.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback StreamCallback) (*StreamStats, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}
	req.Stream = true
	req.PlainText = true

	start := time.Now()
	resp, err := c.stream.Open(ctx, http.MethodPost, "/v1/chat/completions", nil, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader := NewChunkReader(resp.Body, resp.Header.Get("Content-Type"))
	stats := &StreamStats{}
	var content strings.Builder

	for {
		piece, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, &StreamError{Partial: content.String(), Err: err}
		}
		if stats.Chunks == 0 {
			stats.FirstTokenTime = time.Since(start)
		}
		stats.Chunks++
		content.WriteString(piece)
		if callback != nil {
			callback(StreamChunk{Content: piece})
		}
	}

	stats.TotalTime = time.Since(start)
	stats.Content = content.String()
	c.log.WithFields(logrus.Fields{
		"model":       req.Model,
		"chunks":      stats.Chunks,
		"first_token": stats.FirstTokenTime.String(),
		"total":       stats.TotalTime.String(),
	}).Debug("chat stream finished")
	return stats, nil
}
