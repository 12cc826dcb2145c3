// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"fmt"
	"time"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of /v1/chat/completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`

	// PlainText asks the swarm server to stream bare text instead of JSON
	// deltas.
	PlainText bool `json:"plain_text"`
}

// BuildMessages prepends systemPrompt (when set) to history.
func BuildMessages(systemPrompt string, history []Message) []Message {
	out := make([]Message, 0, len(history)+1)
	if systemPrompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(out, history...)
}

// deltaChunk is one JSON delta in the non plain-text framing.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c deltaChunk) content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// StreamChunk is a piece of assistant output.
type StreamChunk struct {
	Content string
}

// StreamCallback is called for each chunk, in order.
type StreamCallback func(chunk StreamChunk)

// StreamStats describes a finished stream.
type StreamStats struct {
	FirstTokenTime time.Duration
	TotalTime      time.Duration
	Chunks         int
	Content        string
}

// StreamError is a failure after some output already arrived.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream interrupted after %d chars: %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ModelInfo is an entry of /v1/models.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by,omitempty"`
}

type modelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}
