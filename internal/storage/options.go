// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// ChatOptionsKey is where ChatOptions live in the KV store.
const ChatOptionsKey = "chatOptions"

// ChatOptions are the user's chat settings.
type ChatOptions struct {
	SelectedModel string  `json:"selectedModel"`
	SystemPrompt  string  `json:"systemPrompt"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens,omitempty"`
}

// DefaultChatOptions are used until the user changes something.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{SelectedModel: "local-model", Temperature: 0.9}
}

// LoadChatOptions reads the stored options, falling back to defaults.
func LoadChatOptions(kv *KV) ChatOptions {
	opts := DefaultChatOptions()
	if kv == nil {
		return opts
	}
	if ok, err := kv.GetJSON(ChatOptionsKey, &opts); err != nil || !ok {
		return DefaultChatOptions()
	}
	return opts
}

// SaveChatOptions stores opts.
func SaveChatOptions(kv *KV, opts ChatOptions) error {
	return kv.SetJSON(ChatOptionsKey, opts)
}
