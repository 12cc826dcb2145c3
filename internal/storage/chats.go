// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wavefy/dllm-tui/internal/util"
)

// DefaultMaxChats caps how many chats are kept on disk.
const DefaultMaxChats = 200

// ErrChatNotFound is returned when no chat has the given id.
var ErrChatNotFound = errors.New("chat not found")

// =============================================================================
// TYPES
// =============================================================================

// Chat is one saved conversation.
type Chat struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Temperature  float64       `json:"temperature"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Messages     []ChatMessage `json:"messages"`
}

// ChatMessage is one turn.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Set on assistant replies.
	DurationMs int64 `json:"duration_ms,omitempty"`
	Chunks     int   `json:"chunks,omitempty"`
}

// ChatMeta is what the chat list shows.
type ChatMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// NewChatID returns a fresh chat id.
func NewChatID() string {
	return uuid.NewString()
}

// NewMessage builds a timestamped message with a fresh id.
func NewMessage(role, content string) ChatMessage {
	return ChatMessage{ID: uuid.NewString(), Role: role, Content: content, Timestamp: time.Now()}
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore persists chats as JSON files.
type ChatStore struct {
	// Dir holds one <id>.json per chat.
	Dir string

	// MaxChats limits stored chats (0 = unlimited). The least recently
	// updated are removed first.
	MaxChats int

	mu sync.Mutex
}

// NewChatStore creates the directory if needed.
func NewChatStore(dir string) (*ChatStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &ChatStore{Dir: dir, MaxChats: DefaultMaxChats}, nil
}

// Save writes chat, assigning an id and title when missing. Chats without
// messages are not written.
func (s *ChatStore) Save(chat *Chat) error {
	if len(chat.Messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.ID == "" {
		chat.ID = NewChatID()
	}
	if chat.Title == "" {
		chat.Title = titleFor(chat.Messages)
	}
	chat.UpdatedAt = time.Now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = chat.UpdatedAt
	}

	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.path(chat.ID), data, 0600); err != nil {
		return err
	}

	if s.MaxChats > 0 {
		s.prune()
	}
	return nil
}

func titleFor(msgs []ChatMessage) string {
	for _, m := range msgs {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			line := strings.Join(strings.Fields(m.Content), " ")
			return util.TruncateWidth(line, 50)
		}
	}
	return "New chat"
}

func (s *ChatStore) prune() {
	metas, err := s.list()
	if err != nil || len(metas) <= s.MaxChats {
		return
	}
	// metas is newest first.
	for _, m := range metas[s.MaxChats:] {
		os.Remove(s.path(m.ID))
	}
}

// Load reads one chat.
func (s *ChatStore) Load(id string) (*Chat, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	var chat Chat
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// List returns every chat, most recently updated first. Unreadable files
// are skipped.
func (s *ChatStore) List() ([]ChatMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *ChatStore) list() ([]ChatMeta, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ChatMeta{}, nil
		}
		return nil, err
	}

	metas := []ChatMeta{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		chat, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, ChatMeta{
			ID:           chat.ID,
			Title:        chat.Title,
			Model:        chat.Model,
			UpdatedAt:    chat.UpdatedAt,
			MessageCount: len(chat.Messages),
			Preview:      preview(chat.Messages),
		})
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

func preview(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" {
			return util.TruncateWidth(util.FirstLine(msgs[i].Content), 80)
		}
	}
	return ""
}

// Delete removes one chat.
func (s *ChatStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrChatNotFound
		}
		return err
	}
	return nil
}

// DeleteAll removes every chat and returns how many were removed.
func (s *ChatStore) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			if os.Remove(filepath.Join(s.Dir, e.Name())) == nil {
				n++
			}
		}
	}
	return n, nil
}

// path rejects ids that would escape Dir.
func (s *ChatStore) path(id string) string {
	return filepath.Join(s.Dir, filepath.Base(id)+".json")
}
