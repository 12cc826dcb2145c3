// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/logging"
	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// Streamer sends a chat request and streams the reply.
type Streamer interface {
	ChatStream(ctx context.Context, req openai.ChatRequest, callback openai.StreamCallback) (*openai.StreamStats, error)
}

// Store persists chats.
type Store interface {
	Save(chat *storage.Chat) error
	Load(id string) (*storage.Chat, error)
	List() ([]storage.ChatMeta, error)
	Delete(id string) error
}

// Deps are the chat tab's collaborators. SaveOptions may be nil.
type Deps struct {
	Streamer    Streamer
	Store       Store
	Options     storage.ChatOptions
	SaveOptions func(storage.ChatOptions) error
	Logger      logrus.FieldLogger
}

// =============================================================================
// CHAT STATE
// =============================================================================

// State is whether a reply is streaming.
type State int

const (
	StateReady State = iota
	StateStreaming
)

type overlay int

const (
	overlayNone overlay = iota
	overlayChats
	overlayStatus
)

// inputHeight is the bordered single-line input plus the spinner line.
const inputHeight = 4

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the chat tab.
type Model struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap
	log   logrus.FieldLogger

	width  int
	height int

	// Conversation; nil until the first prompt of a new chat.
	chat *storage.Chat

	state     State
	seq       int
	cancelled bool
	buffer    *StreamingBuffer
	cancelMgr *cancelManager
	started   time.Time

	status *control.P2PStatus

	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	md       *markdown

	overlay    overlay
	chatList   []storage.ChatMeta
	listCursor int
}

// New creates the chat tab.
func New(theme *styles.Theme, deps Deps) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter your prompt here"
	ti.CharLimit = 8192
	ti.Focus()

	if deps.Options.SelectedModel == "" {
		deps.Options = storage.DefaultChatOptions()
	}

	m := Model{
		deps:      deps,
		theme:     theme,
		keys:      DefaultKeyMap(),
		log:       logging.OrDiscard(deps.Logger).WithField("component", "chat"),
		cancelMgr: &cancelManager{},
		viewport:  viewport.New(80, 20),
		input:     ti,
		spinner:   components.NewSpinner("Generating"),
		md:        newMarkdown(theme.IsDark),
	}
	m.refresh()
	return m
}

// Init focuses the input.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the area the tab may draw in.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
	m.viewport.Width = width
	m.viewport.Height = max(height-inputHeight, 3)
	m.refresh()
}

// State reports whether a reply is streaming.
func (m Model) State() State { return m.state }

// Chat is the current conversation, nil for a fresh one.
func (m Model) Chat() *storage.Chat { return m.chat }

// Options are the chat options in effect.
func (m Model) Options() storage.ChatOptions { return m.deps.Options }

// Keys returns the tab's bindings.
func (m Model) Keys() KeyMap { return m.keys }

// SetStatus records the latest control-plane status and points the chat at
// the first active model.
func (m *Model) SetStatus(st *control.P2PStatus) tea.Cmd {
	m.status = st
	active := st.Active()
	if len(active) == 0 || active[0].Model == "" || active[0].Model == m.deps.Options.SelectedModel {
		return nil
	}
	m.deps.Options.SelectedModel = active[0].Model
	m.log.WithField("model", active[0].Model).Debug("chat model follows active node")
	if m.deps.SaveOptions == nil {
		return nil
	}
	opts, save := m.deps.Options, m.deps.SaveOptions
	return func() tea.Msg {
		if err := save(opts); err != nil {
			return components.ToastMsg{Kind: components.ToastWarning, Message: "Could not save chat options: " + err.Error()}
		}
		return nil
	}
}

// =============================================================================
// UPDATE
// =============================================================================

type chatListMsg struct {
	items []storage.ChatMeta
	err   error
}

type chatLoadedMsg struct {
	chat *storage.Chat
	err  error
}

type chatSavedMsg struct {
	err error
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if s, ok := m.buffer.Flush(); ok {
			m.appendToReply(s)
			m.refresh()
		}
		return m, streamTickCmd()

	case StreamDoneMsg:
		return m.handleDone(msg)

	case chatListMsg:
		if msg.err != nil {
			m.overlay = overlayNone
			return m, components.ShowToast(components.ToastError, "Could not list chats: "+msg.err.Error())
		}
		m.chatList = msg.items
		m.listCursor = min(m.listCursor, max(len(msg.items)-1, 0))
		return m, nil

	case chatLoadedMsg:
		if msg.err != nil {
			return m, components.ShowToast(components.ToastError, "Could not open chat: "+msg.err.Error())
		}
		m.chat = msg.chat
		m.overlay = overlayNone
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case chatSavedMsg:
		if msg.err != nil {
			return m, components.ShowToast(components.ToastWarning, "Chat not saved: "+msg.err.Error())
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.overlay {
	case overlayStatus:
		if key.Matches(msg, m.keys.Cancel, m.keys.ModelStatus) {
			m.overlay = overlayNone
		}
		return m, nil
	case overlayChats:
		return m.handleListKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.ModelStatus):
		m.overlay = overlayStatus
		return m, nil

	case key.Matches(msg, m.keys.ChatList):
		m.overlay = overlayChats
		return m, m.listChats()

	case key.Matches(msg, m.keys.NewChat):
		m.newChat()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateStreaming {
			m.cancelled = true
			m.cancelMgr.cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel, m.keys.ChatList):
		m.overlay = overlayNone
	case key.Matches(msg, m.keys.Up):
		m.listCursor = max(m.listCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.listCursor = min(m.listCursor+1, max(len(m.chatList)-1, 0))
	case key.Matches(msg, m.keys.Submit):
		if len(m.chatList) == 0 {
			return m, nil
		}
		if m.state == StateStreaming {
			return m, components.ShowToast(components.ToastWarning, "Stop the current reply first")
		}
		id, store := m.chatList[m.listCursor].ID, m.deps.Store
		return m, func() tea.Msg {
			c, err := store.Load(id)
			return chatLoadedMsg{chat: c, err: err}
		}
	case key.Matches(msg, m.keys.Delete):
		if len(m.chatList) == 0 {
			return m, nil
		}
		id := m.chatList[m.listCursor].ID
		if m.chat != nil && m.chat.ID == id {
			m.newChat()
			m.overlay = overlayChats
		}
		store := m.deps.Store
		return m, func() tea.Msg {
			if err := store.Delete(id); err != nil {
				return chatListMsg{err: err}
			}
			items, err := store.List()
			return chatListMsg{items: items, err: err}
		}
	}
	return m, nil
}

func (m Model) listChats() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		items, err := store.List()
		return chatListMsg{items: items, err: err}
	}
}

// newChat abandons the current conversation. A running reply is cancelled
// and its result ignored.
func (m *Model) newChat() {
	m.cancelMgr.cancel()
	m.seq++
	m.state = StateReady
	m.spinner.Stop()
	m.chat = nil
	m.input.Reset()
	m.refresh()
}

// =============================================================================
// STREAMING
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" || m.state == StateStreaming {
		return m, nil
	}
	m.input.Reset()

	opts := m.deps.Options
	if m.chat == nil || len(m.chat.Messages) == 0 {
		m.chat = &storage.Chat{
			ID:           storage.NewChatID(),
			Model:        opts.SelectedModel,
			SystemPrompt: opts.SystemPrompt,
			Temperature:  opts.Temperature,
			CreatedAt:    time.Now(),
		}
	}
	m.chat.Messages = append(m.chat.Messages, storage.NewMessage(openai.RoleUser, prompt))

	history := make([]openai.Message, 0, len(m.chat.Messages))
	for _, cm := range m.chat.Messages {
		history = append(history, openai.Message{Role: cm.Role, Content: cm.Content})
	}
	req := openai.ChatRequest{
		Model:       opts.SelectedModel,
		Messages:    openai.BuildMessages(opts.SystemPrompt, history),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	m.chat.Messages = append(m.chat.Messages, storage.NewMessage(openai.RoleAssistant, ""))
	m.state = StateStreaming
	m.cancelled = false
	m.seq++
	m.buffer = NewStreamingBuffer()
	m.started = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	m.log.WithFields(logrus.Fields{"model": req.Model, "messages": len(req.Messages)}).Debug("sending prompt")
	m.refresh()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		startStream(ctx, m.deps.Streamer, req, m.buffer, m.seq),
		streamTickCmd(),
		m.spinner.Start(),
	)
}

func (m *Model) appendToReply(s string) {
	if m.chat == nil || len(m.chat.Messages) == 0 {
		return
	}
	last := &m.chat.Messages[len(m.chat.Messages)-1]
	last.Content += s
}

func (m Model) handleDone(msg StreamDoneMsg) (Model, tea.Cmd) {
	if msg.Seq != m.seq || m.state != StateStreaming {
		return m, nil
	}
	m.state = StateReady
	m.spinner.Stop()
	m.cancelMgr.cancel()
	if s, ok := m.buffer.Flush(); ok {
		m.appendToReply(s)
	}

	last := &m.chat.Messages[len(m.chat.Messages)-1]
	last.DurationMs = time.Since(m.started).Milliseconds()
	last.Chunks = m.buffer.Chunks()

	err := msg.Err
	if err != nil && (m.cancelled || errors.Is(err, context.Canceled)) {
		// Stopped by the user: keep what arrived and treat it as a reply.
		m.log.Debug("reply stopped")
		err = nil
	}
	if err != nil {
		m.log.WithError(err).Warn("chat stream failed")
		if last.Content == "" {
			m.chat.Messages = m.chat.Messages[:len(m.chat.Messages)-1]
		}
		m.refresh()
		return m, components.ShowToast(components.ToastError, "Something went wrong: "+err.Error())
	}

	if msg.Stats != nil {
		last.Content = msg.Stats.Content
		last.Chunks = msg.Stats.Chunks
	}
	if last.Content == "" {
		m.chat.Messages = m.chat.Messages[:len(m.chat.Messages)-1]
	}
	m.refresh()
	m.viewport.GotoBottom()

	if m.deps.Store == nil || len(m.chat.Messages) == 0 {
		return m, nil
	}
	chat, store := *m.chat, m.deps.Store
	chat.Messages = append([]storage.ChatMessage(nil), m.chat.Messages...)
	return m, func() tea.Msg {
		return chatSavedMsg{err: store.Save(&chat)}
	}
}
