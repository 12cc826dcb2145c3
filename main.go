// dllm TUI - A terminal client for the dllm inference swarm.
//
// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/app"
	"github.com/wavefy/dllm-tui/internal/cli"
	"github.com/wavefy/dllm-tui/internal/config"
	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/detect"
	"github.com/wavefy/dllm-tui/internal/logging"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/ui/chat"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/dashboard"
	"github.com/wavefy/dllm-tui/internal/ui/health"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	if cmd != cli.CmdTUI {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := cli.Main(ctx, cmd, args)
		stop()
		os.Exit(code)
	}

	if err := runTUI(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dllm: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(args cli.Args) error {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log, closer, err := logging.Setup(cfg.Logging.Level, cfg.LogPath())
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	log.WithFields(logrus.Fields{
		"version": Version,
		"mode":    cfg.UI.Mode,
		"control": cfg.Endpoints.ControlURL,
	}).Info("starting tui")

	m := NewModel(styles.NewTheme(cfg.UI.Theme), depsFromServices(svc))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// depsFromServices wires the tabs to the service clients.
func depsFromServices(svc *app.Services) Deps {
	cfg := svc.Config
	cloud := strings.EqualFold(cfg.UI.Mode, config.ModeCloud)
	return Deps{
		Status:  svc.Control.Status,
		Health:  svc.Registry.Views,
		Polling: cfg.Polling,
		Cloud:   cloud,
		Logger:  svc.Log,
		Chat: chat.Deps{
			Streamer: svc.Chat,
			Store:    svc.Chats,
			Options:  svc.ChatOptions(),
			SaveOptions: func(o storage.ChatOptions) error {
				return storage.SaveChatOptions(svc.KV, o)
			},
			Logger: svc.Log,
		},
		Dashboard: dashboard.Deps{
			Node:     svc.Control,
			Chain:    svc.Aptos,
			History:  svc.Indexer,
			Keys:     svc.Keys,
			Catalog:  svc.Catalog,
			Memory:   detect.MemoryCached,
			Cloud:    cloud,
			PageSize: cfg.UI.HistoryPageSize,
			Timeout:  cfg.Polling.RequestTimeout.Duration,
			Logger:   svc.Log,
		},
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Tabs in header order.
const (
	TabChat = iota
	TabDashboard
	TabHealth
)

var tabTitles = []string{"Chat", "Dashboard", "Health"}

// Deps are the root model's collaborators.
type Deps struct {
	Status func(ctx context.Context) (*control.P2PStatus, error)
	Health func(ctx context.Context) ([]registry.ModelView, error)

	Chat      chat.Deps
	Dashboard dashboard.Deps

	Polling config.PollingConfig
	Cloud   bool
	Logger  logrus.FieldLogger
}

// Model is the root Bubble Tea model: header, active tab, toasts and
// status bar. It owns every poll and hands results to the tabs.
type Model struct {
	deps  Deps
	theme *styles.Theme
	log   logrus.FieldLogger

	header    *components.Header
	statusBar *components.StatusBar
	toasts    *components.ToastManager

	chat      chat.Model
	dashboard dashboard.Model
	health    health.Model

	status    *control.P2PStatus
	statusErr error
	statusAt  time.Time
	wallet    string

	width  int
	height int
}

// NewModel creates the root model.
func NewModel(theme *styles.Theme, deps Deps) *Model {
	d := config.Default().Polling
	p := &deps.Polling
	for _, f := range []struct{ dst, def *config.Duration }{
		{&p.StatusInterval, &d.StatusInterval},
		{&p.HealthInterval, &d.HealthInterval},
		{&p.ModelsInterval, &d.ModelsInterval},
		{&p.HistoryInterval, &d.HistoryInterval},
		{&p.RequestTimeout, &d.RequestTimeout},
	} {
		if f.dst.Duration <= 0 {
			*f.dst = *f.def
		}
	}

	header := components.NewHeader(theme, tabTitles...)
	header.Cloud = deps.Cloud

	m := &Model{
		deps:      deps,
		theme:     theme,
		log:       logging.OrDiscard(deps.Logger).WithField("component", "tui"),
		header:    header,
		statusBar: components.NewStatusBar(theme),
		toasts:    components.NewToastManager(),
		chat:      chat.New(theme, deps.Chat),
		dashboard: dashboard.New(theme, deps.Dashboard),
		health:    health.New(theme),
		width:     80,
		height:    24,
	}
	m.wallet = m.dashboard.WalletAddress()
	m.header.Wallet = m.wallet
	m.layout()
	return m
}

// Init starts every poll loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.chat.Init(),
		m.dashboard.Init(),
		m.pollStatus(true),
		m.pollHealth(true),
		m.dashboard.PollHistory(),
		tick(m.deps.Polling.HistoryInterval.Duration, historyTickMsg{}),
		tick(m.deps.Polling.ModelsInterval.Duration, catalogTickMsg{}),
		components.ToastTickCmd(),
	)
}

// ActiveTab is the index of the shown tab.
func (m *Model) ActiveTab() int { return m.header.Active }

// layout hands the space between header and status bar to the tabs.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)

	body := max(m.height-lipgloss.Height(m.header.View())-1, 1)
	m.chat.SetSize(m.width, body)
	m.dashboard.SetSize(m.width, body)
	m.health.SetSize(m.width, body)
}

// =============================================================================
// POLLING
// =============================================================================

type statusTickMsg struct{}
type healthTickMsg struct{}
type historyTickMsg struct{}
type catalogTickMsg struct{}

type statusMsg struct {
	status *control.P2PStatus
	err    error
	at     time.Time
	next   bool // schedule the following tick
}

type healthMsg struct {
	views []registry.ModelView
	err   error
	at    time.Time
	next  bool
}

func tick(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// requestCtx starts the per-request deadline when the returned Cmd runs.
func requestCtx(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (m *Model) pollStatus(next bool) tea.Cmd {
	if m.deps.Status == nil {
		return nil
	}
	fetch := m.deps.Status
	timeout := m.deps.Polling.RequestTimeout.Duration
	return func() tea.Msg {
		ctx, cancel := requestCtx(timeout)
		defer cancel()
		st, err := fetch(ctx)
		return statusMsg{status: st, err: err, at: time.Now(), next: next}
	}
}

func (m *Model) pollHealth(next bool) tea.Cmd {
	if m.deps.Health == nil {
		return nil
	}
	fetch := m.deps.Health
	timeout := m.deps.Polling.RequestTimeout.Duration
	return func() tea.Msg {
		ctx, cancel := requestCtx(timeout)
		defer cancel()
		views, err := fetch(ctx)
		return healthMsg{views: views, err: err, at: time.Now(), next: next}
	}
}

func (m *Model) handleStatus(msg statusMsg) tea.Cmd {
	var cmds []tea.Cmd
	if msg.next {
		cmds = append(cmds, tick(m.deps.Polling.StatusInterval.Duration, statusTickMsg{}))
	}

	if msg.err != nil {
		if m.statusErr == nil {
			m.log.WithError(msg.err).Warn("control plane unreachable")
		}
		m.statusErr = msg.err
		return tea.Batch(cmds...)
	}
	if m.statusErr != nil {
		m.log.Info("control plane reachable again")
	}
	m.statusErr = nil
	m.status = msg.status
	m.statusAt = msg.at

	cmds = append(cmds, m.chat.SetStatus(msg.status))
	m.dashboard.SetStatus(msg.status)

	// A new wallet means new history.
	if addr := m.dashboard.WalletAddress(); addr != m.wallet {
		m.wallet = addr
		m.header.Wallet = addr
		cmds = append(cmds, m.dashboard.PollHistory())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleHealth(msg healthMsg) tea.Cmd {
	if msg.err != nil {
		m.log.WithError(msg.err).Debug("health poll failed")
	}
	m.health.SetViews(msg.views, msg.err, msg.at)
	if msg.next {
		return tick(m.deps.Polling.HealthInterval.Duration, healthTickMsg{})
	}
	return nil
}

func (m *Model) handleRefresh(msg components.RefreshMsg) tea.Cmd {
	switch msg.Source {
	case components.SourceStatus:
		return tea.Batch(m.pollStatus(false), m.dashboard.PollHistory())
	case components.SourceHealth:
		return m.pollHealth(false)
	case components.SourceHistory:
		return m.dashboard.PollHistory()
	}
	return nil
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m, m.updateActive(msg)

	case components.ToastMsg:
		m.toasts.Add(msg.Kind, msg.Message)
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case components.RefreshMsg:
		return m, m.handleRefresh(msg)

	case statusTickMsg:
		return m, m.pollStatus(true)

	case statusMsg:
		return m, m.handleStatus(msg)

	case healthTickMsg:
		return m, m.pollHealth(true)

	case healthMsg:
		return m, m.handleHealth(msg)

	case historyTickMsg:
		return m, tea.Batch(m.dashboard.PollHistory(), tick(m.deps.Polling.HistoryInterval.Duration, historyTickMsg{}))

	case catalogTickMsg:
		return m, tea.Batch(m.dashboard.ReloadCatalog(), tick(m.deps.Polling.ModelsInterval.Duration, catalogTickMsg{}))
	}

	// Async results belong to whichever tab started them.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	m.dashboard, cmd = m.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	m.health, cmd = m.health.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// capturing reports whether the active tab wants plain keystrokes. The chat
// input always has focus.
func (m *Model) capturing() bool {
	switch m.header.Active {
	case TabChat:
		return true
	case TabDashboard:
		return m.dashboard.Capturing()
	}
	return false
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.header.Next()
		return m, nil
	case "shift+tab":
		m.header.Prev()
		return m, nil
	}

	if !m.capturing() {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "1", "2", "3":
			m.header.Select(int(msg.Runes[0] - '1'))
			return m, nil
		}
	}

	if msg.String() == "esc" && !m.toasts.Empty() && !m.capturing() {
		m.toasts.Dismiss()
		return m, nil
	}
	return m, m.updateActive(msg)
}

func (m *Model) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.header.Active {
	case TabChat:
		m.chat, cmd = m.chat.Update(msg)
	case TabDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case TabHealth:
		m.health, cmd = m.health.Update(msg)
	}
	return cmd
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the header, the active tab with toasts over its bottom
// lines, and the status bar.
func (m *Model) View() string {
	var body string
	switch m.header.Active {
	case TabChat:
		body = m.chat.View()
	case TabDashboard:
		body = m.dashboard.View()
	case TabHealth:
		body = m.health.View()
	}
	body = m.overlayToasts(body)

	m.updateStatusBar()
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.statusBar.View())
}

func (m *Model) overlayToasts(body string) string {
	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return body
	}
	stack := strings.Split(components.RenderToastStack(toasts, m.width), "\n")
	lines := strings.Split(body, "\n")
	if len(stack) > len(lines) {
		stack = stack[len(stack)-len(lines):]
	}
	copy(lines[len(lines)-len(stack):], stack)
	return strings.Join(lines, "\n")
}

func (m *Model) updateStatusBar() {
	sb := m.statusBar
	switch {
	case m.statusErr != nil:
		sb.Status = components.StatusOffline
	case m.chat.State() == chat.StateStreaming:
		sb.Status = components.StatusStreaming
	case m.status == nil:
		sb.Status = components.StatusLoading
	default:
		sb.Status = components.StatusReady
	}
	sb.Model = m.chat.Options().SelectedModel
	sb.UpdatedAt = m.statusAt

	var bindings []key.Binding
	switch m.header.Active {
	case TabChat:
		bindings = m.chat.Keys().Hints()
	case TabDashboard:
		bindings = m.dashboard.Keys().Hints()
	case TabHealth:
		bindings = m.health.Keys().Hints()
	}
	hints := []components.KeyHint{{Key: "tab", Action: "switch"}}
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, components.KeyHint{Key: h.Key, Action: h.Desc})
	}
	if !m.capturing() {
		hints = append(hints, components.KeyHint{Key: "q", Action: "quit"})
	}
	sb.Hints = hints
}
