// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/logging"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// DepositNote explains the deposit unit.
const DepositNote = "Deposit amount should be in 10 to the power of 8, e.g. 100000000 equals 1 APT"

// =============================================================================
// FOCUS
// =============================================================================

type focusKind int

const (
	focusCard focusKind = iota
	focusModel
	focusMemory
	focusSuggest
	focusFrom
	focusTo
	focusKey
	focusGenerate
	focusStart
)

type focusItem struct {
	kind  focusKind
	index int // card index for focusCard
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the dashboard tab.
type Model struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap
	log   logrus.FieldLogger

	width  int
	height int

	status *control.P2PStatus
	focus  int

	form    form
	history history

	// Deposit prompt; open while depositFor is set.
	depositFor string
	deposit    textinput.Model
	depositing bool

	stopping map[string]bool

	viewport viewport.Model
}

// New creates the dashboard tab.
func New(theme *styles.Theme, deps Deps) Model {
	deps.setDefaults()

	di := textinput.New()
	di.Placeholder = "Enter deposit amount"
	di.CharLimit = 20

	m := Model{
		deps:     deps,
		theme:    theme,
		keys:     DefaultKeyMap(),
		log:      logging.OrDiscard(deps.Logger).WithField("component", "dashboard"),
		form:     newForm(),
		history:  newHistory(deps.PageSize),
		deposit:  di,
		stopping: make(map[string]bool),
		viewport: viewport.New(80, 20),
	}
	if deps.Keys == nil {
		return m
	}
	if addr := deps.Keys.Address(); addr != "" {
		m.form.address = addr
		if acct, err := deps.Keys.Load(); err == nil {
			m.form.key.SetValue(acct.Hex())
		}
	}
	return m
}

// Init loads the model catalog and the account balance and detects the
// memory budget.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCatalog(), m.fetchBalance(m.form.address), m.detectMemory())
}

// SetSize sets the area the tab may draw in.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// Keys returns the tab's bindings.
func (m Model) Keys() KeyMap { return m.keys }

// SetStatus records the latest control-plane status.
func (m *Model) SetStatus(st *control.P2PStatus) {
	m.status = st
	if st != nil {
		for model := range m.stopping {
			if !st.HasModel(model) || !m.modelActive(model) {
				delete(m.stopping, model)
			}
		}
	}
	m.focus = min(m.focus, max(len(m.focusables())-1, 0))
}

func (m Model) modelActive(id string) bool {
	for _, s := range m.status.Active() {
		if s.Model == id {
			return true
		}
	}
	return false
}

// WalletAddress is the address whose history is shown: the node's reported
// wallet, else the stored key's.
func (m Model) WalletAddress() string {
	if addr := m.status.WalletAddress(); addr != "" {
		return addr
	}
	return m.form.address
}

// Capturing reports whether keystrokes belong to a text field, so the root
// model must not treat them as shortcuts.
func (m Model) Capturing() bool {
	if m.depositFor != "" {
		return true
	}
	f, ok := m.focused()
	if !ok {
		return false
	}
	switch f.kind {
	case focusFrom, focusTo, focusKey:
		return true
	}
	return false
}

func (m Model) focusables() []focusItem {
	var items []focusItem
	if m.status != nil {
		for i := range m.status.Models {
			items = append(items, focusItem{kind: focusCard, index: i})
		}
	}
	if !m.deps.Cloud {
		for _, k := range []focusKind{focusModel, focusMemory, focusSuggest, focusFrom, focusTo, focusKey, focusGenerate, focusStart} {
			items = append(items, focusItem{kind: k})
		}
	}
	return items
}

func (m Model) focused() (focusItem, bool) {
	items := m.focusables()
	if m.focus < 0 || m.focus >= len(items) {
		return focusItem{}, false
	}
	return items[m.focus], true
}

func (m *Model) moveFocus(delta int) {
	n := len(m.focusables())
	if n == 0 {
		m.focus = 0
		return
	}
	m.focus = ((m.focus+delta)%n + n) % n
	m.syncInputFocus()
}

func (m *Model) syncInputFocus() {
	f, _ := m.focused()
	m.form.from.Blur()
	m.form.to.Blur()
	m.form.key.Blur()
	switch f.kind {
	case focusFrom:
		m.form.from.Focus()
	case focusTo:
		m.form.to.Focus()
	case focusKey:
		m.form.key.Focus()
	}
}

// focusedCard returns the model of the focused card, if a card has focus.
func (m Model) focusedCard() (control.ModelStatus, bool) {
	f, ok := m.focused()
	if !ok || f.kind != focusCard || m.status == nil || f.index >= len(m.status.Models) {
		return control.ModelStatus{}, false
	}
	return m.status.Models[f.index], true
}

// =============================================================================
// UPDATE
// =============================================================================

type stoppedMsg struct {
	model  string
	status *control.P2PStatus
	err    error
}

type depositedMsg struct {
	hash string
	err  error
}

type copiedMsg struct {
	err error
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.depositFor != "" {
			return m.handleDepositKey(msg)
		}
		return m.handleKey(msg)

	case stoppedMsg:
		if msg.err != nil {
			delete(m.stopping, msg.model)
			m.log.WithError(msg.err).WithField("model", msg.model).Warn("stop failed")
			return m, components.ShowToast(components.ToastError, "Failed to stop P2P session")
		}
		if msg.status != nil {
			m.SetStatus(msg.status)
		}
		return m, tea.Batch(
			components.ShowToast(components.ToastSuccess, "Stopped "+msg.model),
			components.Refresh(components.SourceStatus),
		)

	case depositedMsg:
		m.depositing = false
		if msg.err != nil {
			return m, components.ShowToast(components.ToastError, msg.err.Error())
		}
		m.depositFor = ""
		m.deposit.Reset()
		return m, tea.Batch(
			components.ShowToast(components.ToastSuccess, "Deposit successful. Transaction hash: "+msg.hash),
			components.Refresh(components.SourceStatus),
			m.fetchBalance(m.form.address),
		)

	case copiedMsg:
		if msg.err != nil {
			return m, components.ShowToast(components.ToastError, "Could not copy: "+msg.err.Error())
		}
		return m, components.ShowToast(components.ToastSuccess, "Copied to clipboard")

	case catalogMsg, suggestMsg, startedMsg, accountMsg, balanceMsg, memoryMsg:
		return m.updateForm(msg)

	case sessionsMsg, claimsMsg:
		m.history.apply(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.Capturing() {
		if key.Matches(msg, m.keys.Press) {
			return m.press()
		}
		return m.updateInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Press):
		return m.press()
	case key.Matches(msg, m.keys.Left):
		m.cycleSelect(-1)
	case key.Matches(msg, m.keys.Right):
		m.cycleSelect(1)
	case key.Matches(msg, m.keys.Stop):
		return m.stopFocused()
	case key.Matches(msg, m.keys.Deposit):
		return m.openDeposit()
	case key.Matches(msg, m.keys.Copy):
		return m.copyAddress()
	case key.Matches(msg, m.keys.SessionsPrev):
		return m, m.history.sessionsPage(-1, m.deps, m.WalletAddress())
	case key.Matches(msg, m.keys.SessionsNext):
		return m, m.history.sessionsPage(1, m.deps, m.WalletAddress())
	case key.Matches(msg, m.keys.ClaimsPrev):
		return m, m.history.claimsPage(-1, m.deps, m.WalletAddress())
	case key.Matches(msg, m.keys.ClaimsNext):
		return m, m.history.claimsPage(1, m.deps, m.WalletAddress())
	}
	return m, nil
}

func (m Model) stopFocused() (Model, tea.Cmd) {
	card, ok := m.focusedCard()
	if !ok || !card.Active() || m.deps.Cloud || m.stopping[card.Model] {
		return m, nil
	}
	m.stopping[card.Model] = true
	node, model := m.deps.Node, card.Model
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		st, err := node.Stop(ctx, model)
		return stoppedMsg{model: model, status: st, err: err}
	}
}

func (m Model) openDeposit() (Model, tea.Cmd) {
	card, ok := m.focusedCard()
	if !ok || !card.Active() || m.deps.Cloud {
		return m, nil
	}
	m.depositFor = card.Model
	m.deposit.Reset()
	return m, m.deposit.Focus()
}

func (m Model) handleDepositKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.depositFor = ""
		m.deposit.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Press):
		if m.depositing {
			return m, nil
		}
		octas, err := wallet.ParseOctas(m.deposit.Value())
		if err != nil {
			return m, components.ShowToast(components.ToastError, err.Error())
		}
		if m.deps.Keys == nil {
			return m, components.ShowToast(components.ToastError, "No private key stored. Generate or import an account first.")
		}
		acct, err := m.deps.Keys.Load()
		if err != nil {
			if errors.Is(err, wallet.ErrNoKey) {
				return m, components.ShowToast(components.ToastError, "No private key stored. Generate or import an account first.")
			}
			return m, components.ShowToast(components.ToastError, err.Error())
		}
		m.depositing = true
		chain, deps := m.deps.Chain, m.deps
		m.log.WithFields(logrus.Fields{"model": m.depositFor, "octas": octas}).Info("depositing")
		return m, func() tea.Msg {
			ctx, cancel := deps.ctx()
			defer cancel()
			hash, err := chain.Deposit(ctx, acct, octas)
			return depositedMsg{hash: hash, err: err}
		}
	}
	var cmd tea.Cmd
	m.deposit, cmd = m.deposit.Update(msg)
	return m, cmd
}

func (m Model) copyAddress() (Model, tea.Cmd) {
	addr := m.WalletAddress()
	if card, ok := m.focusedCard(); ok && card.Wallet.Address != "" {
		addr = card.Wallet.Address
	}
	if addr == "" {
		return m, components.ShowToast(components.ToastWarning, "No wallet address yet.")
	}
	cp := m.deps.Copy
	return m, func() tea.Msg { return copiedMsg{err: cp(addr)} }
}

// PollHistory fetches the current history pages and the balance. It returns
// nil without a wallet address or an indexer.
func (m Model) PollHistory() tea.Cmd {
	addr := m.WalletAddress()
	if addr == "" {
		return nil
	}
	return tea.Batch(m.history.fetch(m.deps, addr), m.fetchBalance(m.form.address))
}

// cardHint is the action line for the focused card.
func (m Model) cardHint() string {
	card, ok := m.focusedCard()
	if !ok || !card.Active() || m.deps.Cloud {
		return ""
	}
	if m.stopping[card.Model] {
		return "Stopping..."
	}
	return fmt.Sprintf("x stop %s  d deposit  c copy address", card.Model)
}
