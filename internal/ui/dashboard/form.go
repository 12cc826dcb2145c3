// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/detect"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// =============================================================================
// START FORM STATE
// =============================================================================

// form is the local-mode start form.
type form struct {
	catalog  []layers.ModelSpec
	modelIdx int // -1 until a model is picked
	memIdx   int
	memSet   bool // the user picked a memory budget
	detected string

	from textinput.Model
	to   textinput.Model
	key  textinput.Model

	warning string
	err     string

	suggesting bool
	starting   bool
	generating bool

	address    string
	balance    *uint64
	balanceErr error
}

func newForm() form {
	memIdx := 0
	for i, gb := range layers.MaxMemoryOptions {
		if gb == layers.DefaultMaxMemoryGB {
			memIdx = i
		}
	}

	from := textinput.New()
	from.CharLimit = 4
	from.Prompt = ""
	from.SetValue("0")

	to := textinput.New()
	to.CharLimit = 4
	to.Prompt = ""
	to.SetValue("18")

	k := textinput.New()
	k.Prompt = ""
	k.Placeholder = "0x..."
	k.CharLimit = 70
	k.EchoMode = textinput.EchoPassword
	k.EchoCharacter = '•'

	return form{
		catalog:  layers.DefaultCatalog(),
		modelIdx: -1,
		memIdx:   memIdx,
		from:     from,
		to:       to,
		key:      k,
	}
}

func (f form) spec() (layers.ModelSpec, bool) {
	if f.modelIdx < 0 || f.modelIdx >= len(f.catalog) {
		return layers.ModelSpec{}, false
	}
	return f.catalog[f.modelIdx], true
}

func (f form) memoryGB() int {
	return layers.MaxMemoryOptions[f.memIdx]
}

// layerRange parses the start and end layer fields.
func (f form) layerRange() (int, int, error) {
	from, err := strconv.Atoi(strings.TrimSpace(f.from.Value()))
	if err != nil {
		return 0, 0, fmt.Errorf("start layer must be a number")
	}
	to, err := strconv.Atoi(strings.TrimSpace(f.to.Value()))
	if err != nil {
		return 0, 0, fmt.Errorf("end layer must be a number")
	}
	return from, to, nil
}

func (f *form) setRange(from, to int) {
	f.from.SetValue(strconv.Itoa(from))
	f.to.SetValue(strconv.Itoa(to))
}

// needsFunds reports whether the faucet notice is due: there is an account
// and its balance is not known to be positive.
func (f form) needsFunds() bool {
	return f.address != "" && (f.balance == nil || *f.balance == 0)
}

// =============================================================================
// MESSAGES
// =============================================================================

type catalogMsg struct {
	specs []layers.ModelSpec
}

type suggestMsg struct {
	spec  layers.ModelSpec
	reply *control.SuggestResult
	err   error
}

type startedMsg struct {
	req    control.StartRequest
	status *control.P2PStatus
	err    error
}

type accountMsg struct {
	acct    *wallet.Account
	err     error
	fundErr error
}

type memoryMsg struct {
	info detect.MemoryInfo
	err  error
}

type balanceMsg struct {
	addr  string
	octas uint64
	err   error
}

// =============================================================================
// ACTIONS
// =============================================================================

// ReloadCatalog refreshes the start form's model list.
func (m Model) ReloadCatalog() tea.Cmd {
	if m.deps.Cloud {
		return nil
	}
	return m.loadCatalog()
}

func (m Model) loadCatalog() tea.Cmd {
	catalog := m.deps.Catalog
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return catalogMsg{specs: catalog(ctx)}
	}
}

func (m Model) detectMemory() tea.Cmd {
	if m.deps.Memory == nil || m.deps.Cloud {
		return nil
	}
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		info, err := deps.Memory(ctx)
		return memoryMsg{info: info, err: err}
	}
}

func (m Model) fetchBalance(addr string) tea.Cmd {
	if addr == "" || m.deps.Chain == nil {
		return nil
	}
	chain := m.deps.Chain
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		octas, err := chain.Balance(ctx, addr)
		return balanceMsg{addr: addr, octas: octas, err: err}
	}
}

func (m *Model) cycleSelect(delta int) {
	f, ok := m.focused()
	if !ok {
		return
	}
	switch f.kind {
	case focusModel:
		n := len(m.form.catalog)
		if n == 0 {
			return
		}
		idx := m.form.modelIdx
		if idx < 0 {
			idx = 0
		} else {
			idx = ((idx+delta)%n + n) % n
		}
		m.selectModel(idx)
	case focusMemory:
		n := len(layers.MaxMemoryOptions)
		m.form.memIdx = ((m.form.memIdx+delta)%n + n) % n
		m.form.memSet = true
	}
}

func (m *Model) selectModel(idx int) {
	m.form.modelIdx = idx
	m.form.warning = ""
	spec, _ := m.form.spec()
	from, to, err := m.form.layerRange()
	if err != nil {
		from, to = 0, spec.Layers
	}
	m.form.setRange(layers.ClampRange(spec, from, to))
}

// press activates the focused button. In a text field enter moves on.
func (m Model) press() (Model, tea.Cmd) {
	f, ok := m.focused()
	if !ok {
		return m, nil
	}
	switch f.kind {
	case focusSuggest:
		return m.suggest()
	case focusGenerate:
		return m.generate()
	case focusStart:
		return m.start()
	case focusFrom, focusTo, focusKey:
		m.moveFocus(1)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	f, _ := m.focused()
	var cmd tea.Cmd
	switch f.kind {
	case focusFrom:
		m.form.from, cmd = m.form.from.Update(msg)
	case focusTo:
		m.form.to, cmd = m.form.to.Update(msg)
	case focusKey:
		m.form.key, cmd = m.form.key.Update(msg)
	}
	return m, cmd
}

func (m Model) suggest() (Model, tea.Cmd) {
	spec, ok := m.form.spec()
	if !ok {
		m.form.warning = layers.ErrNoModel.Error()
		return m, nil
	}
	if m.form.suggesting {
		return m, nil
	}
	m.form.suggesting = true
	m.form.err = ""

	node, maxLayers := m.deps.Node, layers.MaxLayersForMemory(spec, float64(m.form.memoryGB()))
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		reply, err := node.SuggestLayers(ctx, spec.ID, maxLayers, spec.Layers)
		return suggestMsg{spec: spec, reply: reply, err: err}
	}
}

func (m Model) start() (Model, tea.Cmd) {
	if m.form.starting {
		return m, nil
	}
	spec, ok := m.form.spec()
	if !ok {
		m.form.err = layers.ErrNoModel.Error()
		return m, nil
	}
	from, to, err := m.form.layerRange()
	if err == nil {
		err = layers.ValidateRange(spec, from, to)
	}
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	if strings.TrimSpace(m.form.key.Value()) == "" || m.deps.Keys == nil {
		m.form.err = "Enter a private key or generate an account."
		return m, nil
	}
	acct, err := m.deps.Keys.Import(m.form.key.Value())
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}

	m.form.err = ""
	m.form.starting = true
	m.form.address = acct.Address()

	req := control.StartRequest{Model: spec.ID, FromLayer: from, ToLayer: to, PrivateKey: acct.Hex()}
	m.log.WithFields(logrus.Fields{"model": req.Model, "from": from, "to": to}).Info("starting model")

	node := m.deps.Node
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		st, err := node.Start(ctx, req)
		return startedMsg{req: req, status: st, err: err}
	}
}

func (m Model) generate() (Model, tea.Cmd) {
	if m.form.generating || m.deps.Keys == nil {
		return m, nil
	}
	m.form.generating = true
	keys, chain := m.deps.Keys, m.deps.Chain
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		acct, err := wallet.Generate()
		if err != nil {
			return accountMsg{err: err}
		}
		if err := keys.Save(acct); err != nil {
			return accountMsg{err: err}
		}
		var fundErr error
		if chain != nil {
			_, fundErr = chain.Fund(ctx, acct.Address(), wallet.DefaultFundOctas)
		}
		return accountMsg{acct: acct, fundErr: fundErr}
	}
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogMsg:
		if len(msg.specs) == 0 {
			return m, nil
		}
		selected, _ := m.form.spec()
		m.form.catalog = msg.specs
		m.form.modelIdx = -1
		for i, s := range msg.specs {
			if s.ID == selected.ID {
				m.form.modelIdx = i
			}
		}

	case suggestMsg:
		m.form.suggesting = false
		if msg.err != nil {
			m.form.err = msg.err.Error()
			return m, nil
		}
		s := layers.Interpret(msg.spec, *msg.reply)
		if s.OK {
			m.form.setRange(s.From, s.To)
			m.form.warning = ""
		} else {
			m.form.warning = s.Warning
		}

	case startedMsg:
		m.form.starting = false
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("start failed")
			m.form.err = msg.err.Error()
			return m, nil
		}
		if msg.status != nil {
			m.SetStatus(msg.status)
		}
		text := fmt.Sprintf("Started %s (layers %d - %d)", msg.req.Model, msg.req.FromLayer, msg.req.ToLayer)
		return m, tea.Batch(
			components.ShowToast(components.ToastSuccess, text),
			components.Refresh(components.SourceStatus),
		)

	case accountMsg:
		m.form.generating = false
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("generate account failed")
			return m, components.ShowToast(components.ToastError, "Failed to generate new account")
		}
		m.form.key.SetValue(msg.acct.Hex())
		m.form.address = msg.acct.Address()
		zero := uint64(0)
		m.form.balance = &zero
		cmds := []tea.Cmd{
			components.ShowToast(components.ToastSuccess, "New account generated and private key saved"),
			m.fetchBalance(m.form.address),
		}
		if msg.fundErr != nil {
			cmds = append(cmds, components.ShowToast(components.ToastWarning, "Faucet funding failed: "+msg.fundErr.Error()))
		}
		return m, tea.Batch(cmds...)

	case memoryMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("memory detection failed")
			return m, nil
		}
		m.form.detected = msg.info.String()
		if m.form.memSet {
			return m, nil
		}
		gb := detect.RecommendGB(layers.MaxMemoryOptions, msg.info, layers.DefaultMaxMemoryGB)
		for i, opt := range layers.MaxMemoryOptions {
			if opt == gb {
				m.form.memIdx = i
			}
		}

	case balanceMsg:
		if msg.addr != m.form.address {
			return m, nil
		}
		if msg.err != nil {
			m.form.balance = nil
			m.form.balanceErr = msg.err
			return m, nil
		}
		octas := msg.octas
		m.form.balance = &octas
		m.form.balanceErr = nil
	}
	return m, nil
}
