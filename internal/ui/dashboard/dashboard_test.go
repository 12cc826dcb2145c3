// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/detect"
	"github.com/wavefy/dllm-tui/internal/indexer"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/ui/components"
	"github.com/wavefy/dllm-tui/internal/ui/styles"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

const testKey = "0x9bf49a6a0755f953811fce125f2683d50429c3bb49e074147e0089a52eae155f"

// =============================================================================
// FAKES
// =============================================================================

type fakeNode struct {
	started  control.StartRequest
	stopped  string
	stopErr  error // ctx.Err() seen by Stop
	startErr error
	suggest  control.SuggestResult

	suggestLayers, suggestMax int
}

func (f *fakeNode) Start(_ context.Context, r control.StartRequest) (*control.P2PStatus, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = r
	return &control.P2PStatus{Models: []control.ModelStatus{{Status: control.StatusReady, Model: r.Model, FromLayer: r.FromLayer, ToLayer: r.ToLayer}}}, nil
}

func (f *fakeNode) Stop(ctx context.Context, model string) (*control.P2PStatus, error) {
	f.stopped = model
	f.stopErr = ctx.Err()
	return &control.P2PStatus{Models: []control.ModelStatus{{Status: control.StatusStopped, Model: model}}}, nil
}

func (f *fakeNode) SuggestLayers(_ context.Context, _ string, n, maxLayers int) (*control.SuggestResult, error) {
	f.suggestLayers, f.suggestMax = n, maxLayers
	reply := f.suggest
	return &reply, nil
}

type fakeChain struct {
	balance   uint64
	funded    string
	deposited uint64
}

func (f *fakeChain) Balance(context.Context, string) (uint64, error) { return f.balance, nil }

func (f *fakeChain) Fund(_ context.Context, addr string, _ uint64) ([]string, error) {
	f.funded = addr
	return []string{"0xfund"}, nil
}

func (f *fakeChain) Deposit(_ context.Context, _ *wallet.Account, octas uint64) (string, error) {
	f.deposited = octas
	return "0xabc", nil
}

type fakeHistory struct {
	sessions []indexer.SessionCreated
	filters  []indexer.Filter
	pages    []indexer.Page
}

func (f *fakeHistory) Enabled() bool { return true }

func (f *fakeHistory) CreatedSessions(_ context.Context, flt indexer.Filter, p indexer.Page) ([]indexer.SessionCreated, error) {
	f.filters = append(f.filters, flt)
	f.pages = append(f.pages, p)
	start := min(p.Offset(), len(f.sessions))
	end := min(start+p.Limit(), len(f.sessions))
	return f.sessions[start:end], nil
}

func (f *fakeHistory) ClaimedRequests(context.Context, indexer.Filter, indexer.Page) ([]indexer.TokenClaimed, error) {
	return nil, nil
}

type mapKV map[string]string

func (kv mapKV) Get(k string) (string, bool, error) { v, ok := kv[k]; return v, ok, nil }
func (kv mapKV) Set(k, v string) error              { kv[k] = v; return nil }
func (kv mapKV) Delete(k string) error              { delete(kv, k); return nil }

// =============================================================================
// HELPERS
// =============================================================================

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func toasts(msgs []tea.Msg) []components.ToastMsg {
	var out []components.ToastMsg
	for _, m := range msgs {
		if t, ok := m.(components.ToastMsg); ok {
			out = append(out, t)
		}
	}
	return out
}

// run executes cmd and feeds its messages back into m, returning the
// messages the model did not consume.
func run(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var out []tea.Msg
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case components.ToastMsg, components.RefreshMsg:
			out = append(out, msg)
		default:
			var next tea.Cmd
			m, next = m.Update(msg)
			var rest []tea.Msg
			m, rest = run(m, next)
			out = append(out, rest...)
		}
	}
	return m, out
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return m.Update(msg)
}

type fixture struct {
	node    *fakeNode
	chain   *fakeChain
	history *fakeHistory
	kv      mapKV
	copied  string
}

func newTestModel(t *testing.T, cloud bool) (Model, *fixture) {
	t.Helper()
	fx := &fixture{node: &fakeNode{}, chain: &fakeChain{}, history: &fakeHistory{}, kv: mapKV{}}
	m := New(styles.NewTheme("dark"), Deps{
		Node:     fx.node,
		Chain:    fx.chain,
		History:  fx.history,
		Keys:     wallet.NewKeystore(fx.kv),
		Copy:     func(s string) error { fx.copied = s; return nil },
		Cloud:    cloud,
		PageSize: 2,
	})
	m.SetSize(100, 60)
	return m, fx
}

func activeStatus(addr string) *control.P2PStatus {
	return &control.P2PStatus{Models: []control.ModelStatus{{
		Status: control.StatusReady, Model: "llama32-1b", FromLayer: 0, ToLayer: 16,
		Wallet: control.WalletInfo{Address: addr},
	}}}
}

func intPtr(n int) *int { return &n }

// =============================================================================
// START FORM
// =============================================================================

func TestSuggest_Warning(t *testing.T) {
	m, fx := newTestModel(t, false)
	fx.node.suggest = control.SuggestResult{MinLayers: intPtr(16)}

	m, _ = press(m, "right") // llama32-1b
	m, _ = press(m, "down")
	m, _ = press(m, "down")
	m, cmd := press(m, "enter")
	require.True(t, m.form.suggesting)

	m, _ = run(m, cmd)
	assert.False(t, m.form.suggesting)
	assert.Equal(t, "Need at least 3GB of memory for 16 layers.", m.form.warning)
	assert.Equal(t, 16, fx.node.suggestMax)
	assert.Equal(t, layers.MaxLayersForMemory(layers.ModelSpec{ID: "llama32-1b", Layers: 16, MemoryGB: 3}, 8), fx.node.suggestLayers)
}

func TestSuggest_AppliesRange(t *testing.T) {
	m, fx := newTestModel(t, false)
	fx.node.suggest = control.SuggestResult{FromLayer: intPtr(4), ToLayer: intPtr(12)}

	m, _ = press(m, "right")
	m.focus = 2
	m, cmd := press(m, "enter")
	m, _ = run(m, cmd)

	assert.Empty(t, m.form.warning)
	assert.Equal(t, "4", m.form.from.Value())
	assert.Equal(t, "12", m.form.to.Value())
}

func TestSuggest_NeedsModel(t *testing.T) {
	m, _ := newTestModel(t, false)
	m.focus = 2
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "Please select a model first.", m.form.warning)
}

func TestStart_Validation(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.focus = 7

	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "Please select a model first.", m.form.err)

	m.focus = 0
	m, _ = press(m, "right")
	m.form.setRange(10, 5)
	m.focus = 7
	m, _ = press(m, "enter")
	assert.Equal(t, "end layer must be greater than start layer", m.form.err)

	m.form.setRange(0, 16)
	m, cmd = press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "Enter a private key or generate an account.", m.form.err)
	assert.Empty(t, fx.node.started.Model)
}

func TestStart_Success(t *testing.T) {
	m, fx := newTestModel(t, false)
	m, _ = press(m, "right")
	m.form.key.SetValue(testKey)
	m.focus = 7

	m, cmd := press(m, "enter")
	require.True(t, m.form.starting)
	m, out := run(m, cmd)

	assert.False(t, m.form.starting)
	assert.Equal(t, control.StartRequest{Model: "llama32-1b", FromLayer: 0, ToLayer: 16, PrivateKey: testKey}, fx.node.started)
	assert.Equal(t, testKey, fx.kv[wallet.KeyName])

	ts := toasts(out)
	require.Len(t, ts, 1)
	assert.Equal(t, "Started llama32-1b (layers 0 - 16)", ts[0].Message)
	assert.Contains(t, out, components.RefreshMsg{Source: components.SourceStatus})
	assert.True(t, m.status.HasModel("llama32-1b"))
}

func TestStart_Failure(t *testing.T) {
	m, fx := newTestModel(t, false)
	fx.node.startErr = errors.New("layers busy")
	m, _ = press(m, "right")
	m.form.key.SetValue(testKey)
	m.focus = 7

	m, cmd := press(m, "enter")
	m, out := run(m, cmd)
	assert.Equal(t, "layers busy", m.form.err)
	assert.Empty(t, toasts(out))
}

func TestGenerate(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.focus = 6

	m, cmd := press(m, "enter")
	m, out := run(m, cmd)

	require.NotEmpty(t, fx.kv[wallet.KeyName])
	assert.Equal(t, m.form.address, fx.chain.funded)
	assert.Equal(t, fx.kv[wallet.KeyName], m.form.key.Value())
	ts := toasts(out)
	require.Len(t, ts, 1)
	assert.Equal(t, "New account generated and private key saved", ts[0].Message)
	assert.True(t, m.form.needsFunds())
}

func TestNew_PrefillsStoredKey(t *testing.T) {
	kv := mapKV{wallet.KeyName: testKey}
	m := New(styles.NewTheme("dark"), Deps{Keys: wallet.NewKeystore(kv)})

	acct, err := wallet.FromHex(testKey)
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), m.form.address)
	assert.Equal(t, testKey, m.form.key.Value())
	assert.Equal(t, acct.Address(), m.WalletAddress())
}

func TestCapturing(t *testing.T) {
	m, _ := newTestModel(t, false)
	assert.False(t, m.Capturing())

	m.focus = 3
	m.syncInputFocus()
	assert.True(t, m.Capturing())

	m, _ = press(m, "5")
	assert.Equal(t, "05", m.form.from.Value())
}

// =============================================================================
// MODEL CARDS
// =============================================================================

func TestStop(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.SetStatus(activeStatus("0x1"))
	m.focus = 0

	m, cmd := press(m, "x")
	require.True(t, m.stopping["llama32-1b"])
	assert.Equal(t, "Stopping...", m.cardHint())

	m, out := run(m, cmd)
	assert.Equal(t, "llama32-1b", fx.node.stopped)
	ts := toasts(out)
	require.Len(t, ts, 1)
	assert.Equal(t, "Stopped llama32-1b", ts[0].Message)
	assert.False(t, m.stopping["llama32-1b"])
}

func TestRequestDeadlineStartsWhenCmdRuns(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.deps.Timeout = 20 * time.Millisecond
	m.SetStatus(activeStatus("0x1"))
	m.focus = 0
	var memErr error
	m.deps.Memory = func(ctx context.Context) (detect.MemoryInfo, error) {
		memErr = ctx.Err()
		return detect.MemoryInfo{}, nil
	}

	m, stop := press(m, "x")
	detectCmd := m.detectMemory()
	require.NotNil(t, stop)
	require.NotNil(t, detectCmd)
	time.Sleep(60 * time.Millisecond)

	run(m, stop)
	run(m, detectCmd)
	assert.Equal(t, "llama32-1b", fx.node.stopped)
	assert.NoError(t, fx.node.stopErr)
	assert.NoError(t, memErr)
}

func TestStop_IgnoredInCloudMode(t *testing.T) {
	m, _ := newTestModel(t, true)
	m.SetStatus(activeStatus("0x1"))

	_, cmd := press(m, "x")
	assert.Nil(t, cmd)
}

func TestDeposit(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.SetStatus(activeStatus("0x1"))

	m, _ = press(m, "d")
	require.Equal(t, "llama32-1b", m.depositFor)
	assert.True(t, m.Capturing())

	m.deposit.SetValue("1.5")
	m, cmd := press(m, "enter")
	ts := toasts(collect(cmd))
	require.Len(t, ts, 1)
	assert.Equal(t, "Invalid deposit amount", ts[0].Message)

	m.deposit.SetValue("100000000")
	m, cmd = press(m, "enter")
	ts = toasts(collect(cmd))
	require.Len(t, ts, 1)
	assert.Equal(t, "No private key stored. Generate or import an account first.", ts[0].Message)

	fx.kv[wallet.KeyName] = testKey
	m, cmd = press(m, "enter")
	require.True(t, m.depositing)
	m, out := run(m, cmd)

	assert.Equal(t, uint64(100000000), fx.chain.deposited)
	assert.Empty(t, m.depositFor)
	ts = toasts(out)
	require.Len(t, ts, 1)
	assert.Equal(t, "Deposit successful. Transaction hash: 0xabc", ts[0].Message)
}

func TestDeposit_Cancel(t *testing.T) {
	m, _ := newTestModel(t, false)
	m.SetStatus(activeStatus("0x1"))

	m, _ = press(m, "d")
	m, _ = press(m, "esc")
	assert.Empty(t, m.depositFor)
	assert.False(t, m.Capturing())
}

func TestCopyAddress(t *testing.T) {
	m, fx := newTestModel(t, false)
	m.SetStatus(activeStatus("0xfeed"))

	m, cmd := press(m, "c")
	_, out := run(m, cmd)
	assert.Equal(t, "0xfeed", fx.copied)
	ts := toasts(out)
	require.Len(t, ts, 1)
	assert.Equal(t, "Copied to clipboard", ts[0].Message)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_Paging(t *testing.T) {
	m, fx := newTestModel(t, true)
	fx.history.sessions = []indexer.SessionCreated{
		{SessionID: "s1", Owner: "0xaa"}, {SessionID: "s2", Owner: "0xaa"}, {SessionID: "s3", Owner: "0xbb"},
	}
	m.SetStatus(activeStatus("0xaa"))

	m, _ = run(m, m.PollHistory())
	require.True(t, m.history.sessLoaded)
	assert.Len(t, m.history.sessions, 2)
	assert.Equal(t, indexer.OwnerFilter("0xaa"), fx.history.filters[0])

	m, cmd := press(m, "]")
	require.NotNil(t, cmd)
	m, _ = run(m, cmd)
	assert.Equal(t, 1, m.history.sessPage.Index)
	require.Len(t, m.history.sessions, 1)
	assert.Equal(t, "s3", m.history.sessions[0].SessionID)

	// A short page has no next page.
	_, cmd = press(m, "]")
	assert.Nil(t, cmd)

	// A late answer for page 0 is dropped.
	m.history.apply(sessionsMsg{page: indexer.Page{Index: 0, Size: 2}, items: fx.history.sessions[:2]})
	assert.Equal(t, "s3", m.history.sessions[0].SessionID)

	view := m.View()
	assert.Contains(t, view, "Created Sessions")
	assert.Contains(t, view, "page 2")
}

func TestHistory_KeepsRowsOnError(t *testing.T) {
	m, _ := newTestModel(t, true)
	page := indexer.Page{Size: 2}
	m.history.apply(sessionsMsg{page: page, items: []indexer.SessionCreated{{SessionID: "s1"}}})
	m.history.apply(sessionsMsg{page: page, err: errors.New("indexer down")})

	assert.Len(t, m.history.sessions, 1)
	assert.EqualError(t, m.history.sessErr, "indexer down")
}

func TestPollHistory_NoAddress(t *testing.T) {
	m, _ := newTestModel(t, true)
	assert.Nil(t, m.PollHistory())
}

// =============================================================================
// VIEW
// =============================================================================

func TestView_EmptyStates(t *testing.T) {
	cloud, _ := newTestModel(t, true)
	view := cloud.View()
	assert.Contains(t, view, "Wait for a model to be assigned.")
	assert.NotContains(t, view, "Start a Model")

	local, _ := newTestModel(t, false)
	view = local.View()
	assert.Contains(t, view, "No active models. Start a new model to begin.")
	assert.Contains(t, view, "Calculate Suggests")
}

func TestView_FaucetNotice(t *testing.T) {
	m, fx := newTestModel(t, false)
	fx.kv[wallet.KeyName] = testKey
	m.form.address = wallet.NewKeystore(fx.kv).Address()

	assert.Contains(t, m.View(), wallet.FaucetWebURL)

	m, _ = run(m, m.fetchBalance(m.form.address))
	assert.Contains(t, m.View(), wallet.FaucetWebURL)

	fx.chain.balance = 5
	m, _ = run(m, m.fetchBalance(m.form.address))
	assert.NotContains(t, m.View(), wallet.FaucetWebURL)
}

func TestMemoryDetection_Preselects(t *testing.T) {
	m, _ := newTestModel(t, false)
	m.deps.Memory = func(context.Context) (detect.MemoryInfo, error) {
		return detect.MemoryInfo{Source: detect.SourceNvidia, Name: "NVIDIA Tesla T4", TotalMB: 16 * 1024}, nil
	}

	m, _ = run(m, m.detectMemory())
	assert.Equal(t, 16, m.form.memoryGB())
	assert.Contains(t, m.View(), "Detected NVIDIA Tesla T4 (16GB)")
}

func TestMemoryDetection_KeepsUserChoice(t *testing.T) {
	m, _ := newTestModel(t, false)
	m.deps.Memory = func(context.Context) (detect.MemoryInfo, error) {
		return detect.MemoryInfo{Source: detect.SourceNvidia, TotalMB: 24 * 1024}, nil
	}
	m.focus = 1
	m, _ = press(m, "right")
	chosen := m.form.memoryGB()

	m, _ = run(m, m.detectMemory())
	assert.Equal(t, chosen, m.form.memoryGB())
}
