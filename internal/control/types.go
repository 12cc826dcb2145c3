// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package control

import (
	"encoding/json"
	"strings"

	"github.com/wavefy/dllm-tui/internal/layers"
)

// Model status values reported by the control plane.
const (
	StatusReady      = "ready"
	StatusIncomplete = "incomplete"
	StatusStopped    = "stopped"
)

// P2PStatus is the control plane's view of every model this node serves.
type P2PStatus struct {
	Models []ModelStatus `json:"models"`

	// Legacy is set when the server answered with the older single-model
	// shape, which was normalized into Models.
	Legacy bool `json:"-"`
}

// ModelStatus is one hosted layer slice.
type ModelStatus struct {
	Status    string     `json:"status"`
	Model     string     `json:"model"`
	FromLayer int        `json:"from_layer"`
	ToLayer   int        `json:"to_layer"`
	Peers     Peers      `json:"peers"`
	Sessions  int        `json:"sessions"`
	Wallet    WalletInfo `json:"wallet"`
}

// WalletInfo is the on-chain account backing a model slice. Balances are in
// octas; nil means the node has not fetched them yet.
type WalletInfo struct {
	Spending     uint64  `json:"spending"`
	Earning      uint64  `json:"earning"`
	Balance      *uint64 `json:"balance,omitempty"`
	TopupBalance *uint64 `json:"topup_balance,omitempty"`
	Address      string  `json:"address"`
}

// Peers is either a list of peer ids or, from older servers, a bare count.
type Peers struct {
	IDs   []string
	count int
}

// Len is the number of connected peers.
func (p Peers) Len() int {
	if p.IDs != nil {
		return len(p.IDs)
	}
	return p.count
}

// PeerCount builds a Peers holding only a count.
func PeerCount(n int) Peers { return Peers{count: n} }

func (p *Peers) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*p = Peers{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		if ids == nil {
			ids = []string{}
		}
		*p = Peers{IDs: ids}
		return nil
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*p = Peers{count: n}
		return nil
	}
}

func (p Peers) MarshalJSON() ([]byte, error) {
	if p.IDs != nil {
		return json.Marshal(p.IDs)
	}
	return json.Marshal(p.count)
}

// Active reports whether the slice is running (ready or incomplete).
func (m ModelStatus) Active() bool {
	return m.Status != "" && m.Status != StatusStopped
}

// Range is the hosted slice as a layer range.
func (m ModelStatus) Range() layers.Range {
	return layers.Range{Start: m.FromLayer, End: m.ToLayer}
}

// Primary is the first reported model, used to pick the wallet whose
// on-chain history is shown.
func (s *P2PStatus) Primary() (ModelStatus, bool) {
	if s == nil || len(s.Models) == 0 {
		return ModelStatus{}, false
	}
	return s.Models[0], true
}

// Active returns the models that are not stopped.
func (s *P2PStatus) Active() []ModelStatus {
	if s == nil {
		return nil
	}
	var out []ModelStatus
	for _, m := range s.Models {
		if m.Active() {
			out = append(out, m)
		}
	}
	return out
}

// HasModel reports whether id is among the reported models.
func (s *P2PStatus) HasModel(id string) bool {
	if s == nil {
		return false
	}
	for _, m := range s.Models {
		if m.Model == id {
			return true
		}
	}
	return false
}

// OwnsAddress reports whether addr is one of this node's wallet addresses.
func (s *P2PStatus) OwnsAddress(addr string) bool {
	if s == nil || addr == "" {
		return false
	}
	for _, m := range s.Models {
		if strings.EqualFold(m.Wallet.Address, addr) {
			return true
		}
	}
	return false
}

// WalletAddress is the primary model's wallet address, or "".
func (s *P2PStatus) WalletAddress() string {
	m, ok := s.Primary()
	if !ok {
		return ""
	}
	return m.Wallet.Address
}

// StartRequest asks the node to host a layer slice of Model.
type StartRequest struct {
	Model      string `json:"model"`
	FromLayer  int    `json:"from_layer"`
	ToLayer    int    `json:"to_layer"`
	PrivateKey string `json:"private_key"`
}

type stopRequest struct {
	Model string `json:"model"`
}

// SuggestResult is the suggest_layers reply.
type SuggestResult = layers.SuggestReply
