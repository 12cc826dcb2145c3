// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package control

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/wavefy/dllm-tui/internal/httpapi"
)

// decodeStatus accepts both status shapes. Bodies carrying a "models" key are
// the multi-model form; anything else is the older flat form
//
//	{"model":{"model","from_layer","to_layer"}|null, "spent", "earned",
//	 "balance", "peers", "sessions", "status"}
//
// which is folded into a single ModelStatus.
func decodeStatus(data []byte) (*P2PStatus, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &P2PStatus{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &httpapi.ClientError{Type: httpapi.ErrTypeDecode, Message: "failed to decode status", Detail: "invalid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &httpapi.ClientError{Type: httpapi.ErrTypeDecode, Message: "failed to decode status", Detail: "expected an object"}
	}

	if root.Get("models").Exists() {
		var st P2PStatus
		if err := httpapi.Decode(data, &st); err != nil {
			return nil, err
		}
		if st.Models == nil {
			st.Models = []ModelStatus{}
		}
		return &st, nil
	}

	// An empty object is what start/stop return on some builds.
	if len(root.Map()) == 0 {
		return &P2PStatus{Models: []ModelStatus{}}, nil
	}

	return decodeLegacy(root), nil
}

func decodeLegacy(root gjson.Result) *P2PStatus {
	st := &P2PStatus{Legacy: true, Models: []ModelStatus{}}

	status := root.Get("status").String()
	model := root.Get("model")
	if status == StatusStopped || !model.IsObject() {
		return st
	}
	if status == "" {
		status = StatusReady
	}

	var peers Peers
	if p := root.Get("peers"); p.IsArray() {
		ids := []string{}
		for _, id := range p.Array() {
			ids = append(ids, id.String())
		}
		peers = Peers{IDs: ids}
	} else {
		peers = PeerCount(int(p.Int()))
	}

	wallet := WalletInfo{
		Spending: root.Get("spent").Uint(),
		Earning:  root.Get("earned").Uint(),
		Address:  root.Get("address").String(),
	}
	if b := root.Get("balance"); b.Exists() && b.Type != gjson.Null {
		v := b.Uint()
		wallet.Balance = &v
	}

	st.Models = append(st.Models, ModelStatus{
		Status:    status,
		Model:     model.Get("model").String(),
		FromLayer: int(model.Get("from_layer").Int()),
		ToLayer:   int(model.Get("to_layer").Int()),
		Peers:     peers,
		Sessions:  int(root.Get("sessions").Int()),
		Wallet:    wallet,
	})
	return st
}
