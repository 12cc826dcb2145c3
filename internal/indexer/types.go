// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package indexer

import (
	"time"

	"github.com/tidwall/gjson"
)

// SessionCreated is emitted when a client opens a paid inference session.
type SessionCreated struct {
	Owner         string   `json:"owner"`
	MaxTokens     uint64   `json:"max_tokens"`
	SessionID     string   `json:"session_id"`
	PricePerToken uint64   `json:"price_per_token"`
	Addresses     []string `json:"addresses"`
	Layers        []uint64 `json:"layers"`
	Timestamp     int64    `json:"ts"`
}

// TokenClaimed is emitted when a node claims its reward for a session.
type TokenClaimed struct {
	Owner       string `json:"owner"`
	Claimer     string `json:"claimer"`
	SessionID   string `json:"session_id"`
	TokenCount  uint64 `json:"token_count"`
	TotalReward uint64 `json:"total_reward"`
	Timestamp   int64  `json:"ts"`
}

// Time converts the event's unix seconds.
func (e SessionCreated) Time() time.Time { return time.Unix(e.Timestamp, 0) }

// Time converts the event's unix seconds.
func (e TokenClaimed) Time() time.Time { return time.Unix(e.Timestamp, 0) }

// Move u64 values arrive as JSON strings; gjson reads both forms.

func parseSessionCreated(data gjson.Result) SessionCreated {
	ev := SessionCreated{
		Owner:         data.Get("owner").String(),
		MaxTokens:     data.Get("max_tokens").Uint(),
		SessionID:     data.Get("session_id").String(),
		PricePerToken: data.Get("price_per_token").Uint(),
		Timestamp:     data.Get("ts").Int(),
		Addresses:     []string{},
		Layers:        []uint64{},
	}
	for _, a := range data.Get("addresses").Array() {
		ev.Addresses = append(ev.Addresses, a.String())
	}
	for _, l := range data.Get("layers").Array() {
		ev.Layers = append(ev.Layers, l.Uint())
	}
	return ev
}

func parseTokenClaimed(data gjson.Result) TokenClaimed {
	return TokenClaimed{
		Owner:       data.Get("owner").String(),
		Claimer:     data.Get("claimer").String(),
		SessionID:   data.Get("session_id").String(),
		TokenCount:  data.Get("token_count").Uint(),
		TotalReward: data.Get("total_reward").Uint(),
		Timestamp:   data.Get("ts").Int(),
	}
}

// Filter is the JSON-contains predicate applied to event data.
type Filter map[string]string

// OwnerFilter matches events whose owner is addr.
func OwnerFilter(addr string) Filter { return Filter{"owner": addr} }

// ClaimerFilter matches claims made by addr.
func ClaimerFilter(addr string) Filter { return Filter{"claimer": addr} }

// Empty reports whether the filter has no usable address.
func (f Filter) Empty() bool {
	for _, v := range f {
		if v != "" {
			return false
		}
	}
	return true
}

// DefaultPageSize is the number of events per table page.
const DefaultPageSize = 10

// Page selects a window of events, newest first.
type Page struct {
	Index int
	Size  int
}

// Offset is the number of events skipped.
func (p Page) Offset() int {
	if p.Index < 0 {
		return 0
	}
	return p.Index * p.Limit()
}

// Limit is the page size, defaulting to DefaultPageSize.
func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// Next and Prev move the window.
func (p Page) Next() Page { return Page{Index: p.Index + 1, Size: p.Size} }

func (p Page) Prev() Page {
	if p.Index <= 0 {
		return p
	}
	return Page{Index: p.Index - 1, Size: p.Size}
}

// HasNext reports whether a full page came back, so another may follow.
func HasNext(n int, p Page) bool { return n >= p.Limit() }

// HasPrev reports whether p is past the first page.
func HasPrev(p Page) bool { return p.Index > 0 }
