// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wavefy/dllm-tui/internal/indexer"
)

// history holds one page each of Created Sessions and Claimed Requests.
// Both are filtered on the owner field with the node's wallet address.
type history struct {
	sessPage  indexer.Page
	claimPage indexer.Page

	sessions []indexer.SessionCreated
	claims   []indexer.TokenClaimed

	sessErr  error
	claimErr error

	sessLoaded  bool
	claimLoaded bool
}

type sessionsMsg struct {
	page  indexer.Page
	items []indexer.SessionCreated
	err   error
}

type claimsMsg struct {
	page  indexer.Page
	items []indexer.TokenClaimed
	err   error
}

func newHistory(size int) history {
	return history{
		sessPage:  indexer.Page{Size: size},
		claimPage: indexer.Page{Size: size},
	}
}

func enabled(deps Deps) bool {
	return deps.History != nil && deps.History.Enabled()
}

func fetchSessions(deps Deps, addr string, page indexer.Page) tea.Cmd {
	if addr == "" || !enabled(deps) {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		items, err := deps.History.CreatedSessions(ctx, indexer.OwnerFilter(addr), page)
		return sessionsMsg{page: page, items: items, err: err}
	}
}

func fetchClaims(deps Deps, addr string, page indexer.Page) tea.Cmd {
	if addr == "" || !enabled(deps) {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		items, err := deps.History.ClaimedRequests(ctx, indexer.OwnerFilter(addr), page)
		return claimsMsg{page: page, items: items, err: err}
	}
}

// fetch reloads both current pages.
func (h *history) fetch(deps Deps, addr string) tea.Cmd {
	return tea.Batch(fetchSessions(deps, addr, h.sessPage), fetchClaims(deps, addr, h.claimPage))
}

// sessionsPage moves the sessions window. Next is only allowed after a full
// page; prev stops at the first page.
func (h *history) sessionsPage(delta int, deps Deps, addr string) tea.Cmd {
	switch {
	case delta > 0 && indexer.HasNext(len(h.sessions), h.sessPage):
		h.sessPage = h.sessPage.Next()
	case delta < 0 && indexer.HasPrev(h.sessPage):
		h.sessPage = h.sessPage.Prev()
	default:
		return nil
	}
	return fetchSessions(deps, addr, h.sessPage)
}

func (h *history) claimsPage(delta int, deps Deps, addr string) tea.Cmd {
	switch {
	case delta > 0 && indexer.HasNext(len(h.claims), h.claimPage):
		h.claimPage = h.claimPage.Next()
	case delta < 0 && indexer.HasPrev(h.claimPage):
		h.claimPage = h.claimPage.Prev()
	default:
		return nil
	}
	return fetchClaims(deps, addr, h.claimPage)
}

// apply stores a fetched page. Answers for a page no longer shown are
// dropped, and a failure keeps the rows already on screen.
func (h *history) apply(msg tea.Msg) {
	switch msg := msg.(type) {
	case sessionsMsg:
		if msg.page != h.sessPage {
			return
		}
		h.sessErr = msg.err
		if msg.err == nil {
			h.sessions = msg.items
			h.sessLoaded = true
		}
	case claimsMsg:
		if msg.page != h.claimPage {
			return
		}
		h.claimErr = msg.err
		if msg.err == nil {
			h.claims = msg.items
			h.claimLoaded = true
		}
	}
}
