// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - sessions and claims: on-chain history from the indexer.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wavefy/dllm-tui/internal/indexer"
	"github.com/wavefy/dllm-tui/internal/util"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

type historyPage[T any] struct {
	Filter  indexer.Filter `json:"filter"`
	Page    int            `json:"page"`
	Size    int            `json:"size"`
	HasNext bool           `json:"has_next"`
	Items   []T            `json:"items"`
}

// historyArgs resolves the filter and page for sessions/claims. ownField is
// the filter key used when only the node's own address is known.
func historyArgs(ctx context.Context, env *Env, ownField string) (indexer.Filter, indexer.Page, error) {
	flags := env.Args.Flags()

	page := indexer.Page{Size: env.Config.UI.HistoryPageSize}
	if n, ok, err := flags.FlagInt("page", "p"); err != nil {
		return nil, page, err
	} else if ok {
		if n < 1 {
			return nil, page, NewValidationError("page", fmt.Sprint(n), "pages start at 1")
		}
		page.Index = n - 1
	}

	switch {
	case flags.Flag("claimer") != "":
		return indexer.ClaimerFilter(flags.Flag("claimer")), page, nil
	case flags.Flag("owner") != "":
		return indexer.OwnerFilter(flags.Flag("owner")), page, nil
	}

	svc, err := env.Services()
	if err != nil {
		return nil, page, err
	}
	var addr string
	if st, err := svc.Control.Status(ctx); err == nil {
		addr = svc.WalletAddress(st)
	} else {
		addr = svc.Keys.Address()
	}
	return indexer.Filter{ownField: addr}, page, nil
}

func handleSessions(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	if !svc.Indexer.Enabled() {
		return NewUsageError("no indexer configured", "dllm --indexer-url URL sessions, or set endpoints.indexer_url")
	}
	filter, page, err := historyArgs(ctx, env, "owner")
	if err != nil {
		return err
	}
	items, err := svc.Indexer.CreatedSessions(ctx, filter, page)
	if err != nil {
		return NewCommandError("sessions", "", err)
	}
	out := historyPage[indexer.SessionCreated]{filter, page.Index + 1, page.Limit(), indexer.HasNext(len(items), page), items}
	if out.Items == nil {
		out.Items = []indexer.SessionCreated{}
	}

	return env.emit(CmdSessions, out, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("Created Sessions"))
		if filter.Empty() {
			fmt.Fprintln(w, DimStyle.Render("No wallet address yet."))
			return
		}
		if len(items) == 0 {
			fmt.Fprintln(w, DimStyle.Render("No sessions."))
			return
		}
		fmt.Fprintln(w, DimStyle.Render(sessionRow("SESSION", "OWNER", "MAX TOKENS", "PRICE/TOKEN", "NODES", "TIME")))
		for _, s := range items {
			fmt.Fprintln(w, sessionRow(
				s.SessionID,
				wallet.ShortenAddress(s.Owner),
				util.FormatCount(s.MaxTokens),
				util.FormatCount(s.PricePerToken),
				fmt.Sprint(len(s.Addresses)),
				util.FormatUnix(s.Timestamp),
			))
		}
		renderPager(w, out.Page, out.HasNext)
	})
}

func handleClaims(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	if !svc.Indexer.Enabled() {
		return NewUsageError("no indexer configured", "dllm --indexer-url URL claims, or set endpoints.indexer_url")
	}
	filter, page, err := historyArgs(ctx, env, "claimer")
	if err != nil {
		return err
	}
	items, err := svc.Indexer.ClaimedRequests(ctx, filter, page)
	if err != nil {
		return NewCommandError("claims", "", err)
	}
	out := historyPage[indexer.TokenClaimed]{filter, page.Index + 1, page.Limit(), indexer.HasNext(len(items), page), items}
	if out.Items == nil {
		out.Items = []indexer.TokenClaimed{}
	}

	return env.emit(CmdClaims, out, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("Claimed Requests"))
		if filter.Empty() {
			fmt.Fprintln(w, DimStyle.Render("No wallet address yet."))
			return
		}
		if len(items) == 0 {
			fmt.Fprintln(w, DimStyle.Render("No claims."))
			return
		}
		fmt.Fprintln(w, DimStyle.Render(sessionRow("SESSION", "OWNER", "CLAIMER", "TOKENS", "REWARD", "TIME")))
		for _, c := range items {
			fmt.Fprintln(w, sessionRow(
				c.SessionID,
				wallet.ShortenAddress(c.Owner),
				wallet.ShortenAddress(c.Claimer),
				util.FormatCount(c.TokenCount),
				wallet.FormatAPT(c.TotalReward, 5),
				util.FormatUnix(c.Timestamp),
			))
		}
		renderPager(w, out.Page, out.HasNext)
	})
}

func sessionRow(cols ...string) string {
	widths := []int{14, 14, 13, 12, 8, 19}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = util.PadRight(util.TruncateWidth(c, widths[i]), widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func renderPager(w io.Writer, page int, hasNext bool) {
	hint := fmt.Sprintf("page %d", page)
	if hasNext {
		hint += fmt.Sprintf(" · next: --page %d", page+1)
	}
	fmt.Fprintln(w, DimStyle.Render(hint))
}
