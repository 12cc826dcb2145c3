// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/detect"
	"github.com/wavefy/dllm-tui/internal/indexer"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// Node is the control plane.
type Node interface {
	Start(ctx context.Context, r control.StartRequest) (*control.P2PStatus, error)
	Stop(ctx context.Context, model string) (*control.P2PStatus, error)
	SuggestLayers(ctx context.Context, model string, layers, maxLayers int) (*control.SuggestResult, error)
}

// Chain is the Aptos account API.
type Chain interface {
	Balance(ctx context.Context, addr string) (uint64, error)
	Fund(ctx context.Context, addr string, octas uint64) ([]string, error)
	Deposit(ctx context.Context, acct *wallet.Account, octas uint64) (string, error)
}

// History is the on-chain event indexer.
type History interface {
	Enabled() bool
	CreatedSessions(ctx context.Context, f indexer.Filter, p indexer.Page) ([]indexer.SessionCreated, error)
	ClaimedRequests(ctx context.Context, f indexer.Filter, p indexer.Page) ([]indexer.TokenClaimed, error)
}

// Keys stores the node's private key.
type Keys interface {
	Load() (*wallet.Account, error)
	Save(a *wallet.Account) error
	Import(hexKey string) (*wallet.Account, error)
	Address() string
}

// Deps are the dashboard's collaborators.
type Deps struct {
	Node    Node
	Chain   Chain
	History History
	Keys    Keys

	// Catalog lists the models the start form offers.
	Catalog func(ctx context.Context) []layers.ModelSpec

	// Copy writes to the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error

	// Memory detects the memory budget to preselect. Nil skips detection.
	Memory func(ctx context.Context) (detect.MemoryInfo, error)

	Cloud    bool
	PageSize int
	Timeout  time.Duration
	Logger   logrus.FieldLogger
}

func (d *Deps) setDefaults() {
	if d.Copy == nil {
		d.Copy = clipboard.WriteAll
	}
	if d.Catalog == nil {
		d.Catalog = func(context.Context) []layers.ModelSpec { return layers.DefaultCatalog() }
	}
	if d.PageSize <= 0 {
		d.PageSize = indexer.DefaultPageSize
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
}

func (d Deps) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.Timeout)
}
