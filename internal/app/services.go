// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the service clients and local stores from a Config.
// Both the TUI and the CLI commands start from a Services value.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/config"
	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/indexer"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/logging"
	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// Services holds one client per external service plus the local stores.
type Services struct {
	Config *config.Config
	Log    logrus.FieldLogger

	Control  *control.Client
	Registry *registry.Client
	Indexer  *indexer.Client
	Chat     *openai.Client
	Aptos    *wallet.Client

	KV    *storage.KV
	Keys  *wallet.Keystore
	Chats *storage.ChatStore
}

// New builds the clients and opens the local stores under the config dir.
func New(cfg *config.Config, log logrus.FieldLogger) (*Services, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log = logging.OrDiscard(log)
	hc := &http.Client{Timeout: cfg.Polling.RequestTimeout.Duration}

	s := &Services{
		Config: cfg,
		Log:    log,
		Control: control.NewClientWithConfig(&control.ClientConfig{
			BaseURL:    cfg.Endpoints.ControlURL,
			HTTPClient: hc,
			Logger:     log,
		}),
		Registry: registry.NewClient(cfg.Endpoints.RegistryURL, hc, log),
		Indexer: indexer.NewClient(cfg.Endpoints.IndexerURL,
			indexer.WithContract(cfg.Contract.Address, cfg.Contract.Module),
			indexer.WithHTTPClient(hc),
			indexer.WithLogger(log),
		),
		Chat: openai.NewClient(cfg.Endpoints.ChatURL, log),
		Aptos: wallet.NewClient(wallet.Config{
			NodeURL:    cfg.Endpoints.AptosNodeURL,
			FaucetURL:  cfg.Endpoints.AptosFaucetURL,
			Contract:   cfg.Contract.Address,
			Module:     cfg.Contract.Module,
			HTTPClient: hc,
			Logger:     log,
		}),
	}

	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	kvPath, err := config.KVPath()
	if err != nil {
		return nil, err
	}
	if s.KV, err = storage.OpenKV(kvPath); err != nil {
		return nil, err
	}
	s.Keys = wallet.NewKeystore(s.KV)

	chatsDir, err := config.ChatsDir()
	if err != nil {
		s.KV.Close()
		return nil, err
	}
	if s.Chats, err = storage.NewChatStore(chatsDir); err != nil {
		s.KV.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the local database.
func (s *Services) Close() error {
	if s == nil || s.KV == nil {
		return nil
	}
	return s.KV.Close()
}

// Catalog returns the registry's supported models, or the built-in catalog
// when the registry cannot be reached or lists nothing.
func (s *Services) Catalog(ctx context.Context) []layers.ModelSpec {
	models, err := s.Registry.Models(ctx)
	if err != nil || len(models) == 0 {
		if err != nil {
			s.Log.WithError(err).Debug("using built-in model catalog")
		}
		return layers.DefaultCatalog()
	}
	return registry.Catalog(models)
}

// Account returns the stored wallet account, or nil when there is none.
func (s *Services) Account() (*wallet.Account, error) {
	acct, err := s.Keys.Load()
	if errors.Is(err, wallet.ErrNoKey) {
		return nil, nil
	}
	return acct, err
}

// WalletAddress prefers the address the node reports, falling back to the
// locally stored key.
func (s *Services) WalletAddress(st *control.P2PStatus) string {
	if addr := st.WalletAddress(); addr != "" {
		return addr
	}
	return s.Keys.Address()
}

// ChatOptions returns the stored chat options, or the config's chat section
// until the user has saved their own.
func (s *Services) ChatOptions() storage.ChatOptions {
	if _, ok, err := s.KV.Get(storage.ChatOptionsKey); err == nil && ok {
		return storage.LoadChatOptions(s.KV)
	}
	c := s.Config.Chat
	return storage.ChatOptions{
		SelectedModel: c.Model,
		SystemPrompt:  c.SystemPrompt,
		Temperature:   c.Temperature,
		MaxTokens:     c.MaxTokens,
	}
}
