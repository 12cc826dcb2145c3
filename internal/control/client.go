// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package control is the client for the node's local control plane, the
// /v1/p2p/* endpoints that start, stop and report hosted layer slices.
package control

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/httpapi"
)

// DefaultBaseURL is where a locally started node listens.
const DefaultBaseURL = "http://localhost:18888"

// ErrorPrefix starts every control-plane error message.
const ErrorPrefix = "Connection to vLLM control server failed"

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the control client.
type ClientConfig struct {
	// BaseURL is the control plane base path (default: http://localhost:18888)
	BaseURL string

	// Timeout for each request (default: 10s)
	Timeout time.Duration

	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client

	Logger logrus.FieldLogger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: httpapi.DefaultTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one node's control plane. It is safe for concurrent use.
//
// Example:
//
//	c := control.NewClient("http://localhost:18888")
//	st, err := c.Status(ctx)
type Client struct {
	req *httpapi.Requester
}

// NewClient creates a client with default settings for baseURL.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client, filling zero values with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = httpapi.DefaultTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger != nil {
		logger = logger.WithField("component", "control")
	}
	return &Client{
		req: httpapi.NewRequester(config.BaseURL, ErrorPrefix, httpClient, logger),
	}
}

// BaseURL returns the configured base path.
func (c *Client) BaseURL() string {
	return c.req.BaseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Status fetches GET /v1/p2p/status.
func (c *Client) Status(ctx context.Context) (*P2PStatus, error) {
	data, err := c.req.Do(ctx, http.MethodGet, "/v1/p2p/status", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeStatus(data)
}

// Start asks the node to host a slice. Range checks are left to the caller;
// the server rejects a second start of a running model with a status error.
func (c *Client) Start(ctx context.Context, r StartRequest) (*P2PStatus, error) {
	if strings.TrimSpace(r.Model) == "" {
		return nil, httpapi.InvalidInput("model is required")
	}
	data, err := c.req.Do(ctx, http.MethodPost, "/v1/p2p/start", nil, r)
	if err != nil {
		return nil, err
	}
	return decodeStatus(data)
}

// Stop stops the slice for model. Multi-model servers require the name; an
// empty model sends an empty object, which only legacy single-model servers
// accept. Use StopActive when the name is not known.
func (c *Client) Stop(ctx context.Context, model string) (*P2PStatus, error) {
	var body any = struct{}{}
	if model != "" {
		body = stopRequest{Model: model}
	}
	data, err := c.req.Do(ctx, http.MethodPost, "/v1/p2p/stop", nil, body)
	if err != nil {
		return nil, err
	}
	return decodeStatus(data)
}

// StopActive stops every active model by name and returns the names it
// stopped with the last reply. A legacy node has one unnamed slice and gets
// the empty body instead. With nothing running it returns the current status.
func (c *Client) StopActive(ctx context.Context) (*P2PStatus, []string, error) {
	st, err := c.Status(ctx)
	if err != nil {
		return nil, nil, err
	}
	if st.Legacy {
		if len(st.Active()) == 0 {
			return st, nil, nil
		}
		name := st.Models[0].Model
		st, err = c.Stop(ctx, "")
		if err != nil {
			return nil, nil, err
		}
		return st, []string{name}, nil
	}

	var stopped []string
	for _, m := range st.Active() {
		next, err := c.Stop(ctx, m.Model)
		if err != nil {
			return nil, stopped, fmt.Errorf("stop %s: %w", m.Model, err)
		}
		st = next
		stopped = append(stopped, m.Model)
	}
	return st, stopped, nil
}

// SuggestLayers asks which layers this node should host given it can fit
// layers of a model with maxLayers layers in total.
func (c *Client) SuggestLayers(ctx context.Context, model string, layers, maxLayers int) (*SuggestResult, error) {
	if model == "" {
		return nil, httpapi.InvalidInput("Please select a model first.")
	}
	q := url.Values{}
	q.Set("model", model)
	q.Set("layers", strconv.Itoa(layers))
	q.Set("max_layers", strconv.Itoa(maxLayers))

	var out SuggestResult
	if err := c.req.GetJSON(ctx, "/v1/p2p/suggest_layers", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
