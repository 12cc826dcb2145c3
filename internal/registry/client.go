// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry reads the swarm registry: which models the network
// supports and which nodes currently host which layers.
package registry

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/httpapi"
)

// DefaultBaseURL is the public registry.
const DefaultBaseURL = "https://registry.llm.wavefy.network"

// ErrorPrefix starts every registry error message.
const ErrorPrefix = "Connection to vLLM registry server failed"

// Client reads /api/health and /api/models.
type Client struct {
	req *httpapi.Requester
}

// NewClient creates a registry client. A nil httpClient gets the default
// timeout; a nil logger discards.
func NewClient(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger != nil {
		logger = logger.WithField("component", "registry")
	}
	r := httpapi.NewRequester(baseURL, ErrorPrefix, httpClient, logger)
	// The registry's error bodies are HTML from the proxy; only the status
	// line is shown.
	r.QuoteBody = false
	return &Client{req: r}
}

// Health returns the swarm health per model.
func (c *Client) Health(ctx context.Context) ([]SwarmHealth, error) {
	var out []SwarmHealth
	if err := c.req.GetJSON(ctx, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Nodes == nil {
			out[i].Nodes = []Node{}
		}
	}
	return out, nil
}

// Models returns the models the network supports.
func (c *Client) Models(ctx context.Context) ([]SupportedModel, error) {
	var out []SupportedModel
	if err := c.req.GetJSON(ctx, "/api/models", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Views fetches both endpoints and joins them.
func (c *Client) Views(ctx context.Context) ([]ModelView, error) {
	models, err := c.Models(ctx)
	if err != nil {
		return nil, err
	}
	health, err := c.Health(ctx)
	if err != nil {
		return nil, err
	}
	return Join(models, health), nil
}
