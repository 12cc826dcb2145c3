// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package indexer queries the GraphQL indexer for the on-chain events of the
// dllm contract: sessions opened by an owner and rewards claimed by a node.
package indexer

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/wavefy/dllm-tui/internal/httpapi"
)

// ErrorPrefix starts every indexer error message.
const ErrorPrefix = "Indexer query failed"

// Client posts GraphQL queries to one endpoint.
type Client struct {
	req      *httpapi.Requester
	contract string
	module   string
}

// Option configures a Client.
type Option func(*Client)

// WithContract overrides the contract address and module name.
func WithContract(address, module string) Option {
	return func(c *Client) {
		if address != "" {
			c.contract = address
		}
		if module != "" {
			c.module = module
		}
	}
}

// WithHTTPClient sets the transport. A nil client keeps the default.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.req.HTTPClient = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.req.Logger = l.WithField("component", "indexer")
		}
	}
}

// NewClient creates a client for the GraphQL endpoint url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		req:      httpapi.NewRequester(url, ErrorPrefix, nil, nil),
		contract: DefaultContract,
		module:   DefaultModule,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.req.BaseURL != ""
}

type gqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// CreatedSessions lists SessionCreated events matching f.
func (c *Client) CreatedSessions(ctx context.Context, f Filter, p Page) ([]SessionCreated, error) {
	events, err := c.events(ctx, OpCreatedSessions, EventSessionCreated, f, p)
	if err != nil || events == nil {
		return nil, err
	}
	out := make([]SessionCreated, 0, len(events))
	for _, ev := range events {
		out = append(out, parseSessionCreated(ev))
	}
	return out, nil
}

// ClaimedRequests lists TokenClaimed events matching f.
func (c *Client) ClaimedRequests(ctx context.Context, f Filter, p Page) ([]TokenClaimed, error) {
	events, err := c.events(ctx, OpClaimedRequests, EventTokenClaimed, f, p)
	if err != nil || events == nil {
		return nil, err
	}
	out := make([]TokenClaimed, 0, len(events))
	for _, ev := range events {
		out = append(out, parseTokenClaimed(ev))
	}
	return out, nil
}

// events runs one query and returns each event's data object. A filter
// without an address skips the request and yields nil.
func (c *Client) events(ctx context.Context, op, event string, f Filter, p Page) ([]gjson.Result, error) {
	if f.Empty() || !c.Enabled() {
		return nil, nil
	}

	body := gqlRequest{
		Query:         EventsQuery(op, EventType(c.contract, c.module, event)),
		OperationName: op,
		Variables: map[string]any{
			"jsonFilter": f,
			"limit":      p.Limit(),
			"offset":     p.Offset(),
		},
	}
	data, err := c.req.Do(ctx, http.MethodPost, "", nil, body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, &httpapi.ClientError{Type: httpapi.ErrTypeDecode, Message: ErrorPrefix, Detail: "invalid JSON"}
	}

	root := gjson.ParseBytes(data)
	if errs := root.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, &httpapi.ClientError{
			Type:    httpapi.ErrTypeRemote,
			Message: ErrorPrefix,
			Detail:  errs.Array()[0].Get("message").String(),
		}
	}

	out := []gjson.Result{}
	for _, ev := range root.Get("data.events").Array() {
		out = append(out, ev.Get("data"))
	}
	return out, nil
}
