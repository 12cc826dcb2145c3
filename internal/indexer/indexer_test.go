// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

func newIndexer(t *testing.T, reply string, last *captured, hits *int32) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/v1/graphql", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		require.NoError(t, json.NewDecoder(req.Body).Decode(last))
		io.WriteString(w, reply)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreatedSessions(t *testing.T) {
	reply := `{"data":{"events":[
	  {"type":"x","data":{"owner":"0xowner","max_tokens":"1000","session_id":"17","price_per_token":"5","addresses":["0xa","0xb"],"layers":["16","16"],"ts":"1730000000"}}
	]}}`
	var last captured
	var hits int32
	srv := newIndexer(t, reply, &last, &hits)
	c := NewClient(srv.URL + "/v1/graphql")

	events, err := c.CreatedSessions(context.Background(), OwnerFilter("0xowner"), Page{Index: 2})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "0xowner", ev.Owner)
	assert.Equal(t, uint64(1000), ev.MaxTokens)
	assert.Equal(t, "17", ev.SessionID)
	assert.Equal(t, uint64(5), ev.PricePerToken)
	assert.Equal(t, []string{"0xa", "0xb"}, ev.Addresses)
	assert.Equal(t, []uint64{16, 16}, ev.Layers)
	assert.Equal(t, int64(1730000000), ev.Timestamp)

	assert.Equal(t, OpCreatedSessions, last.OperationName)
	assert.Contains(t, last.Query, `"`+DefaultContract+`::dllm::SessionCreated"`)
	assert.Contains(t, last.Query, "order_by: {transaction_version: desc}")
	assert.Equal(t, float64(20), last.Variables["offset"])
	assert.Equal(t, float64(10), last.Variables["limit"])
	assert.Equal(t, map[string]any{"owner": "0xowner"}, last.Variables["jsonFilter"])
}

func TestClaimedRequests(t *testing.T) {
	reply := `{"data":{"events":[
	  {"type":"x","data":{"owner":"0xo","claimer":"0xc","session_id":"3","token_count":42,"total_reward":"840","ts":1730000100}}
	]}}`
	var last captured
	var hits int32
	srv := newIndexer(t, reply, &last, &hits)
	c := NewClient(srv.URL+"/v1/graphql", WithContract("0x1", "market"))

	events, err := c.ClaimedRequests(context.Background(), ClaimerFilter("0xc"), Page{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(42), events[0].TokenCount)
	assert.Equal(t, uint64(840), events[0].TotalReward)
	assert.Equal(t, "0xc", events[0].Claimer)
	assert.True(t, strings.Contains(last.Query, `"0x1::market::TokenClaimed"`))
	assert.Equal(t, float64(0), last.Variables["offset"])
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	var last captured
	var hits int32
	srv := newIndexer(t, `{"data":{"events":[]}}`, &last, &hits)
	c := NewClient(srv.URL+"/v1/graphql", WithHTTPClient(nil), WithLogger(nil))

	events, err := c.CreatedSessions(context.Background(), OwnerFilter("0xa"), Page{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSkipsWithoutAddress(t *testing.T) {
	var last captured
	var hits int32
	srv := newIndexer(t, `{"data":{"events":[]}}`, &last, &hits)
	c := NewClient(srv.URL + "/v1/graphql")

	events, err := c.CreatedSessions(context.Background(), OwnerFilter(""), Page{})
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	events, err = NewClient("").CreatedSessions(context.Background(), OwnerFilter("0xa"), Page{})
	require.NoError(t, err)
	assert.Nil(t, events)
}

func TestGraphQLErrors(t *testing.T) {
	var last captured
	var hits int32
	srv := newIndexer(t, `{"errors":[{"message":"field 'events' not found"}]}`, &last, &hits)

	_, err := NewClient(srv.URL+"/v1/graphql").CreatedSessions(context.Background(), OwnerFilter("0xa"), Page{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'events' not found")
}

func TestPaging(t *testing.T) {
	p := Page{}
	assert.False(t, HasPrev(p))
	assert.Equal(t, p, p.Prev())

	p = p.Next().Next()
	assert.Equal(t, 2, p.Index)
	assert.Equal(t, 20, p.Offset())
	assert.True(t, HasPrev(p))

	assert.True(t, HasNext(10, p))
	assert.False(t, HasNext(9, p))
	assert.True(t, HasNext(5, Page{Size: 5}))
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "0x1::dllm::TokenClaimed", EventType("0x1", "dllm", EventTokenClaimed))
}
