// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"value":42}`))
	})
	r.Post("/echo", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		w.Write([]byte(`{"value":7}`))
	})
	r.Get("/text-error", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Model already started", http.StatusBadRequest)
	})
	r.Get("/json-error", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"no peers"}`))
	})
	r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRequester_GetAndPost(t *testing.T) {
	srv := newServer(t)
	r := NewRequester(srv.URL+"/", "prefix", nil, nil)

	var out struct{ Value int }
	require.NoError(t, r.GetJSON(context.Background(), "/ok", nil, &out))
	assert.Equal(t, 42, out.Value)

	require.NoError(t, r.PostJSON(context.Background(), "/echo", map[string]string{"a": "b"}, &out))
	assert.Equal(t, 7, out.Value)
}

func TestRequester_StatusErrors(t *testing.T) {
	srv := newServer(t)
	r := NewRequester(srv.URL, "Connection to vLLM control server failed", nil, nil)

	err := r.GetJSON(context.Background(), "/text-error", nil, &struct{}{})
	require.Error(t, err)
	assert.Equal(t, "Connection to vLLM control server failed: Model already started [400 Bad Request]", err.Error())
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	err = r.GetJSON(context.Background(), "/json-error", nil, &struct{}{})
	assert.Equal(t, "Connection to vLLM control server failed: no peers [500 Internal Server Error]", err.Error())

	r.QuoteBody = false
	err = r.GetJSON(context.Background(), "/text-error", nil, &struct{}{})
	assert.Equal(t, "Connection to vLLM control server failed: [400 Bad Request]", err.Error())
}

func TestRequester_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewRequester(url, "down", nil, nil)
	_, err := r.Do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.False(t, IsTimeout(err))
}

func TestRequester_Timeout(t *testing.T) {
	srv := newServer(t)
	r := NewRequester(srv.URL, "slow", nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Do(ctx, http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestDecodeError(t *testing.T) {
	err := Decode([]byte("not json"), &struct{}{})
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeDecode, ce.Type)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "", ErrorDetail([]byte("  ")))
	assert.Equal(t, "bad", ErrorDetail([]byte(`{"error":{"message":"bad"}}`)))
	assert.Equal(t, "plain", ErrorDetail([]byte("plain\n")))
}
