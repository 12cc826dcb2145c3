// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package httpapi is the JSON-over-HTTP plumbing shared by the control plane,
// registry, indexer, Aptos and chat clients.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/wavefy/dllm-tui/internal/logging"
)

// DefaultTimeout bounds non-streaming requests.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error body is quoted back to the user.
const maxErrorBody = 512

// Requester issues requests against one base URL.
type Requester struct {
	// BaseURL is joined with request paths; a trailing slash is ignored.
	BaseURL string

	// ErrorPrefix starts every error message, e.g.
	// "Connection to vLLM control server failed".
	ErrorPrefix string

	// QuoteBody includes the server's explanation in status errors.
	QuoteBody bool

	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// NewRequester fills defaults for a zero HTTP client or logger.
func NewRequester(baseURL, errorPrefix string, httpClient *http.Client, logger logrus.FieldLogger) *Requester {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Requester{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		ErrorPrefix: errorPrefix,
		QuoteBody:   true,
		HTTPClient:  httpClient,
		Logger:      logging.OrDiscard(logger),
	}
}

// URL joins path and query onto the base URL.
func (r *Requester) URL(path string, query url.Values) string {
	u := r.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do sends a request. body is JSON-encoded unless it is nil. The response
// body is returned only for 2xx statuses; anything else is a *ClientError.
func (r *Requester) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	resp, err := r.Open(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, r.transportError(err)
	}
	return data, nil
}

// Open is Do for streaming callers: on success the caller owns resp.Body.
func (r *Requester) Open(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidInput, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	target := r.URL(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: r.ErrorPrefix, Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.HTTPClient.Do(req)
	fields := logrus.Fields{"method": method, "url": target, "duration": time.Since(start).String()}
	if err != nil {
		r.Logger.WithFields(fields).WithError(err).Warn("request failed")
		return nil, r.transportError(err)
	}
	fields["status"] = resp.StatusCode
	r.Logger.WithFields(fields).Debug("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, r.statusError(resp.StatusCode, data)
	}
	return resp, nil
}

// GetJSON decodes a GET response into out.
func (r *Requester) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := r.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return Decode(data, out)
}

// PostJSON sends in and decodes the response into out (skipped when out is nil).
func (r *Requester) PostJSON(ctx context.Context, path string, in, out any) error {
	data, err := r.Do(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return Decode(data, out)
}

// Decode unmarshals data, wrapping failures as ErrTypeDecode.
func Decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeDecode, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func (r *Requester) transportError(err error) *ClientError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: r.ErrorPrefix, Detail: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: r.ErrorPrefix, Cause: err}
}

func (r *Requester) statusError(status int, body []byte) *ClientError {
	ce := &ClientError{
		Type:       ErrTypeStatus,
		Message:    r.ErrorPrefix,
		Status:     status,
		StatusText: http.StatusText(status),
	}
	if r.QuoteBody {
		ce.Detail = ErrorDetail(body)
	}
	return ce
}

// ErrorDetail extracts a human explanation from an error body: the "error"
// or "message" field of a JSON object, else the trimmed text.
func ErrorDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if gjson.ValidBytes(trimmed) {
		parsed := gjson.ParseBytes(trimmed)
		for _, key := range []string{"error.message", "error", "message"} {
			if v := parsed.Get(key); v.Exists() && v.Type == gjson.String {
				return v.String()
			}
		}
	}
	text := string(trimmed)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
