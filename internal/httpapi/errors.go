// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeDecode
	ErrTypeInvalidInput
	ErrTypeRemote
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "http_status"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeInvalidInput:
		return "invalid_input"
	case ErrTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ClientError is returned by every dllm HTTP client.
//
// For ErrTypeStatus, Status and StatusText carry the response line and Detail
// the server's explanation (a JSON "error" field or the trimmed text body).
type ClientError struct {
	Type       ErrorType
	Message    string
	Status     int
	StatusText string
	Detail     string
	Cause      error
}

func (e *ClientError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Type == ErrTypeStatus {
		b.WriteString(":")
		if e.Detail != "" {
			b.WriteString(" ")
			b.WriteString(e.Detail)
		}
		fmt.Fprintf(&b, " [%d %s]", e.Status, e.StatusText)
		return b.String()
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrTimeout) works for
// any timeout from any client.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeConnection}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout}
)

// IsUnreachable reports whether err is a transport failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrTypeStatus {
		return ce.Status
	}
	return 0
}

// InvalidInput builds an ErrTypeInvalidInput error.
func InvalidInput(msg string) *ClientError {
	return &ClientError{Type: ErrTypeInvalidInput, Message: msg}
}
