// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - The --json envelope shared by every command.
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse wraps every --json result:
//
//	{"success": true, "data": {...}, "error": null, "timestamp": "...", "command": "status"}
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"` // RFC3339, UTC
	Command   string  `json:"command,omitempty"`
}

func newEnvelope(command string) *JSONResponse {
	return &JSONResponse{Timestamp: time.Now().UTC().Format(time.RFC3339), Command: command}
}

// NewJSONResponse wraps data from a successful command.
func NewJSONResponse(command string, data any) *JSONResponse {
	r := newEnvelope(command)
	r.Success, r.Data = true, data
	return r
}

// NewJSONErrorResponse wraps a failed command. Data stays null.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	r := newEnvelope(command)
	r.Error = &msg
	return r
}

// Write encodes the response as indented JSON.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
