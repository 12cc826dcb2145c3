// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-interactive dllm commands.
//
// Every command supports --json, which wraps its result in JSONResponse.
// Handlers return errors instead of printing them; Main maps them to exit
// codes (see ExitCode).
//
// Usage:
//
//	dllm status
//	dllm start --model llama32-1b --memory 4
//	dllm wallet deposit 100000000
//	dllm watch --metrics-addr :9464
package cli
