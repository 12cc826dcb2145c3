// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the dllm client configuration.
//
// Supports both TOML and JSON configuration formats, with defaults,
// .env and environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointsConfig: control plane, chat, registry, indexer and Aptos URLs
//   - PollingConfig: refresh intervals for each polled source
//   - ChatConfig: default chat model, prompt and sampling
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the caller)
//   - Environment variables (DLLM_*, and the VITE_* names of the web client)
//   - .env in the working directory
//   - ~/.dllm/config.toml
//   - ~/.dllm/config.json
//   - Built-in defaults
//
// DLLM_HOME moves the whole ~/.dllm directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := control.NewClient(cfg.Endpoints.ControlURL)
package config
