// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Show and edit the configuration file.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wavefy/dllm-tui/internal/config"
)

func handleConfig(_ context.Context, env *Env) error {
	flags := env.Args.Flags()

	switch sub := flags.Subcommand(); sub {
	case "", "show":
		return env.emit(CmdConfig, env.Config, func(w io.Writer) {
			fmt.Fprint(w, env.Config.String())
		})

	case "get":
		key, err := requirePositional(flags, 1, "key", "dllm config get endpoints.control_url")
		if err != nil {
			return err
		}
		val, err := env.Config.Get(key)
		if err != nil {
			return NewValidationError("key", key, err.Error())
		}
		return env.emit(CmdConfig, map[string]interface{}{"key": key, "value": val}, func(w io.Writer) {
			fmt.Fprintln(w, val)
		})

	case "set":
		key, err := requirePositional(flags, 1, "key", "dllm config set polling.status_interval 3s")
		if err != nil {
			return err
		}
		value, err := requirePositional(flags, 2, "value", "dllm config set "+key+" VALUE")
		if err != nil {
			return err
		}
		path, err := configSet(env.Args.ConfigPath, key, value)
		if err != nil {
			return err
		}
		return env.emit(CmdConfig, map[string]string{"key": key, "value": value, "path": path}, func(w io.Writer) {
			if !env.Args.Quiet {
				fmt.Fprintf(w, "%s %s = %s (%s)\n", SuccessStyle.Render("[OK]"), key, value, path)
			}
		})

	case "path":
		path, _, err := configFile(env.Args.ConfigPath)
		if err != nil {
			return err
		}
		return env.emit(CmdConfig, map[string]string{"path": path}, func(w io.Writer) {
			fmt.Fprintln(w, path)
		})

	case "init":
		path, _, err := configFile(env.Args.ConfigPath)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil && !flags.BoolFlag("force") {
			return NewUsageError(path+" already exists", "dllm config init --force")
		}
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return NewCommandError("config", "init", err)
		}
		return env.emit(CmdConfig, map[string]string{"path": path}, func(w io.Writer) {
			fmt.Fprintf(w, "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
		})

	case "keys":
		keys := config.Keys()
		return env.emit(CmdConfig, keys, func(w io.Writer) {
			fmt.Fprintln(w, strings.Join(keys, "\n"))
		})

	default:
		return NewUsageError("unknown config subcommand: "+sub, "dllm config [show|get|set|path|init|keys]")
	}
}

// configFile is the file `config set` and `config init` write: --config,
// else whichever default file exists, else config.toml.
func configFile(explicit string) (path string, isJSON bool, err error) {
	if explicit != "" {
		return explicit, strings.HasSuffix(strings.ToLower(explicit), ".json"), nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, false, nil
	}
	jsonPath, err := config.ConfigPathJSON()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, true, nil
	}
	return tomlPath, false, nil
}

// configSet edits the file itself rather than the effective config, so
// environment overrides are never written back.
func configSet(explicit, key, value string) (string, error) {
	path, isJSON, err := configFile(explicit)
	if err != nil {
		return "", err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if isJSON {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return "", NewCommandError("config", "set", err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return "", NewValidationError(key, value, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	if isJSON {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return "", NewCommandError("config", "set", err)
	}
	return path, nil
}
