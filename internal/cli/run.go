// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Command dispatch and the environment handlers run in.

package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/wavefy/dllm-tui/internal/app"
	"github.com/wavefy/dllm-tui/internal/config"
	"github.com/wavefy/dllm-tui/internal/logging"
)

// Env is what a command handler gets: parsed args, config, output streams
// and lazily opened services.
type Env struct {
	Args   Args
	Config *config.Config
	Log    *logrus.Logger

	Out io.Writer
	Err io.Writer
	In  io.Reader

	svc *app.Services
}

// NewEnv loads the configuration for args and applies the URL overrides.
func NewEnv(args Args) (*Env, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	log := logging.Discard()
	if args.Verbose {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.DebugLevel)
	}

	return &Env{
		Args:   args,
		Config: cfg,
		Log:    log,
		Out:    os.Stdout,
		Err:    os.Stderr,
		In:     os.Stdin,
	}, nil
}

// LoadConfig reads the config file named by --config (or the default
// location) and applies endpoint flags on top.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		value string
		dst   *string
	}{
		{args.ControlURL, &cfg.Endpoints.ControlURL},
		{args.RegistryURL, &cfg.Endpoints.RegistryURL},
		{args.IndexerURL, &cfg.Endpoints.IndexerURL},
		{args.ChatURL, &cfg.Endpoints.ChatURL},
	}
	changed := false
	for _, o := range overrides {
		if o.value != "" {
			*o.dst = o.value
			changed = true
		}
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Services opens the clients and local stores on first use.
func (e *Env) Services() (*app.Services, error) {
	if e.svc != nil {
		return e.svc, nil
	}
	svc, err := app.New(e.Config, e.Log)
	if err != nil {
		return nil, err
	}
	e.svc = svc
	return svc, nil
}

// Close releases whatever Services opened.
func (e *Env) Close() error {
	if e.svc == nil {
		return nil
	}
	return e.svc.Close()
}

// emit prints data as the JSON envelope in --json mode, otherwise calls
// human to render it.
func (e *Env) emit(cmd Command, data interface{}, human func(w io.Writer)) error {
	if e.Args.JSON {
		return NewJSONResponse(cmd.String(), data).Write(e.Out)
	}
	human(e.Out)
	return nil
}

// handler runs one command.
type handler func(ctx context.Context, env *Env) error

var handlers map[Command]handler

func init() {
	handlers = map[Command]handler{
		CmdStatus:   handleStatus,
		CmdStart:    handleStart,
		CmdStop:     handleStop,
		CmdSuggest:  handleSuggest,
		CmdHealth:   handleHealth,
		CmdModels:   handleModels,
		CmdSessions: handleSessions,
		CmdClaims:   handleClaims,
		CmdWallet:   handleWallet,
		CmdAsk:      handleAsk,
		CmdChats:    handleChats,
		CmdWatch:    handleWatch,
		CmdConfig:   handleConfig,
	}
}

// Run executes a non-TUI command.
func Run(ctx context.Context, cmd Command, env *Env) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(env.Out)
		return nil
	case CmdVersion:
		return env.emit(cmd, map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		}, PrintVersion)
	case CmdUnknown:
		return NewUsageError("unknown command: "+env.Args.Name, "dllm help")
	}

	h, ok := handlers[cmd]
	if !ok {
		return NewUsageError("command cannot run outside the TUI: "+cmd.String(), "dllm")
	}
	return h(ctx, env)
}

// Main runs cmd with args, prints any error and returns the exit code.
func Main(ctx context.Context, cmd Command, args Args) int {
	env, err := NewEnv(args)
	if err != nil {
		DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return ExitCode(err)
	}
	defer env.Close()

	if err := Run(ctx, cmd, env); err != nil {
		w := env.Err
		if args.JSON {
			w = env.Out
		}
		DisplayError(w, cmd.String(), err, args.JSON)
		return ExitCode(err)
	}
	return ExitSuccess
}
