// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - status, start, stop and suggest: the node's control plane.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wavefy/dllm-tui/internal/control"
	"github.com/wavefy/dllm-tui/internal/detect"
	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

// =============================================================================
// STATUS
// =============================================================================

func handleStatus(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	st, err := svc.Control.Status(ctx)
	if err != nil {
		return NewCommandError("status", "", err)
	}
	return env.emit(CmdStatus, st, func(w io.Writer) {
		renderStatus(w, svc.Control.BaseURL(), st, env.Config.IsCloud())
	})
}

func renderStatus(w io.Writer, node string, st *control.P2PStatus, cloud bool) {
	fmt.Fprintln(w, TitleStyle.Render("Active Models")+" "+DimStyle.Render(node))
	if len(st.Models) == 0 {
		if cloud {
			fmt.Fprintln(w, DimStyle.Render("Wait for a model to be assigned."))
		} else {
			fmt.Fprintln(w, DimStyle.Render("No active models. Start a new model to begin."))
		}
		return
	}
	for _, m := range st.Models {
		renderModelStatus(w, m)
	}
}

func renderModelStatus(w io.Writer, m control.ModelStatus) {
	fmt.Fprintln(w)
	name := m.Model
	if name == "" {
		name = "(no model)"
	}
	fmt.Fprintf(w, "%s  %s\n", ValueStyle.Bold(true).Render(name), RenderModelStatus(m.Status))
	if !m.Active() {
		return
	}
	fmt.Fprintln(w, RenderField("Layers", m.Range().String()))
	fmt.Fprintln(w, RenderField("Peers", strconv.Itoa(m.Peers.Len())))
	fmt.Fprintln(w, RenderField("Sessions", strconv.Itoa(m.Sessions)))
	fmt.Fprintln(w, RenderField("Balance", wallet.FormatOptionalAPT(m.Wallet.Balance, 5)+" APT"))
	fmt.Fprintln(w, RenderField("Top-up", wallet.FormatOptionalAPT(m.Wallet.TopupBalance, 5)+" APT"))
	fmt.Fprintln(w, RenderField("Spending", wallet.FormatAPT(m.Wallet.Spending, 5)+" APT"))
	fmt.Fprintln(w, RenderField("Earning", wallet.FormatAPT(m.Wallet.Earning, 5)+" APT"))
	if m.Wallet.Address != "" {
		fmt.Fprintln(w, RenderField("Wallet", wallet.ShortenAddress(m.Wallet.Address)))
	}
}

// =============================================================================
// START / STOP
// =============================================================================

func handleStart(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	svc, err := env.Services()
	if err != nil {
		return err
	}

	model := flags.Flag("model", "m")
	if model == "" {
		return layers.ErrNoModel
	}
	spec, ok := layers.Find(svc.Catalog(ctx), model)
	if !ok {
		return NewValidationError("model", model, "not a supported model (see dllm models)")
	}

	from, hasFrom, err := flags.FlagInt("from")
	if err != nil {
		return err
	}
	to, hasTo, err := flags.FlagInt("to")
	if err != nil {
		return err
	}
	if !hasFrom || !hasTo {
		sug, err := suggest(ctx, env, spec)
		if err != nil {
			return err
		}
		if !sug.OK {
			return NewCommandError("start", "suggest", errors.New(sug.Warning))
		}
		from, to = sug.From, sug.To
	}
	if err := layers.ValidateRange(spec, from, to); err != nil {
		return NewValidationError("layers", layers.Range{Start: from, End: to}.String(), err.Error())
	}

	acct, err := startAccount(env, flags.Flag("key"))
	if err != nil {
		return err
	}

	st, err := svc.Control.Start(ctx, control.StartRequest{
		Model:      spec.ID,
		FromLayer:  from,
		ToLayer:    to,
		PrivateKey: acct.Hex(),
	})
	if err != nil {
		return NewCommandError("start", spec.ID, err)
	}
	env.Log.WithField("model", spec.ID).WithField("layers", layers.Range{Start: from, End: to}.String()).Info("started")
	return env.emit(CmdStart, st, func(w io.Writer) {
		if !env.Args.Quiet {
			fmt.Fprintf(w, "%s hosting %s layers %d - %d\n", SuccessStyle.Render("[OK]"), spec.ID, from, to)
		}
		renderStatus(w, svc.Control.BaseURL(), st, env.Config.IsCloud())
	})
}

// startAccount picks --key, or the stored account.
func startAccount(env *Env, key string) (*wallet.Account, error) {
	if key != "" {
		return wallet.FromHex(key)
	}
	svc, err := env.Services()
	if err != nil {
		return nil, err
	}
	acct, err := svc.Account()
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, NewUsageError("no private key stored", "dllm wallet new --fund, or dllm start --key HEX")
	}
	return acct, nil
}

func handleStop(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	model := env.Args.Flags().Flag("model", "m")

	var (
		st      *control.P2PStatus
		stopped []string
	)
	if model != "" {
		st, err = svc.Control.Stop(ctx, model)
		stopped = []string{model}
	} else {
		st, stopped, err = svc.Control.StopActive(ctx)
	}
	if err != nil {
		return NewCommandError("stop", model, err)
	}
	env.Log.WithField("models", stopped).Info("stopped")

	return env.emit(CmdStop, st, func(w io.Writer) {
		if !env.Args.Quiet {
			if len(stopped) == 0 {
				fmt.Fprintln(w, DimStyle.Render("Nothing to stop."))
			} else {
				fmt.Fprintf(w, "%s stopped %s\n", SuccessStyle.Render("[OK]"), strings.Join(stopped, ", "))
			}
		}
		renderStatus(w, svc.Control.BaseURL(), st, env.Config.IsCloud())
	})
}

// =============================================================================
// SUGGEST
// =============================================================================

type suggestOutput struct {
	Model       string  `json:"model"`
	MemoryGB    float64 `json:"memory_gb"`
	MaxLayers   int     `json:"max_layers"`
	TotalLayers int     `json:"total_layers"`
	FromLayer   *int    `json:"from_layer,omitempty"`
	ToLayer     *int    `json:"to_layer,omitempty"`
	Warning     string  `json:"warning,omitempty"`
}

// memoryBudget is --memory, else the detected budget, else the default.
func memoryBudget(ctx context.Context, env *Env) (float64, error) {
	mem, ok, err := env.Args.Flags().FlagFloat("memory")
	if err != nil {
		return 0, err
	}
	if ok && mem > 0 {
		return mem, nil
	}
	info, err := detect.MemoryCached(ctx)
	if err != nil {
		env.Log.WithError(err).Debug("memory detection failed")
		return layers.DefaultMaxMemoryGB, nil
	}
	return float64(detect.RecommendGB(layers.MaxMemoryOptions, info, layers.DefaultMaxMemoryGB)), nil
}

// suggest asks the control plane for a range that fits --memory.
func suggest(ctx context.Context, env *Env, spec layers.ModelSpec) (layers.Suggestion, error) {
	mem, err := memoryBudget(ctx, env)
	if err != nil {
		return layers.Suggestion{}, err
	}
	svc, err := env.Services()
	if err != nil {
		return layers.Suggestion{}, err
	}
	reply, err := svc.Control.SuggestLayers(ctx, spec.ID, layers.MaxLayersForMemory(spec, mem), spec.Layers)
	if err != nil {
		return layers.Suggestion{}, NewCommandError("suggest", spec.ID, err)
	}
	return layers.Interpret(spec, *reply), nil
}

func handleSuggest(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	svc, err := env.Services()
	if err != nil {
		return err
	}
	model := flags.Flag("model", "m")
	if model == "" {
		return layers.ErrNoModel
	}
	spec, ok := layers.Find(svc.Catalog(ctx), model)
	if !ok {
		return NewValidationError("model", model, "not a supported model (see dllm models)")
	}
	mem, err := memoryBudget(ctx, env)
	if err != nil {
		return err
	}

	sug, err := suggest(ctx, env, spec)
	if err != nil {
		return err
	}
	out := suggestOutput{
		Model:       spec.ID,
		MemoryGB:    mem,
		MaxLayers:   layers.MaxLayersForMemory(spec, mem),
		TotalLayers: spec.Layers,
		Warning:     sug.Warning,
	}
	if sug.OK {
		out.FromLayer, out.ToLayer = &sug.From, &sug.To
	}
	return env.emit(CmdSuggest, out, func(w io.Writer) {
		fmt.Fprintln(w, RenderField("Model", fmt.Sprintf("%s (%d layers, %gGB)", spec.ID, spec.Layers, spec.MemoryGB)))
		fmt.Fprintln(w, RenderField("Memory", fmt.Sprintf("%gGB fits %d layers", mem, out.MaxLayers)))
		if sug.OK {
			fmt.Fprintln(w, RenderField("Suggested", layers.Range{Start: sug.From, End: sug.To}.String()))
			fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("dllm start --model %s --from %d --to %d", spec.ID, sug.From, sug.To)))
			return
		}
		fmt.Fprintln(w, WarningStyle.Render(sug.Warning))
	})
}
