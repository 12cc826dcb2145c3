// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// swarm_cmd.go - health and models: the registry's view of the swarm.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wavefy/dllm-tui/internal/layers"
	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/registry"
	"github.com/wavefy/dllm-tui/internal/util"
)

func handleHealth(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	views, err := svc.Registry.Views(ctx)
	if err != nil {
		return NewCommandError("health", "", err)
	}
	return env.emit(CmdHealth, views, func(w io.Writer) {
		renderSupported(w, views)
		for _, v := range views {
			renderSwarm(w, v)
		}
	})
}

func handleModels(ctx context.Context, env *Env) error {
	svc, err := env.Services()
	if err != nil {
		return err
	}
	if env.Args.Flags().BoolFlag("served") {
		return servedModels(ctx, env, svc.Chat)
	}
	views, err := svc.Registry.Views(ctx)
	if err != nil {
		return NewCommandError("models", "", err)
	}

	type modelRow struct {
		ID       string  `json:"id"`
		Layers   int     `json:"layers"`
		MemoryGB float64 `json:"memory"`
		Nodes    int     `json:"nodes"`
		Complete bool    `json:"complete"`
	}
	rows := make([]modelRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, modelRow{v.Spec.ID, v.Spec.Layers, v.Spec.Memory, len(v.Nodes), v.Covered})
	}

	return env.emit(CmdModels, rows, func(w io.Writer) {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			util.PadRight("MODEL", 22), util.PadLeft("LAYERS", 6), util.PadLeft("MEMORY", 7),
			util.PadLeft("NODES", 5), "SWARM")
		for _, r := range rows {
			fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
				util.PadRight(util.TruncateWidth(r.ID, 22), 22),
				util.PadLeft(fmt.Sprint(r.Layers), 6),
				util.PadLeft(fmt.Sprintf("%gGB", r.MemoryGB), 7),
				util.PadLeft(fmt.Sprint(r.Nodes), 5),
				RenderCompleteness(r.Complete))
		}
	})
}

// servedModels lists what the local chat server answers for.
func servedModels(ctx context.Context, env *Env, chat *openai.Client) error {
	models, err := chat.ListModels(ctx)
	if err != nil {
		return NewCommandError("models", "served", err)
	}
	return env.emit(CmdModels, models, func(w io.Writer) {
		if len(models) == 0 {
			fmt.Fprintln(w, DimStyle.Render("The chat server reports no models."))
			return
		}
		for _, m := range models {
			fmt.Fprintln(w, m.ID)
		}
	})
}

// renderSupported is the one-line summary: complete models green,
// incomplete yellow.
func renderSupported(w io.Writer, views []registry.ModelView) {
	names := make([]string, 0, len(views))
	for _, v := range views {
		if v.Covered {
			names = append(names, SuccessStyle.Render(v.Spec.ID))
		} else {
			names = append(names, WarningStyle.Render(v.Spec.ID))
		}
	}
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Supported Models:"), strings.Join(names, ", "))
}

func renderSwarm(w io.Writer, v registry.ModelView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %s  %s\n", ValueStyle.Bold(true).Render(v.Spec.ID),
		RenderCompleteness(v.Covered), DimStyle.Render(fmt.Sprintf("%d layers", v.TotalLayers)))
	if gaps := v.Gaps(); len(gaps) > 0 && len(v.Nodes) > 0 {
		parts := make([]string, len(gaps))
		for i, g := range gaps {
			parts[i] = g.String()
		}
		fmt.Fprintln(w, WarningStyle.Render("Missing layers: "+strings.Join(parts, ", ")))
	}
	if len(v.Nodes) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No active nodes for this model"))
		return
	}

	fmt.Fprintln(w, DimStyle.Render(nodeRow("NODE ID", "LAYERS", "OUTPUT TPS", "OUTPUT TOKENS", "NET OUT", "NET IN")))
	for _, n := range v.Nodes {
		s := n.Info.Stats
		fmt.Fprintln(w, nodeRow(
			n.ID,
			fmt.Sprintf("%s (out of %d)", n.Info.Layers, v.TotalLayers),
			util.FormatTPS(s.TokenOutTps),
			util.FormatCount(s.TokenOutSum),
			util.FormatBytes(s.NetworkOutBytes),
			util.FormatBytes(s.NetworkInBytes),
		))
		fmt.Fprintln(w, "  "+LayerMap(n.Info.Layers, v.TotalLayers))
	}
}

func nodeRow(id, lr, tps, tokens, out, in string) string {
	return util.PadRight(util.TruncateWidth(id, 20), 20) + "  " +
		util.PadRight(lr, 20) + "  " +
		util.PadLeft(tps, 10) + "  " +
		util.PadLeft(tokens, 13) + "  " +
		util.PadLeft(out, 9) + "  " +
		util.PadLeft(in, 9)
}

// LayerMap draws one cell per layer, filled where r hosts it.
func LayerMap(r layers.Range, total int) string {
	var b strings.Builder
	for _, on := range layers.Covered(r.Start, r.End, total) {
		if on {
			b.WriteString("█")
		} else {
			b.WriteString("░")
		}
	}
	return b.String()
}
