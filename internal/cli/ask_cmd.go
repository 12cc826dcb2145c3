// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask_cmd.go - One-shot streamed chat against the node's completions API.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wavefy/dllm-tui/internal/openai"
	"github.com/wavefy/dllm-tui/internal/storage"
)

type askOutput struct {
	Model        string `json:"model"`
	Content      string `json:"content"`
	Chunks       int    `json:"chunks"`
	FirstTokenMs int64  `json:"first_token_ms"`
	TotalMs      int64  `json:"total_ms"`
	ChatID       string `json:"chat_id,omitempty"`
}

func handleAsk(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	prompt := strings.TrimSpace(JoinPositionalArgs(flags, 0))
	if prompt == "" {
		return NewUsageError("missing prompt", `dllm ask "What is a transformer layer?"`)
	}

	svc, err := env.Services()
	if err != nil {
		return err
	}
	opts := svc.ChatOptions()
	if m := flags.Flag("model", "m"); m != "" {
		opts.SelectedModel = m
	}
	if s := flags.Flag("system"); s != "" {
		opts.SystemPrompt = s
	}
	if t, ok, err := flags.FlagFloat("temperature", "t"); err != nil {
		return err
	} else if ok {
		opts.Temperature = t
	}

	req := openai.ChatRequest{
		Model:       opts.SelectedModel,
		Messages:    openai.BuildMessages(opts.SystemPrompt, []openai.Message{{Role: openai.RoleUser, Content: prompt}}),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	var onChunk openai.StreamCallback
	if !env.Args.JSON {
		onChunk = func(c openai.StreamChunk) { fmt.Fprint(env.Out, c.Content) }
	}
	stats, err := svc.Chat.ChatStream(ctx, req, onChunk)
	if err != nil {
		if !env.Args.JSON {
			fmt.Fprintln(env.Out)
		}
		return NewCommandError("ask", "", err)
	}

	out := askOutput{
		Model:        opts.SelectedModel,
		Content:      stats.Content,
		Chunks:       stats.Chunks,
		FirstTokenMs: stats.FirstTokenTime.Milliseconds(),
		TotalMs:      stats.TotalTime.Milliseconds(),
	}
	if flags.BoolFlag("save") {
		chat := &storage.Chat{
			ID:           storage.NewChatID(),
			Model:        opts.SelectedModel,
			SystemPrompt: opts.SystemPrompt,
			Temperature:  opts.Temperature,
			CreatedAt:    time.Now(),
		}
		reply := storage.NewMessage(openai.RoleAssistant, stats.Content)
		reply.DurationMs = stats.TotalTime.Milliseconds()
		reply.Chunks = stats.Chunks
		chat.Messages = []storage.ChatMessage{storage.NewMessage(openai.RoleUser, prompt), reply}
		if err := svc.Chats.Save(chat); err != nil {
			return NewCommandError("ask", "save", err)
		}
		out.ChatID = chat.ID
	}

	return env.emit(CmdAsk, out, func(w io.Writer) {
		fmt.Fprintln(w)
		if env.Args.Verbose {
			fmt.Fprintln(env.Err, DimStyle.Render(fmt.Sprintf("%s · %d chunks · first token %s · total %s",
				out.Model, out.Chunks, stats.FirstTokenTime.Round(time.Millisecond), stats.TotalTime.Round(time.Millisecond))))
		}
		if out.ChatID != "" && !env.Args.Quiet {
			fmt.Fprintln(env.Err, DimStyle.Render("saved chat "+out.ChatID))
		}
	})
}
