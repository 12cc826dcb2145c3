// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// chats_cmd.go - Saved chat management.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wavefy/dllm-tui/internal/export"
	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/util"
)

func handleChats(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	svc, err := env.Services()
	if err != nil {
		return err
	}
	store := svc.Chats

	switch sub := flags.Subcommand(); sub {
	case "", "list", "ls":
		metas, err := store.List()
		if err != nil {
			return NewCommandError("chats", "list", err)
		}
		return env.emit(CmdChats, metas, func(w io.Writer) {
			if len(metas) == 0 {
				fmt.Fprintln(w, DimStyle.Render("No saved chats."))
				return
			}
			for _, m := range metas {
				fmt.Fprintf(w, "%s  %s  %s\n",
					DimStyle.Render(m.ID[:min(8, len(m.ID))]),
					util.PadRight(util.TruncateWidth(m.Title, 40), 40),
					DimStyle.Render(fmt.Sprintf("%d msgs · %s · %s", m.MessageCount, m.Model, util.Ago(m.UpdatedAt))))
			}
		})

	case "show":
		id, err := requirePositional(flags, 1, "chat id", "dllm chats show ID")
		if err != nil {
			return err
		}
		chat, err := loadChat(store, id)
		if err != nil {
			return err
		}
		return env.emit(CmdChats, chat, func(w io.Writer) {
			fmt.Fprintln(w, TitleStyle.Render(chat.Title)+" "+DimStyle.Render(chat.Model))
			for _, m := range chat.Messages {
				fmt.Fprintln(w)
				fmt.Fprintln(w, SectionStyle.MarginTop(0).Render(m.Role))
				fmt.Fprintln(w, m.Content)
			}
		})

	case "export":
		id, err := requirePositional(flags, 1, "chat id", "dllm chats export ID [--format markdown|json] [--out DIR]")
		if err != nil {
			return err
		}
		chat, err := loadChat(store, id)
		if err != nil {
			return err
		}
		exp, err := export.ForFormat(flags.Flag("format", "f"), export.DefaultOptions())
		if err != nil {
			return NewValidationError("format", flags.Flag("format", "f"), err.Error())
		}
		path, err := export.ToFile(chat, exp, flags.Flag("out", "o"))
		if err != nil {
			return NewCommandError("chats", "export", err)
		}
		return env.emit(CmdChats, map[string]string{"exported": chat.ID, "path": path}, func(w io.Writer) {
			fmt.Fprintf(w, "%s exported %s to %s\n", SuccessStyle.Render("[OK]"), chat.Title, path)
		})

	case "delete", "rm":
		id, err := requirePositional(flags, 1, "chat id", "dllm chats delete ID")
		if err != nil {
			return err
		}
		chat, err := loadChat(store, id)
		if err != nil {
			return err
		}
		if err := store.Delete(chat.ID); err != nil {
			return NewCommandError("chats", "delete", err)
		}
		return env.emit(CmdChats, map[string]string{"deleted": chat.ID}, func(w io.Writer) {
			fmt.Fprintf(w, "%s deleted %s\n", SuccessStyle.Render("[OK]"), chat.Title)
		})

	case "clear":
		if !flags.BoolFlag("yes", "y") {
			return NewUsageError("this deletes every saved chat; pass --yes", "dllm chats clear --yes")
		}
		n, err := store.DeleteAll()
		if err != nil {
			return NewCommandError("chats", "clear", err)
		}
		return env.emit(CmdChats, map[string]int{"deleted": n}, func(w io.Writer) {
			fmt.Fprintf(w, "%s deleted %d chats\n", SuccessStyle.Render("[OK]"), n)
		})

	default:
		return NewUsageError("unknown chats subcommand: "+sub, "dllm chats [list|show|export|delete|clear]")
	}
}

// loadChat accepts a full id or a unique prefix as printed by list.
func loadChat(store *storage.ChatStore, id string) (*storage.Chat, error) {
	chat, err := store.Load(id)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, storage.ErrChatNotFound) {
		return nil, NewCommandError("chats", "load", err)
	}

	metas, lerr := store.List()
	if lerr != nil {
		return nil, NewCommandError("chats", "load", lerr)
	}
	var match string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, id) {
			if match != "" {
				return nil, NewValidationError("chat id", id, "matches more than one chat")
			}
			match = m.ID
		}
	}
	if match == "" {
		return nil, NewNotFoundError("chat", id)
	}
	return store.Load(match)
}
