// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wavefy/dllm-tui/internal/storage"
	"github.com/wavefy/dllm-tui/internal/util"
)

// ErrEmptyChat is returned for chats without messages.
var ErrEmptyChat = errors.New("chat has no messages")

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter renders a chat in one format.
type Exporter interface {
	Export(chat *storage.Chat) ([]byte, error)

	// FileExtension includes the dot.
	FileExtension() string
}

// Options configures the Markdown exporter.
type Options struct {
	// IncludeMetadata adds front matter and per-reply stats.
	IncludeMetadata bool

	// IncludeTimestamps adds a time to each message heading.
	IncludeTimestamps bool
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{IncludeMetadata: true, IncludeTimestamps: true}
}

// Formats lists the names ForFormat accepts.
var Formats = []string{"markdown", "json"}

// ForFormat returns the exporter for name ("markdown", "md" or "json").
func ForFormat(name string, opts Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (use %s)", name, strings.Join(Formats, " or "))
	}
}

// =============================================================================
// FILES
// =============================================================================

// ToFile writes chat into dir and returns the file path. The name is built
// from the title and the chat's last update.
func ToFile(chat *storage.Chat, exp Exporter, dir string) (string, error) {
	data, err := exp.Export(chat)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	stamp := chat.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := fmt.Sprintf("chat_%s_%s%s", sanitizeFilename(chat.Title), stamp.Format("20060102_150405"), exp.FileExtension())
	path := filepath.Join(dir, name)
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// sanitizeFilename keeps a title usable as a file name on every OS.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "chat"
	}
	return string(out)
}
