// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wavefy/dllm-tui/internal/storage"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// MarkdownExporter renders a readable transcript.
type MarkdownExporter struct {
	opts Options

	// now is replaced in tests.
	now func() time.Time
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts Options) *MarkdownExporter {
	return &MarkdownExporter{opts: opts, now: time.Now}
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// Export implements Exporter.
func (e *MarkdownExporter) Export(chat *storage.Chat) ([]byte, error) {
	if chat == nil || len(chat.Messages) == 0 {
		return nil, ErrEmptyChat
	}

	var sb strings.Builder
	if e.opts.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(chat.Title))
		fmt.Fprintf(&sb, "model: %s\n", chat.Model)
		fmt.Fprintf(&sb, "date: %s\n", chat.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "updated: %s\n", chat.UpdatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(chat.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", e.now().Format(time.RFC3339))
		sb.WriteString("generator: dllm-tui\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", chat.Title)
	if chat.SystemPrompt != "" {
		sb.WriteString("> " + strings.ReplaceAll(chat.SystemPrompt, "\n", "\n> ") + "\n\n")
	}

	for i, msg := range chat.Messages {
		heading := roleLabel(msg.Role)
		if e.opts.IncludeTimestamps && !msg.Timestamp.IsZero() {
			heading += " <sub>" + msg.Timestamp.Format("2006-01-02 15:04:05") + "</sub>"
		}
		fmt.Fprintf(&sb, "### %s\n\n", heading)
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n")

		if msg.Role == "assistant" && e.opts.IncludeMetadata && msg.DurationMs > 0 {
			fmt.Fprintf(&sb, "*%s chunks in %s*\n\n",
				humanize.Comma(int64(msg.Chunks)), (time.Duration(msg.DurationMs) * time.Millisecond).String())
		}
		if i < len(chat.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "You"
	case "assistant":
		return "Assistant"
	case "system":
		return "System"
	}
	return role
}

// escapeYAML quotes values YAML would otherwise misread.
func escapeYAML(s string) string {
	if s == "" || strings.ContainsAny(s, ":#'\"{}[]&*!|>%@`\n") || strings.TrimSpace(s) != s {
		b, _ := json.Marshal(s)
		return string(b)
	}
	return s
}

// =============================================================================
// JSON
// =============================================================================

// JSONExporter writes the stored chat unchanged.
type JSONExporter struct{}

// FileExtension implements Exporter.
func (JSONExporter) FileExtension() string { return ".json" }

// Export implements Exporter.
func (JSONExporter) Export(chat *storage.Chat) ([]byte, error) {
	if chat == nil || len(chat.Messages) == 0 {
		return nil, ErrEmptyChat
	}
	return json.MarshalIndent(chat, "", "  ")
}
