// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the chat tab of the TUI.

The tab streams replies from the swarm's OpenAI-compatible endpoint into a
scrolling transcript. Finished assistant replies are rendered as markdown
with glamour; the reply still streaming is shown as plain text.

# Keys

	enter     send the prompt
	esc       cancel the running reply
	ctrl+n    start a new chat
	ctrl+l    open the saved chat list (enter loads, d deletes)
	ctrl+s    show the current model status
	pgup/pgdn scroll the transcript

# Persistence

A chat is written to the chat store only after a reply finished without an
error. Failed replies raise a toast and leave the store untouched.

# Model selection

The chat targets the first active model reported by the control plane. When
that changes the chat options are updated and saved.
*/
package chat
