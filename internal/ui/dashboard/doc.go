// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package dashboard implements the node dashboard tab.

The tab shows one card per model slice the control plane reports, lets the
user stop a slice or deposit into the contract, and in local mode offers the
start form: model and memory selection, a layer suggestion from the control
plane, the layer range, the private key and account generation.

Below the cards are the node's Created Sessions and Claimed Requests, read
from the indexer one page at a time.

# Keys

	up/down   move focus
	left/right change the focused select
	enter     press the focused button
	x         stop the focused model
	d         deposit into the contract
	c         copy the wallet address
	[ ]       previous/next page of Created Sessions
	{ }       previous/next page of Claimed Requests
*/
package dashboard
