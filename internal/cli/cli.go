// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for dllm.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdStatus
	CmdStart
	CmdStop
	CmdSuggest
	CmdHealth
	CmdModels
	CmdSessions
	CmdClaims
	CmdWallet
	CmdAsk
	CmdChats
	CmdWatch
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:      "tui",
	CmdStatus:   "status",
	CmdStart:    "start",
	CmdStop:     "stop",
	CmdSuggest:  "suggest",
	CmdHealth:   "health",
	CmdModels:   "models",
	CmdSessions: "sessions",
	CmdClaims:   "claims",
	CmdWallet:   "wallet",
	CmdAsk:      "ask",
	CmdChats:    "chats",
	CmdWatch:    "watch",
	CmdConfig:   "config",
	CmdVersion:  "version",
	CmdHelp:     "help",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool
	Quiet      bool
	Verbose    bool
	ConfigPath string

	// Endpoint overrides, applied on top of the loaded config.
	ControlURL  string
	RegistryURL string
	IndexerURL  string
	ChatURL     string

	// Name is the command word as typed.
	Name string

	// Raw args (remaining after the command word)
	Raw []string
}

// Flags parses the command-specific part of the arguments.
func (a Args) Flags() *ArgParser {
	return NewArgParser(a.Raw)
}

const usageText = `dllm - terminal client for the dllm inference swarm

Usage:
  dllm                              Start the TUI (default)
  dllm status, s                    Show this node's P2P status
  dllm start --model M [--from N --to N] [--memory GB] [--key HEX]
                                    Host a slice of a model; without
                                    --from/--to the node suggests a range
  dllm stop [--model M]             Stop hosting (all models when omitted)
  dllm suggest --model M [--memory GB]
                                    Suggest a layer range for this machine
  dllm health                       Swarm health per supported model
  dllm models                       Supported models and coverage
  dllm models --served              Models the local chat server answers for
  dllm sessions [--owner A] [--page N]
                                    Sessions opened on chain
  dllm claims [--owner A | --claimer A] [--page N]
                                    Rewards claimed by nodes
  dllm wallet [subcommand]          Wallet management
  dllm ask "prompt" [--model M] [--system S]
                                    One-shot streamed chat
  dllm chats [subcommand]           Saved chats
  dllm watch [--metrics-addr A]     Poll services and export Prometheus metrics
  dllm config [subcommand]          Configuration
  dllm version                      Version information
  dllm help                         This help

Wallet Commands:
  dllm wallet show                  Stored address and balance (default)
  dllm wallet new [--fund]          Generate a key, optionally fund it
  dllm wallet import [HEX]          Import a private key (prompts when omitted)
  dllm wallet balance [ADDR]        On-chain balance in APT
  dllm wallet fund [--amount OCTAS] Mint testnet APT from the faucet
  dllm wallet deposit OCTAS         Deposit into the top-up balance
                                    (100000000 octas = 1 APT)
  dllm wallet forget --yes          Remove the stored key

Chat Commands:
  dllm chats list                   List saved chats (default)
  dllm chats show ID                Print a chat transcript
  dllm chats export ID [--format F] Write a chat to markdown or json (--out DIR)
  dllm chats delete ID              Delete a chat
  dllm chats clear --yes            Delete all chats

Config Commands:
  dllm config show                  Print the effective configuration
  dllm config get KEY               Print one value (e.g. endpoints.control_url)
  dllm config set KEY VALUE         Change and save a value
  dllm config path                  Config file location
  dllm config init                  Write the default config file

Global Flags:
  --json                            Machine-readable output
  -q, --quiet                       Only print essential output
  -v, --verbose                     Debug logging to stderr
  --config PATH                     Load a specific config file
  --control-url URL                 Override endpoints.control_url
  --registry-url URL                Override endpoints.registry_url
  --indexer-url URL                 Override endpoints.indexer_url
  --chat-url URL                    Override endpoints.chat_url

Environment:
  DLLM_HOME                         Config directory (default ~/.dllm)
  DLLM_CONTROL_URL, DLLM_REGISTRY_URL, DLLM_INDEXER_URL, DLLM_CHAT_URL
  VITE_INDEXER_URL, VITE_MODE       Accepted for compatibility

Version: %s
`

// PrintUsage writes the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "dllm version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name) and returns
// the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	parsed.Name = strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch parsed.Name {
	case "tui":
		return CmdTUI, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "start":
		return CmdStart, parsed
	case "stop":
		return CmdStop, parsed
	case "suggest":
		return CmdSuggest, parsed
	case "health", "swarm":
		return CmdHealth, parsed
	case "models":
		return CmdModels, parsed
	case "sessions":
		return CmdSessions, parsed
	case "claims", "claimed":
		return CmdClaims, parsed
	case "wallet", "w":
		return CmdWallet, parsed
	case "ask":
		return CmdAsk, parsed
	case "chats", "chat":
		return CmdChats, parsed
	case "watch":
		return CmdWatch, parsed
	case "config":
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	valueFlags := map[string]*string{
		"--config":       &parsed.ConfigPath,
		"--control-url":  &parsed.ControlURL,
		"--registry-url": &parsed.RegistryURL,
		"--indexer-url":  &parsed.IndexerURL,
		"--chat-url":     &parsed.ChatURL,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
			continue
		case "-v", "--verbose":
			parsed.Verbose = true
			continue
		case "--json":
			parsed.JSON = true
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		dst, ok := valueFlags[name]
		if !ok {
			remaining = append(remaining, arg)
			continue
		}
		if hasValue {
			*dst = value
		} else if i+1 < len(args) {
			i++
			*dst = args[i]
		}
	}

	return remaining, parsed
}
