// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// wallet_cmd.go - The node's Aptos account: key storage, balance, faucet and
// top-up deposits.

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/wavefy/dllm-tui/internal/app"
	"github.com/wavefy/dllm-tui/internal/wallet"
)

type walletInfo struct {
	Address   string   `json:"address"`
	PublicKey string   `json:"public_key,omitempty"`
	Balance   *uint64  `json:"balance,omitempty"`
	TxnHashes []string `json:"txn_hashes,omitempty"`
}

func handleWallet(ctx context.Context, env *Env) error {
	flags := env.Args.Flags()
	svc, err := env.Services()
	if err != nil {
		return err
	}

	switch sub := flags.Subcommand(); sub {
	case "", "show":
		return walletShow(ctx, env, svc)
	case "new", "generate":
		return walletNew(ctx, env, svc, flags.BoolFlag("fund"))
	case "import":
		return walletImport(env, svc, flags.Positional(1))
	case "balance":
		return walletBalance(ctx, env, svc, flags.Positional(1))
	case "fund":
		return walletFund(ctx, env, svc, flags.Flag("amount"))
	case "deposit":
		return walletDeposit(ctx, env, svc, flags.Positional(1))
	case "forget":
		if !flags.BoolFlag("yes", "y") {
			return NewUsageError("forgetting the key cannot be undone; pass --yes", "dllm wallet forget --yes")
		}
		if err := svc.Keys.Clear(); err != nil {
			return NewCommandError("wallet", "forget", err)
		}
		return env.emit(CmdWallet, map[string]bool{"forgotten": true}, func(w io.Writer) {
			fmt.Fprintf(w, "%s private key removed\n", SuccessStyle.Render("[OK]"))
		})
	default:
		return NewUsageError("unknown wallet subcommand: "+sub, "dllm wallet [show|new|import|balance|fund|deposit|forget]")
	}
}

func requireAccount(svc *app.Services) (*wallet.Account, error) {
	acct, err := svc.Account()
	if err != nil {
		return nil, NewCommandError("wallet", "load", err)
	}
	if acct == nil {
		return nil, NewCommandError("wallet", "load", wallet.ErrNoKey)
	}
	return acct, nil
}

func walletShow(ctx context.Context, env *Env, svc *app.Services) error {
	acct, err := requireAccount(svc)
	if err != nil {
		return err
	}
	info := walletInfo{Address: acct.Address(), PublicKey: acct.PublicKeyHex()}
	bal, balErr := svc.Aptos.Balance(ctx, info.Address)
	if balErr == nil {
		info.Balance = &bal
	} else {
		env.Log.WithError(balErr).Warn("balance lookup failed")
	}

	return env.emit(CmdWallet, info, func(w io.Writer) {
		fmt.Fprintln(w, RenderField("Address", info.Address))
		fmt.Fprintln(w, RenderField("Public key", info.PublicKey))
		renderBalance(w, info.Balance, balErr)
	})
}

func renderBalance(w io.Writer, balance *uint64, err error) {
	if err != nil {
		fmt.Fprintln(w, RenderField("Balance", ErrorStyle.Render(err.Error())))
		return
	}
	fmt.Fprintln(w, RenderField("Balance", wallet.FormatOptionalAPT(balance, 5)+" APT"))
	if balance != nil && *balance == 0 {
		fmt.Fprintln(w, WarningStyle.Render("This account has no APT. Run `dllm wallet fund` or visit "+wallet.FaucetWebURL))
	}
}

func walletNew(ctx context.Context, env *Env, svc *app.Services, fund bool) error {
	if existing, _ := svc.Account(); existing != nil && !env.Args.Flags().BoolFlag("force") {
		return NewUsageError("a private key is already stored ("+wallet.ShortenAddress(existing.Address())+")",
			"dllm wallet new --force")
	}
	acct, err := wallet.Generate()
	if err != nil {
		return NewCommandError("wallet", "new", err)
	}
	if err := svc.Keys.Save(acct); err != nil {
		return NewCommandError("wallet", "new", err)
	}
	info := walletInfo{Address: acct.Address(), PublicKey: acct.PublicKeyHex()}
	if fund {
		hashes, err := svc.Aptos.Fund(ctx, info.Address, wallet.DefaultFundOctas)
		if err != nil {
			return NewCommandError("wallet", "fund", err)
		}
		info.TxnHashes = hashes
	}

	return env.emit(CmdWallet, info, func(w io.Writer) {
		fmt.Fprintf(w, "%s generated account %s\n", SuccessStyle.Render("[OK]"), info.Address)
		if fund {
			fmt.Fprintf(w, "%s funded with %s APT\n", SuccessStyle.Render("[OK]"), wallet.FormatAPT(wallet.DefaultFundOctas, 5))
		}
	})
}

func walletImport(env *Env, svc *app.Services, key string) error {
	if key == "" {
		var err error
		if key, err = PromptSecret(env.Err, env.In, "Private key (hex): "); err != nil {
			return err
		}
	}
	acct, err := svc.Keys.Import(key)
	if err != nil {
		return NewCommandError("wallet", "import", err)
	}
	return env.emit(CmdWallet, walletInfo{Address: acct.Address(), PublicKey: acct.PublicKeyHex()}, func(w io.Writer) {
		fmt.Fprintf(w, "%s imported account %s\n", SuccessStyle.Render("[OK]"), acct.Address())
	})
}

func walletBalance(ctx context.Context, env *Env, svc *app.Services, addr string) error {
	if addr == "" {
		acct, err := requireAccount(svc)
		if err != nil {
			return err
		}
		addr = acct.Address()
	}
	bal, err := svc.Aptos.Balance(ctx, addr)
	if err != nil {
		return NewCommandError("wallet", "balance", err)
	}
	return env.emit(CmdWallet, walletInfo{Address: addr, Balance: &bal}, func(w io.Writer) {
		if env.Args.Quiet {
			fmt.Fprintln(w, wallet.FormatAPT(bal, 8))
			return
		}
		fmt.Fprintln(w, RenderField("Address", addr))
		renderBalance(w, &bal, nil)
	})
}

func walletFund(ctx context.Context, env *Env, svc *app.Services, amount string) error {
	acct, err := requireAccount(svc)
	if err != nil {
		return err
	}
	octas := uint64(wallet.DefaultFundOctas)
	if amount != "" {
		if octas, err = strconv.ParseUint(amount, 10, 64); err != nil || octas == 0 {
			return NewValidationError("amount", amount, "must be a positive number of octas")
		}
	}
	hashes, err := svc.Aptos.Fund(ctx, acct.Address(), octas)
	if err != nil {
		return NewCommandError("wallet", "fund", err)
	}
	return env.emit(CmdWallet, walletInfo{Address: acct.Address(), TxnHashes: hashes}, func(w io.Writer) {
		fmt.Fprintf(w, "%s requested %s APT for %s\n", SuccessStyle.Render("[OK]"),
			wallet.FormatAPT(octas, 5), wallet.ShortenAddress(acct.Address()))
		for _, h := range hashes {
			fmt.Fprintln(w, DimStyle.Render("  "+h))
		}
	})
}

func walletDeposit(ctx context.Context, env *Env, svc *app.Services, amount string) error {
	octas, err := wallet.ParseOctas(amount)
	if err != nil {
		return NewValidationError("amount", amount,
			err.Error()+". Deposit amount should be in 10 to the power of 8, e.g. 100000000 equals 1 APT")
	}
	acct, err := requireAccount(svc)
	if err != nil {
		return err
	}
	hash, err := svc.Aptos.Deposit(ctx, acct, octas)
	if err != nil {
		return NewCommandError("wallet", "deposit", err)
	}
	return env.emit(CmdWallet, map[string]interface{}{"address": acct.Address(), "octas": octas, "hash": hash}, func(w io.Writer) {
		fmt.Fprintf(w, "%s deposited %s APT\n", SuccessStyle.Render("[OK]"), wallet.FormatAPT(octas, 5))
		fmt.Fprintln(w, DimStyle.Render("  "+hash))
	})
}
