// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wallet manages the Aptos account a node uses to get paid for the
// layers it hosts: key generation and import, address derivation, balance
// and faucet queries, and deposits into the dllm contract.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OctasPerAPT is the number of octas in one APT.
const OctasPerAPT = 100_000_000

// DefaultFundOctas is what a freshly generated account asks the faucet for.
const DefaultFundOctas = OctasPerAPT

// ed25519SingleKeyScheme is the authentication key scheme byte appended to
// the public key before hashing.
const ed25519SingleKeyScheme = 0x00

// ErrInvalidKey is returned for keys that are not 32 hex-encoded bytes.
var ErrInvalidKey = errors.New("private key must be 32 bytes of hex")

// Account is an ed25519 Aptos account.
type Account struct {
	priv ed25519.PrivateKey
}

// Generate creates a random account.
func Generate() (*Account, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Account{priv: priv}, nil
}

// FromHex imports a private key seed. A 0x prefix, surrounding whitespace and
// stray quotes (keys copied out of JSON storage) are ignored.
func FromHex(s string) (*Account, error) {
	s = NormalizeKey(s)
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != ed25519.SeedSize {
		return nil, ErrInvalidKey
	}
	return &Account{priv: ed25519.NewKeyFromSeed(raw)}, nil
}

// NormalizeKey strips quotes, whitespace and the 0x prefix.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strings.ToLower(s)
}

// Hex is the 0x-prefixed private key seed, as the control plane expects it.
func (a *Account) Hex() string {
	return "0x" + hex.EncodeToString(a.priv.Seed())
}

// PublicKey returns the ed25519 public key.
func (a *Account) PublicKey() ed25519.PublicKey {
	return a.priv.Public().(ed25519.PublicKey)
}

// PublicKeyHex is the 0x-prefixed public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.PublicKey())
}

// Address is sha3-256(public key || scheme byte), hex encoded.
func (a *Account) Address() string {
	h := sha3.New256()
	h.Write(a.PublicKey())
	h.Write([]byte{ed25519SingleKeyScheme})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Sign signs msg.
func (a *Account) Sign(msg []byte) []byte {
	return ed25519.Sign(a.priv, msg)
}

// ShortenAddress keeps the first six and last four characters.
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// FormatAPT renders octas as APT with the given number of decimals.
func FormatAPT(octas uint64, decimals int) string {
	r := new(big.Rat).SetFrac(new(big.Int).SetUint64(octas), big.NewInt(OctasPerAPT))
	return r.FloatString(decimals)
}

// FormatOptionalAPT renders a balance that may not be known yet as "...".
func FormatOptionalAPT(octas *uint64, decimals int) string {
	if octas == nil || *octas == 0 {
		return "..."
	}
	return FormatAPT(*octas, decimals)
}

// ParseOctas parses a deposit amount. Only positive whole octas are valid.
func ParseOctas(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("Please enter a deposit amount")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 || !n.IsUint64() {
		return 0, errors.New("Invalid deposit amount")
	}
	return n.Uint64(), nil
}
