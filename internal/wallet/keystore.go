// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wallet

import "errors"

// KeyName is the storage key holding the node's private key.
const KeyName = "dllm_pk"

// ErrNoKey is returned by Keystore.Load when nothing is stored.
var ErrNoKey = errors.New("no private key stored")

// KV is the subset of the local key/value store the keystore needs.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keystore persists the node's private key.
type Keystore struct {
	kv KV
}

// NewKeystore wraps kv.
func NewKeystore(kv KV) *Keystore {
	return &Keystore{kv: kv}
}

// Load returns the stored account.
func (k *Keystore) Load() (*Account, error) {
	v, ok, err := k.kv.Get(KeyName)
	if err != nil {
		return nil, err
	}
	if !ok || NormalizeKey(v) == "" {
		return nil, ErrNoKey
	}
	return FromHex(v)
}

// Save stores a's key.
func (k *Keystore) Save(a *Account) error {
	return k.kv.Set(KeyName, a.Hex())
}

// Import validates and stores a hex key.
func (k *Keystore) Import(hexKey string) (*Account, error) {
	a, err := FromHex(hexKey)
	if err != nil {
		return nil, err
	}
	if err := k.Save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Clear forgets the stored key.
func (k *Keystore) Clear() error {
	return k.kv.Delete(KeyName)
}

// Address is the stored account's address, or "" when there is none.
func (k *Keystore) Address() string {
	a, err := k.Load()
	if err != nil {
		return ""
	}
	return a.Address()
}
