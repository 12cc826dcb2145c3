// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/wavefy/dllm-tui/internal/httpapi"
	"github.com/wavefy/dllm-tui/internal/logging"
)

// Testnet defaults.
const (
	DefaultNodeURL   = "https://fullnode.testnet.aptoslabs.com/v1"
	DefaultFaucetURL = "https://faucet.testnet.aptoslabs.com"
	FaucetWebURL     = "https://aptoslabs.com/testnet-faucet"
)

// CoinStoreType is the resource holding an account's APT.
const CoinStoreType = "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>"

const (
	defaultMaxGas      = 20000
	defaultGasPrice    = 100
	transactionTimeout = 60 * time.Second
)

// Config configures the Aptos client.
type Config struct {
	NodeURL   string
	FaucetURL string

	// Contract and Module name the deposit entry function.
	Contract string
	Module   string

	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Client speaks the Aptos fullnode REST API and the testnet faucet.
type Client struct {
	node     *httpapi.Requester
	faucet   *httpapi.Requester
	contract string
	module   string
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewClient creates an Aptos client, defaulting to testnet.
func NewClient(cfg Config) *Client {
	if cfg.NodeURL == "" {
		cfg.NodeURL = DefaultNodeURL
	}
	if cfg.FaucetURL == "" {
		cfg.FaucetURL = DefaultFaucetURL
	}
	if cfg.Module == "" {
		cfg.Module = "dllm"
	}
	log := logging.OrDiscard(cfg.Logger).WithField("component", "aptos")
	return &Client{
		node:     httpapi.NewRequester(cfg.NodeURL, "Aptos node request failed", cfg.HTTPClient, log),
		faucet:   httpapi.NewRequester(cfg.FaucetURL, "Aptos faucet request failed", cfg.HTTPClient, log),
		contract: cfg.Contract,
		module:   cfg.Module,
		log:      log,
		now:      time.Now,
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Balance returns addr's APT balance in octas. Accounts that do not exist
// yet have a zero balance.
func (c *Client) Balance(ctx context.Context, addr string) (uint64, error) {
	data, err := c.node.Do(ctx, http.MethodGet, "/accounts/"+addr+"/resources", nil, nil)
	if err != nil {
		if httpapi.StatusCode(err) == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}

	for _, res := range gjson.ParseBytes(data).Array() {
		if res.Get("type").String() == CoinStoreType {
			return res.Get("data.coin.value").Uint(), nil
		}
	}

	// Accounts migrated to fungible assets have no CoinStore; ask the
	// framework's view function instead.
	view := map[string]any{
		"function":       "0x1::coin::balance",
		"type_arguments": []string{"0x1::aptos_coin::AptosCoin"},
		"arguments":      []string{addr},
	}
	data, err = c.node.Do(ctx, http.MethodPost, "/view", nil, view)
	if err != nil {
		c.log.WithError(err).Debug("balance view failed")
		return 0, nil
	}
	return gjson.GetBytes(data, "0").Uint(), nil
}

// SequenceNumber returns the next sequence number for addr.
func (c *Client) SequenceNumber(ctx context.Context, addr string) (uint64, error) {
	data, err := c.node.Do(ctx, http.MethodGet, "/accounts/"+addr, nil, nil)
	if err != nil {
		return 0, err
	}
	seq := gjson.GetBytes(data, "sequence_number")
	if !seq.Exists() {
		return 0, &httpapi.ClientError{Type: httpapi.ErrTypeDecode, Message: "account has no sequence_number"}
	}
	return seq.Uint(), nil
}

func (c *Client) gasPrice(ctx context.Context) uint64 {
	data, err := c.node.Do(ctx, http.MethodGet, "/estimate_gas_price", nil, nil)
	if err != nil {
		return defaultGasPrice
	}
	if p := gjson.GetBytes(data, "gas_estimate").Uint(); p > 0 {
		return p
	}
	return defaultGasPrice
}

// =============================================================================
// FAUCET
// =============================================================================

// Fund asks the faucet to mint octas into addr and returns the transaction
// hashes it reports.
func (c *Client) Fund(ctx context.Context, addr string, octas uint64) ([]string, error) {
	if addr == "" {
		return nil, httpapi.InvalidInput("address is required")
	}
	q := url.Values{}
	q.Set("amount", strconv.FormatUint(octas, 10))
	q.Set("address", addr)

	data, err := c.faucet.Do(ctx, http.MethodPost, "/mint", q, nil)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(data)
	hashes := root
	if root.IsObject() {
		hashes = root.Get("txn_hashes")
	}
	var out []string
	for _, h := range hashes.Array() {
		out = append(out, h.String())
	}
	c.log.WithFields(logrus.Fields{"address": addr, "octas": octas}).Info("faucet funded account")
	return out, nil
}

// =============================================================================
// DEPOSIT
// =============================================================================

type entryPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

type userTransaction struct {
	Sender                  string        `json:"sender"`
	SequenceNumber          string        `json:"sequence_number"`
	MaxGasAmount            string        `json:"max_gas_amount"`
	GasUnitPrice            string        `json:"gas_unit_price"`
	ExpirationTimestampSecs string        `json:"expiration_timestamp_secs"`
	Payload                 entryPayload  `json:"payload"`
	Signature               *txnSignature `json:"signature,omitempty"`
}

type txnSignature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// DepositFunction is the entry function called by Deposit.
func (c *Client) DepositFunction() string {
	return fmt.Sprintf("%s::%s::deposit", c.contract, c.module)
}

// Deposit moves octas from the account into its dllm top-up balance and
// returns the transaction hash.
func (c *Client) Deposit(ctx context.Context, acct *Account, octas uint64) (string, error) {
	if octas == 0 {
		return "", httpapi.InvalidInput("Invalid deposit amount")
	}
	if c.contract == "" {
		return "", httpapi.InvalidInput("contract address is not configured")
	}

	sender := acct.Address()
	seq, err := c.SequenceNumber(ctx, sender)
	if err != nil {
		return "", err
	}

	txn := userTransaction{
		Sender:                  sender,
		SequenceNumber:          strconv.FormatUint(seq, 10),
		MaxGasAmount:            strconv.Itoa(defaultMaxGas),
		GasUnitPrice:            strconv.FormatUint(c.gasPrice(ctx), 10),
		ExpirationTimestampSecs: strconv.FormatInt(c.now().Add(transactionTimeout).Unix(), 10),
		Payload: entryPayload{
			Type:          "entry_function_payload",
			Function:      c.DepositFunction(),
			TypeArguments: []string{},
			Arguments:     []string{strconv.FormatUint(octas, 10)},
		},
	}

	data, err := c.node.Do(ctx, http.MethodPost, "/transactions/encode_submission", nil, txn)
	if err != nil {
		return "", err
	}
	msgHex := gjson.ParseBytes(data).String()
	msg, err := hex.DecodeString(strings.TrimPrefix(msgHex, "0x"))
	if err != nil || len(msg) == 0 {
		return "", &httpapi.ClientError{Type: httpapi.ErrTypeDecode, Message: "invalid signing message", Cause: err}
	}

	txn.Signature = &txnSignature{
		Type:      "ed25519_signature",
		PublicKey: acct.PublicKeyHex(),
		Signature: "0x" + hex.EncodeToString(acct.Sign(msg)),
	}
	data, err = c.node.Do(ctx, http.MethodPost, "/transactions", nil, txn)
	if err != nil {
		return "", err
	}

	hash := gjson.GetBytes(data, "hash").String()
	c.log.WithFields(logrus.Fields{"sender": sender, "octas": octas, "hash": hash}).Info("deposit submitted")
	return hash, nil
}
