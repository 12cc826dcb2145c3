// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/wavefy/dllm-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete dllm configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Endpoints EndpointsConfig `toml:"endpoints" json:"endpoints"`
	Contract  ContractConfig  `toml:"contract" json:"contract"`
	Polling   PollingConfig   `toml:"polling" json:"polling"`
	Chat      ChatConfig      `toml:"chat" json:"chat"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`
	Metrics   MetricsConfig   `toml:"metrics" json:"metrics"`
}

// EndpointsConfig lists every service the client talks to.
type EndpointsConfig struct {
	// ChatURL is the OpenAI-compatible server (…/v1/chat/completions).
	ChatURL string `toml:"chat_url" json:"chat_url"`

	// ControlURL is the node's control plane (…/v1/p2p/*).
	ControlURL string `toml:"control_url" json:"control_url"`

	RegistryURL string `toml:"registry_url" json:"registry_url"`

	// IndexerURL is the GraphQL endpoint. Empty disables history tables.
	IndexerURL string `toml:"indexer_url" json:"indexer_url"`

	AptosNodeURL   string `toml:"aptos_node_url" json:"aptos_node_url"`
	AptosFaucetURL string `toml:"aptos_faucet_url" json:"aptos_faucet_url"`
}

// ContractConfig names the on-chain module.
type ContractConfig struct {
	Address string `toml:"address" json:"address"`
	Module  string `toml:"module" json:"module"`
}

// PollingConfig holds refresh intervals.
type PollingConfig struct {
	StatusInterval  Duration `toml:"status_interval" json:"status_interval"`
	HealthInterval  Duration `toml:"health_interval" json:"health_interval"`
	ModelsInterval  Duration `toml:"models_interval" json:"models_interval"`
	HistoryInterval Duration `toml:"history_interval" json:"history_interval"`
	RequestTimeout  Duration `toml:"request_timeout" json:"request_timeout"`
}

// ChatConfig holds chat defaults. Choices made in the TUI are stored in the
// local KV store and win over these.
type ChatConfig struct {
	Model        string  `toml:"model" json:"model"`
	SystemPrompt string  `toml:"system_prompt" json:"system_prompt"`
	Temperature  float64 `toml:"temperature" json:"temperature"`
	MaxTokens    int     `toml:"max_tokens" json:"max_tokens"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Mode is "local" (this machine runs a node) or "cloud" (models are
	// assigned remotely and the start form is hidden).
	Mode            string `toml:"mode" json:"mode"`
	Theme           string `toml:"theme" json:"theme"`
	HistoryPageSize int    `toml:"history_page_size" json:"history_page_size"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// MetricsConfig configures `dllm watch`.
type MetricsConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// UI modes.
const (
	ModeLocal = "local"
	ModeCloud = "cloud"
)

// Duration is a time.Duration written as "5s" in config files.
type Duration struct {
	time.Duration
}

// Dur wraps d.
func Dur(d time.Duration) Duration { return Duration{d} }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Endpoints: EndpointsConfig{
			ChatURL:        "http://localhost:18888",
			ControlURL:     "http://localhost:18888",
			RegistryURL:    "https://registry.llm.wavefy.network",
			AptosNodeURL:   "https://fullnode.testnet.aptoslabs.com/v1",
			AptosFaucetURL: "https://faucet.testnet.aptoslabs.com",
		},
		Contract: ContractConfig{
			Address: "0xf4289dca4fe79c4e61fe1255d7f47556c38f512b5cf9ddf727f0e44a5c6a6b00",
			Module:  "dllm",
		},
		Polling: PollingConfig{
			StatusInterval:  Dur(5 * time.Second),
			HealthInterval:  Dur(2500 * time.Millisecond),
			ModelsInterval:  Dur(5 * time.Second),
			HistoryInterval: Dur(5 * time.Second),
			RequestTimeout:  Dur(10 * time.Second),
		},
		Chat: ChatConfig{
			Model:       "local-model",
			Temperature: 0.9,
		},
		UI: UIConfig{
			Mode:            ModeLocal,
			Theme:           "auto",
			HistoryPageSize: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the dllm directory, ~/.dllm unless DLLM_HOME is set.
func ConfigDir() (string, error) {
	if home := os.Getenv("DLLM_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dllm"), nil
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return inConfigDir("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return inConfigDir("config.json") }

// ChatsDir is where chat transcripts are stored.
func ChatsDir() (string, error) { return inConfigDir("chats") }

// KVPath is the local key/value database.
func KVPath() (string, error) { return inConfigDir("local.db") }

// LogPath resolves the log file, defaulting to ~/.dllm/dllm.log.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	p, err := inConfigDir("dllm.log")
	if err != nil {
		return ""
	}
	return p
}

// EnsureConfigDir creates the config directory with owner-only access.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens group/world bits to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0077 != 0 {
		return os.Chmod(path, 0600)
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.dllm/config.toml, else ~/.dllm/config.json, else defaults,
// then applies .env and environment overrides and validates.
func Load() (*Config, error) {
	cfg := Default()

	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			return nil, fmt.Errorf("failed to load TOML config: %w", err)
		}
	} else if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
		if err := LoadJSON(cfg, jsonPath); err != nil {
			return nil, fmt.Errorf("failed to load JSON config: %w", err)
		}
	}

	return finish(cfg)
}

// LoadFromPath loads a specific file; the extension picks the format.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes path over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func LoadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.dllm/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# dllm configuration\n# See `dllm config show` for the effective values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// SaveJSON writes cfg as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var hexAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	urls := []struct {
		field    string
		value    string
		required bool
	}{
		{"endpoints.chat_url", c.Endpoints.ChatURL, true},
		{"endpoints.control_url", c.Endpoints.ControlURL, true},
		{"endpoints.registry_url", c.Endpoints.RegistryURL, true},
		{"endpoints.indexer_url", c.Endpoints.IndexerURL, false},
		{"endpoints.aptos_node_url", c.Endpoints.AptosNodeURL, false},
		{"endpoints.aptos_faucet_url", c.Endpoints.AptosFaucetURL, false},
	}
	for _, u := range urls {
		if u.value == "" {
			if u.required {
				errs = append(errs, ValidationError{Field: u.field, Message: "must not be empty"})
			}
			continue
		}
		parsed, err := url.Parse(u.value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, ValidationError{Field: u.field, Message: fmt.Sprintf("invalid URL %q, must be http(s)://host[:port][/path]", u.value)})
		}
	}

	if !hexAddress.MatchString(c.Contract.Address) {
		errs = append(errs, ValidationError{Field: "contract.address", Message: "must be a 0x-prefixed hex address"})
	}
	if c.Contract.Module == "" {
		errs = append(errs, ValidationError{Field: "contract.module", Message: "must not be empty"})
	}

	intervals := map[string]Duration{
		"polling.status_interval":  c.Polling.StatusInterval,
		"polling.health_interval":  c.Polling.HealthInterval,
		"polling.models_interval":  c.Polling.ModelsInterval,
		"polling.history_interval": c.Polling.HistoryInterval,
		"polling.request_timeout":  c.Polling.RequestTimeout,
	}
	names := make([]string, 0, len(intervals))
	for name := range intervals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if intervals[name].Duration <= 0 {
			errs = append(errs, ValidationError{Field: name, Message: "must be positive"})
		}
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "chat.temperature", Message: fmt.Sprintf("%.2f out of range [0, 2]", c.Chat.Temperature)})
	}
	if c.Chat.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: "chat.max_tokens", Message: "must not be negative"})
	}

	switch strings.ToLower(c.UI.Mode) {
	case ModeLocal, ModeCloud:
	default:
		errs = append(errs, ValidationError{Field: "ui.mode", Message: fmt.Sprintf("invalid mode '%s', must be one of: local, cloud", c.UI.Mode)})
	}
	if c.UI.HistoryPageSize < 1 || c.UI.HistoryPageSize > 100 {
		errs = append(errs, ValidationError{Field: "ui.history_page_size", Message: "must be between 1 and 100"})
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level '%s'", c.Logging.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by partial config files.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Endpoints.ChatURL == "" {
		c.Endpoints.ChatURL = d.Endpoints.ChatURL
	}
	if c.Endpoints.ControlURL == "" {
		c.Endpoints.ControlURL = d.Endpoints.ControlURL
	}
	if c.Endpoints.RegistryURL == "" {
		c.Endpoints.RegistryURL = d.Endpoints.RegistryURL
	}
	if c.Contract.Address == "" {
		c.Contract.Address = d.Contract.Address
	}
	if c.Contract.Module == "" {
		c.Contract.Module = d.Contract.Module
	}
	for _, p := range []struct{ dst, def *Duration }{
		{&c.Polling.StatusInterval, &d.Polling.StatusInterval},
		{&c.Polling.HealthInterval, &d.Polling.HealthInterval},
		{&c.Polling.ModelsInterval, &d.Polling.ModelsInterval},
		{&c.Polling.HistoryInterval, &d.Polling.HistoryInterval},
		{&c.Polling.RequestTimeout, &d.Polling.RequestTimeout},
	} {
		if p.dst.Duration == 0 {
			*p.dst = *p.def
		}
	}
	if c.Chat.Model == "" {
		c.Chat.Model = d.Chat.Model
	}
	if c.UI.Mode == "" {
		c.UI.Mode = d.UI.Mode
	}
	c.UI.Mode = strings.ToLower(c.UI.Mode)
	if c.UI.HistoryPageSize == 0 {
		c.UI.HistoryPageSize = d.UI.HistoryPageSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = d.Metrics.Addr
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envOverrides maps variables to config keys. Later entries win, so the
// DLLM_* names override the VITE_* names kept from the web client.
var envOverrides = []struct {
	env string
	key string
}{
	{"VITE_VLLM_URL", "endpoints.chat_url"},
	{"VITE_VLLM_CONTROLS_URL", "endpoints.control_url"},
	{"VITE_REGISTRY_URL", "endpoints.registry_url"},
	{"VITE_NODIT_GQL_API", "endpoints.indexer_url"},
	{"VITE_MODE", "ui.mode"},
	{"DLLM_CHAT_URL", "endpoints.chat_url"},
	{"DLLM_CONTROL_URL", "endpoints.control_url"},
	{"DLLM_REGISTRY_URL", "endpoints.registry_url"},
	{"DLLM_INDEXER_URL", "endpoints.indexer_url"},
	{"DLLM_APTOS_NODE_URL", "endpoints.aptos_node_url"},
	{"DLLM_APTOS_FAUCET_URL", "endpoints.aptos_faucet_url"},
	{"DLLM_CONTRACT_ADDRESS", "contract.address"},
	{"DLLM_MODE", "ui.mode"},
	{"DLLM_MODEL", "chat.model"},
	{"DLLM_LOG_LEVEL", "logging.level"},
	{"DLLM_LOG_FILE", "logging.file"},
	{"DLLM_METRICS_ADDR", "metrics.addr"},
}

// EnvVars lists the supported environment variables.
func EnvVars() []string {
	out := make([]string, 0, len(envOverrides))
	for _, o := range envOverrides {
		out = append(out, o.env)
	}
	return out
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Invalid values are left for Validate to report.
func (c *Config) ApplyEnvOverrides() {
	for _, o := range envOverrides {
		if v := os.Getenv(o.env); v != "" {
			_ = c.Set(o.key, v)
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value using dot notation (e.g. "endpoints.control_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if d, ok := field.Interface().(Duration); ok {
		return d.String(), nil
	}
	return field.Interface(), nil
}

// Set sets a value using dot notation. Strings are converted to the
// field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		name := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct || field.Type() == reflect.TypeOf(Duration{}) {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		if tu, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return tu.UnmarshalText([]byte(s))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			l := strings.ToLower(s)
			field.SetBool(l == "1" || l == "true" || l == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys lists every settable key in dot notation.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("toml"), ",")[0]
		if f.Type.Kind() != reflect.Struct {
			keys = append(keys, tag)
			continue
		}
		for j := 0; j < f.Type.NumField(); j++ {
			sub := strings.Split(f.Type.Field(j).Tag.Get("toml"), ",")[0]
			keys = append(keys, tag+"."+sub)
		}
	}
	return keys
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy. Config holds only values, so a struct copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML for `dllm config show`.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err.Error()
	}
	return buf.String()
}

// IsCloud reports whether models are assigned remotely.
func (c *Config) IsCloud() bool {
	return strings.EqualFold(c.UI.Mode, ModeCloud)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// A broken config file falls back to defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
