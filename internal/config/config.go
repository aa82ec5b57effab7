// Package config loads and persists blockify settings.
//
// Settings live in ~/.config/blockify/config.json, or config.toml when that
// file exists. A .env file next to the config or in the working directory is
// loaded first, and BLOCKIFY_* environment variables override file values
// without being written back.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chunker"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/conversation"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/dispatcher"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/notify"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/store"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BLOCKIFY_"

// Config holds all application configuration
type Config struct {
	// LLM endpoint
	LLMBaseURL     string `json:"llm_base_url,omitempty" toml:"llm_base_url"`
	LLMAPIPath     string `json:"llm_api_path,omitempty" toml:"llm_api_path"`
	LLMAPIKey      string `json:"llm_api_key,omitempty" toml:"llm_api_key"`
	Model          string `json:"model,omitempty" toml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" toml:"timeout_seconds"`

	// Generation
	Temperature float64 `json:"temperature" toml:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty" toml:"max_tokens"`
	TopP        float64 `json:"top_p,omitempty" toml:"top_p"`

	// Chunking
	ChunkSize      int     `json:"chunk_size,omitempty" toml:"chunk_size"`
	ChunkOverlap   int     `json:"chunk_overlap" toml:"chunk_overlap"`
	MaxInputLength int     `json:"max_input_length,omitempty" toml:"max_input_length"`
	RateLimit      float64 `json:"rate_limit" toml:"rate_limit"`

	// Chat storage
	StoreBackend string `json:"store_backend,omitempty" toml:"store_backend"`
	StorePath    string `json:"store_path,omitempty" toml:"store_path"`

	// Broadcast of finalized messages
	NotifyBackend  string `json:"notify_backend,omitempty" toml:"notify_backend"`
	NotifyURL      string `json:"notify_url,omitempty" toml:"notify_url"`
	NotifySubject  string `json:"notify_subject,omitempty" toml:"notify_subject"`
	NotifyEncoding string `json:"notify_encoding,omitempty" toml:"notify_encoding"`

	LogFile string `json:"log_file,omitempty" toml:"log_file"`
}

var (
	configDir  string
	configFile string
	current    *Config
)

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir = filepath.Join(home, ".config", "blockify")
	configFile = filepath.Join(configDir, "config.json")
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	storeCfg := store.DefaultConfig()
	return &Config{
		LLMBaseURL:     llm.DefaultBaseURL,
		LLMAPIPath:     llm.DefaultAPIPath,
		Model:          llm.DefaultModel,
		TimeoutSeconds: int(llm.DefaultTimeout / time.Second),
		Temperature:    dispatcher.DefaultTemperature,
		MaxTokens:      dispatcher.DefaultMaxTokens,
		TopP:           dispatcher.DefaultTopP,
		ChunkSize:      chunker.DefaultChunkSize,
		ChunkOverlap:   chunker.DefaultOverlap,
		MaxInputLength: conversation.DefaultMaxInputLength,
		StoreBackend:   storeCfg.Backend,
		StorePath:      filepath.Join(configDir, "chats.db"),
		NotifyBackend:  notify.BackendNone,
		NotifyEncoding: string(notify.EncodingJSON),
		LogFile:        filepath.Join(configDir, "blockify.log"),
	}
}

// SetDefaults fills zero values from Default. Temperature, ChunkOverlap and
// RateLimit are left alone because zero is a valid setting for each.
func (c *Config) SetDefaults() {
	d := Default()
	if c.LLMBaseURL == "" {
		c.LLMBaseURL = d.LLMBaseURL
	}
	if c.LLMAPIPath == "" {
		c.LLMAPIPath = d.LLMAPIPath
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.TopP == 0 {
		c.TopP = d.TopP
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = d.ChunkSize
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.MaxInputLength == 0 {
		c.MaxInputLength = d.MaxInputLength
	}
	if c.StoreBackend == "" {
		c.StoreBackend = d.StoreBackend
	}
	if c.StorePath == "" {
		c.StorePath = d.StorePath
	}
	if c.NotifyBackend == "" {
		c.NotifyBackend = d.NotifyBackend
	}
	if c.NotifyEncoding == "" {
		c.NotifyEncoding = d.NotifyEncoding
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
}

// tomlPath is the alternative config file checked before the JSON one
func tomlPath() string {
	return filepath.Join(configDir, "config.toml")
}

// Load reads the config from disk. The result holds file values plus
// defaults; environment overrides are applied by Effective.
func Load() (*Config, error) {
	if current != nil {
		return current, nil
	}

	loadDotEnv()

	// Values missing from the file keep their defaults
	cfg := Default()
	if _, err := os.Stat(tomlPath()); err == nil {
		configFile = tomlPath()
		if _, err := toml.DecodeFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configFile)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.SetDefaults()
	current = cfg
	return current, nil
}

// loadDotEnv loads .env files without overriding variables already set
func loadDotEnv() {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Save writes the config to disk in the format of the active file
func Save(cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if strings.HasSuffix(configFile, ".toml") {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = []byte(sb.String())
	} else {
		var err error
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	current = cfg
	return nil
}

// Get returns the current config, loading if necessary
func Get() *Config {
	if current == nil {
		if _, err := Load(); err != nil {
			current = Default()
		}
	}
	return current
}

// Effective returns a copy of the current config with BLOCKIFY_* overrides
// applied.
func Effective() *Config {
	cfg := *Get()
	cfg.ApplyEnvOverrides()
	return &cfg
}

// ApplyEnvOverrides replaces values with BLOCKIFY_<KEY> variables. Values
// that fail to parse are ignored.
func (c *Config) ApplyEnvOverrides() {
	for _, k := range keys {
		if v, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(k.name)); ok && v != "" {
			_ = k.set(c, v)
		}
	}
}

// Validate checks every setting and reports all problems at once
func (c *Config) Validate() error {
	var errs ValidationErrors

	if u, err := url.Parse(c.LLMBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{Field: "llm_base_url", Message: fmt.Sprintf("invalid URL %q", c.LLMBaseURL)})
	}
	if !strings.HasPrefix(c.LLMAPIPath, "/") {
		errs = append(errs, ValidationError{Field: "llm_api_path", Message: "must start with /"})
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{Field: "timeout_seconds", Message: "must be positive"})
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "temperature", Message: "must be between 0 and 2"})
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, ValidationError{Field: "max_tokens", Message: "must be positive"})
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, ValidationError{Field: "top_p", Message: "must be in (0, 1]"})
	}
	if err := chunker.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		errs = append(errs, ValidationError{Field: "chunk_size", Message: err.Error()})
	}
	if c.MaxInputLength <= 0 {
		errs = append(errs, ValidationError{Field: "max_input_length", Message: "must be positive"})
	}
	if c.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "rate_limit", Message: "cannot be negative"})
	}
	switch c.StoreBackend {
	case store.BackendSQLite, store.BackendFile:
	default:
		errs = append(errs, ValidationError{Field: "store_backend", Message: fmt.Sprintf("unknown backend %q", c.StoreBackend)})
	}
	switch c.NotifyBackend {
	case notify.BackendNone, notify.BackendNATS, notify.BackendRedis:
	default:
		errs = append(errs, ValidationError{Field: "notify_backend", Message: fmt.Sprintf("unknown backend %q", c.NotifyBackend)})
	}
	switch notify.Encoding(c.NotifyEncoding) {
	case notify.EncodingJSON, notify.EncodingMsgpack:
	default:
		errs = append(errs, ValidationError{Field: "notify_encoding", Message: fmt.Sprintf("unknown encoding %q", c.NotifyEncoding)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LLM returns the transport settings
func (c *Config) LLM() llm.ClientConfig {
	return llm.ClientConfig{
		BaseURL: c.LLMBaseURL,
		APIPath: c.LLMAPIPath,
		APIKey:  c.LLMAPIKey,
		Model:   c.Model,
		Timeout: time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// Dispatcher returns the chunk dispatch settings
func (c *Config) Dispatcher() dispatcher.Config {
	cfg := dispatcher.Config{
		ChunkSize: c.ChunkSize,
		Overlap:   c.ChunkOverlap,
		Options: llm.Options{
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			TopP:        c.TopP,
		},
	}
	if c.RateLimit > 0 {
		cfg.Limiter = rate.NewLimiter(rate.Limit(c.RateLimit), 1)
	}
	return cfg
}

// Store returns the chat store settings
func (c *Config) Store() store.Config {
	return store.Config{Backend: c.StoreBackend, Path: c.StorePath}
}

// Notify returns the broadcast settings
func (c *Config) Notify() notify.Config {
	return notify.Config{
		Backend:  c.NotifyBackend,
		URL:      c.NotifyURL,
		Subject:  c.NotifySubject,
		Encoding: notify.Encoding(c.NotifyEncoding),
	}
}

// key describes one settable config entry
type key struct {
	name    string
	aliases []string
	secret  bool
	get     func(*Config) string
	set     func(*Config, string) error
}

func stringKey(name string, field func(*Config) *string, aliases ...string) key {
	return key{
		name:    name,
		aliases: aliases,
		get:     func(c *Config) string { return *field(c) },
		set:     func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(*Config) *int, aliases ...string) key {
	return key{
		name:    name,
		aliases: aliases,
		get:     func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			if v == "" {
				*field(c) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s must be an integer: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, field func(*Config) *float64, aliases ...string) key {
	return key{
		name:    name,
		aliases: aliases,
		get:     func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			if v == "" {
				*field(c) = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s must be a number: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

var keys = []key{
	stringKey("llm_base_url", func(c *Config) *string { return &c.LLMBaseURL }, "base_url", "url"),
	stringKey("llm_api_path", func(c *Config) *string { return &c.LLMAPIPath }, "api_path", "path"),
	func() key {
		k := stringKey("llm_api_key", func(c *Config) *string { return &c.LLMAPIKey }, "api_key", "key")
		k.secret = true
		return k
	}(),
	stringKey("model", func(c *Config) *string { return &c.Model }),
	intKey("timeout_seconds", func(c *Config) *int { return &c.TimeoutSeconds }, "timeout"),
	floatKey("temperature", func(c *Config) *float64 { return &c.Temperature }),
	intKey("max_tokens", func(c *Config) *int { return &c.MaxTokens }),
	floatKey("top_p", func(c *Config) *float64 { return &c.TopP }),
	intKey("chunk_size", func(c *Config) *int { return &c.ChunkSize }),
	intKey("chunk_overlap", func(c *Config) *int { return &c.ChunkOverlap }, "overlap"),
	intKey("max_input_length", func(c *Config) *int { return &c.MaxInputLength }),
	floatKey("rate_limit", func(c *Config) *float64 { return &c.RateLimit }),
	stringKey("store_backend", func(c *Config) *string { return &c.StoreBackend }, "store"),
	stringKey("store_path", func(c *Config) *string { return &c.StorePath }),
	stringKey("notify_backend", func(c *Config) *string { return &c.NotifyBackend }, "notify"),
	stringKey("notify_url", func(c *Config) *string { return &c.NotifyURL }),
	stringKey("notify_subject", func(c *Config) *string { return &c.NotifySubject }),
	stringKey("notify_encoding", func(c *Config) *string { return &c.NotifyEncoding }, "encoding"),
	stringKey("log_file", func(c *Config) *string { return &c.LogFile }),
}

func lookup(name string) (key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range keys {
		if k.name == name {
			return k, true
		}
		for _, a := range k.aliases {
			if a == name {
				return k, true
			}
		}
	}
	return key{}, false
}

// Set updates a config value by key. The result must validate before it
// is saved.
func Set(name, value string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	k, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	next := *cfg
	if err := k.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	return Save(&next)
}

// Delete resets a config value to its default
func Delete(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	k, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	next := *cfg
	if err := k.set(&next, k.get(Default())); err != nil {
		return err
	}
	next.SetDefaults()
	return Save(&next)
}

// Value returns the effective value of a key, masked when secret
func Value(name string) (string, error) {
	k, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	v := k.get(Effective())
	if k.secret && v != "" {
		v = maskKey(v)
	}
	return v, nil
}

// ListKeys returns configured values keyed by name, secrets masked and
// environment overrides marked.
func ListKeys() map[string]string {
	file := Get()
	eff := Effective()
	result := make(map[string]string)

	for _, k := range keys {
		v := k.get(eff)
		if v == "" {
			continue
		}
		display := v
		if k.secret {
			display = maskKey(v)
		}
		if k.get(file) != v {
			display += " (env)"
		}
		result[k.name] = display
	}
	return result
}

// KeyNames returns every supported key in display order
func KeyNames() []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names
}

// SortedKeys returns the keys of m in alphabetical order
func SortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// maskKey shows only first 4 and last 4 characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return configFile
}

// Dir returns the config directory
func Dir() string {
	return configDir
}

// TemplatePaths returns the project-local and global template directories
func TemplatePaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".blockify", "templates"))
	}
	return append(paths, filepath.Join(configDir, "templates"))
}
