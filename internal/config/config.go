// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/lmchat/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the top-level application configuration.
type Config struct {
	// DefaultModel is used for new conversations.
	DefaultModel string `toml:"default_model" json:"default_model"`

	Server     ServerConfig     `toml:"server" json:"server"`
	Generation GenerationConfig `toml:"generation" json:"generation"`
	Prompt     PromptConfig     `toml:"prompt" json:"prompt"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
}

// ServerConfig configures the Ollama endpoint.
type ServerConfig struct {
	// URL of the Ollama server.
	URL string `toml:"url" json:"url"`
}

// GenerationConfig configures inference parameters.
type GenerationConfig struct {
	// Temperature controls sampling randomness (0.0-2.0).
	Temperature float64 `toml:"temperature" json:"temperature"`
	// MaxTokens caps response length. Zero means no cap.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// PromptConfig configures the system prompt sent with each request.
type PromptConfig struct {
	// System is the base system prompt.
	System string `toml:"system" json:"system"`
	// AppendTime adds the current local time to the system prompt.
	AppendTime bool `toml:"append_time" json:"append_time"`
	// AppendLocation adds LocationText to the system prompt.
	AppendLocation bool `toml:"append_location" json:"append_location"`
	// LocationText is the location line used when AppendLocation is set.
	LocationText string `toml:"location_text" json:"location_text"`
}

// StorageConfig configures conversation persistence.
type StorageConfig struct {
	// Dir is the conversation directory. Empty means ~/.lmchat/conversations.
	Dir string `toml:"dir" json:"dir"`
	// MaxConversations prunes the oldest conversations past this count.
	// Zero disables pruning.
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DefaultModel: "llama3.2",
		Server: ServerConfig{
			URL: "http://localhost:11434",
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
		},
		Prompt: PromptConfig{
			System: "You are a helpful assistant.",
		},
		Storage: StorageConfig{
			MaxConversations: 0,
		},
	}
}

// Dir returns the application config directory (~/.lmchat).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".lmchat"), nil
}

// Path returns the default config file path (~/.lmchat/config.toml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from path. TOML is tried first, then JSON for
// configs written by older versions. A missing file yields the defaults.
// Environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if tomlErr := toml.Unmarshal(data, cfg); tomlErr != nil {
		// Older releases wrote JSON.
		*cfg = *Default()
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, tomlErr)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies LMCHAT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LMCHAT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("LMCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("LMCHAT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Generation.Temperature = f
		}
	}
	if v := os.Getenv("LMCHAT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Generation.MaxTokens = n
		}
	}
	if v := os.Getenv("LMCHAT_SYSTEM_PROMPT"); v != "" {
		c.Prompt.System = v
	}
	if v := os.Getenv("LMCHAT_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
}

// fillDefaults replaces zero values with defaults after a partial config
// file load.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Prompt.System == "" {
		c.Prompt.System = def.Prompt.System
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("config: temperature %.2f out of range [0, 2]", c.Generation.Temperature)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("config: max_tokens must not be negative")
	}
	if c.Storage.MaxConversations < 0 {
		return fmt.Errorf("config: max_conversations must not be negative")
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("config: server url %q must start with http:// or https://", c.Server.URL)
	}
	return nil
}

// ConversationsDir resolves the conversation storage directory, falling
// back to ~/.lmchat/conversations when unset.
func (c *Config) ConversationsDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations"), nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	var b strings.Builder
	b.WriteString("# lmchat configuration\n")
	b.WriteString("# Environment variables (LMCHAT_*) override values in this file.\n\n")

	enc := toml.NewEncoder(&b)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
