// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", cfg.DefaultModel)
	assert.Equal(t, "http://localhost:11434", cfg.Server.URL)
	assert.InDelta(t, 0.7, cfg.Generation.Temperature, 1e-9)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_model = "qwen2.5-coder:7b"

[server]
url = "http://192.168.1.50:11434"

[generation]
temperature = 0.2
max_tokens = 2048

[prompt]
system = "You are a terse coding assistant."
append_time = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qwen2.5-coder:7b", cfg.DefaultModel)
	assert.Equal(t, "http://192.168.1.50:11434", cfg.Server.URL)
	assert.InDelta(t, 0.2, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.Generation.MaxTokens)
	assert.True(t, cfg.Prompt.AppendTime)
}

func TestLoadJSONFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `{"default_model": "mistral", "server": {"url": "http://localhost:9999"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.DefaultModel)
	assert.Equal(t, "http://localhost:9999", cfg.Server.URL)
	// Unset sections get defaults.
	assert.Equal(t, "You are a helpful assistant.", cfg.Prompt.System)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml = = = nor json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPartialConfigFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_model = "phi3"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "phi3", cfg.DefaultModel)
	assert.Equal(t, "http://localhost:11434", cfg.Server.URL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LMCHAT_MODEL", "gemma2")
	t.Setenv("LMCHAT_SERVER_URL", "http://envhost:11434")
	t.Setenv("LMCHAT_TEMPERATURE", "1.5")
	t.Setenv("LMCHAT_MAX_TOKENS", "512")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gemma2", cfg.DefaultModel)
	assert.Equal(t, "http://envhost:11434", cfg.Server.URL)
	assert.InDelta(t, 1.5, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_model = "from-file"`), 0o644))
	t.Setenv("LMCHAT_MODEL", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DefaultModel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 2.5 }, true},
		{"temperature negative", func(c *Config) { c.Generation.Temperature = -0.1 }, true},
		{"temperature upper bound", func(c *Config) { c.Generation.Temperature = 2.0 }, false},
		{"negative max tokens", func(c *Config) { c.Generation.MaxTokens = -1 }, true},
		{"negative max conversations", func(c *Config) { c.Storage.MaxConversations = -1 }, true},
		{"bad server url", func(c *Config) { c.Server.URL = "localhost:11434" }, true},
		{"https url", func(c *Config) { c.Server.URL = "https://ollama.local" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "llama3.3:70b"
	cfg.Generation.Temperature = 0.3
	cfg.Prompt.AppendLocation = true
	cfg.Prompt.LocationText = "Portland, OR"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.DefaultModel, loaded.DefaultModel)
	assert.InDelta(t, cfg.Generation.Temperature, loaded.Generation.Temperature, 1e-9)
	assert.True(t, loaded.Prompt.AppendLocation)
	assert.Equal(t, "Portland, OR", loaded.Prompt.LocationText)

	// The file carries the explanatory header.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# lmchat configuration")
}

func TestConversationsDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/tmp/custom"
	dir, err := cfg.ConversationsDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", dir)

	cfg.Storage.Dir = ""
	dir, err = cfg.ConversationsDir()
	require.NoError(t, err)
	assert.Contains(t, dir, ".lmchat")
}
