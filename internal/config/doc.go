// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles application configuration.
//
// Configuration lives at ~/.lmchat/config.toml. Loading tries TOML first
// and falls back to JSON for files written by older versions. Environment
// variables prefixed LMCHAT_ override file values. A Watcher can reload
// the file while the app runs.
//
// # Key Types
//
//   - Config: top-level configuration with server, generation, prompt,
//     and storage sections
//   - Watcher: fsnotify-based live reload of the config file
//
// # Usage
//
//	path, _ := config.Path()
//	cfg, err := config.Load(path)
package config
