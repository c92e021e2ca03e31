// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for lmchat.
//
// # Contents
//
//   - AtomicWriteFile: crash-safe file writes (temp file + fsync + rename)
//   - TruncateRunes / TruncateWidth: Unicode-safe string truncation
//   - FirstWords: word-based prefix extraction for titles
package util
