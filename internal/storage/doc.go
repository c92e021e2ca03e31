// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations to disk as JSON files.
//
// Each conversation lives in its own file named by id under the base
// directory. Writes go through an atomic temp-file-and-rename so a crash
// mid-save never corrupts an existing record. Reads tolerate corruption:
// LoadAll skips files it cannot parse instead of failing the whole listing.
//
// # Key Types
//
//   - Store: thread-safe conversation persistence (Save, Load, LoadAll,
//     Delete, Prune)
//   - StoreError: wraps failures with the operation and conversation id
//
// # Usage
//
//	store, err := storage.NewStore(filepath.Join(home, ".lmchat", "conversations"))
//	convs, err := store.LoadAll() // newest first
package storage
