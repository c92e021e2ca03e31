// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one turn with visible content and derived thinking content
//   - Conversation: ordered transcript with metadata and derived title
//   - Role: user / assistant / system
//
// Messages are addressed by ID and mutated through their owning
// Conversation; nothing in this package shares mutable references across
// goroutines.
package model
