// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides SQLite-backed search over conversation history.
//
// The index is derived from the JSON conversation store and can be rebuilt
// from it at any time, so index corruption or schema changes never threaten
// the conversations themselves.
package index
