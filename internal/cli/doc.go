// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the interactive chat REPL.
//
// The REPL uses liner for line editing and history, lipgloss for styling,
// and glamour for markdown rendering of finished responses. Slash commands
// cover conversation management, model selection, search, and export.
package cli
