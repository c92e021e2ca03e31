// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates chat generation against the active
// conversation.
//
// The Controller is a two-state machine, idle or generating, with exactly
// one request in flight at a time. Each request carries a monotonically
// increasing token; stream updates are applied only while their token is
// current, so a cancelled request can never overwrite its successor.
// Conversation state is persisted on every change, throttled during
// streaming with a guaranteed final save.
//
// # Key Types
//
//   - Controller: owns the active conversation and the generation lifecycle
//   - ChatClient, Store: dependency interfaces satisfied by the ollama and
//     storage packages
//
// # Usage
//
//	ctrl := session.NewController(client, store, cfg)
//	ctrl.OnUpdate(func(conv *model.Conversation, done bool) { render(conv) })
//	err := ctrl.Submit(ctx, "explain goroutines")
package session
