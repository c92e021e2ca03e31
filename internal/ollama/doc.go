// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama implements the HTTP client for the Ollama API.
//
// The client supports streaming chat completions over newline-delimited
// JSON, model listing, and server availability checks. Streaming delivers
// cumulative content through a callback: each update carries the full
// assistant text so far, so consumers replace rather than append.
//
// # Key Types
//
//   - Client: HTTP client with configurable server URL and timeouts
//   - ClientError: typed errors distinguishing unreachable server,
//     malformed responses, and caller cancellation
//   - StreamReader: NDJSON stream processor that skips malformed lines
//   - Update: one cumulative delivery, final when Done is set
//
// # Usage
//
//	client := ollama.NewClient(ollama.DefaultConfig())
//	err := client.ChatStream(ctx, req, func(u ollama.Update) {
//	    render(u.Content)
//	})
//	if ollama.IsCancelled(err) {
//	    // user interrupted, partial content stands
//	}
package ollama
