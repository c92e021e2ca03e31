// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package think separates reasoning segments from visible model output.
//
// Some local models (DeepSeek-R1, QwQ and friends) emit an intermediate
// reasoning block wrapped in <think>...</think> before the final answer.
// Split extracts that block so the display layer can show or hide it
// independently of the answer text.
//
// Split is a pure function and idempotent; callers re-run it every time a
// message's content is replaced during streaming.
package think
