// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package think

import "strings"

const (
	startTag = "<think>"
	endTag   = "</think>"
)

// Split separates the first <think>...</think> block from the visible
// content of a model reply.
//
// When both delimiters are present and the end follows the start, the text
// strictly between them (trimmed) is returned as thinking, and everything
// strictly after the end delimiter (trimmed) becomes the visible content.
// Absent or unbalanced delimiters return ("", content) unchanged.
//
// Only the first delimiter pair is honored: any later <think> blocks remain
// part of the visible content as plain text. Split is idempotent - its
// output contains no delimiters, so re-splitting is a no-op.
func Split(content string) (thinking, visible string) {
	start := strings.Index(content, startTag)
	if start < 0 {
		return "", content
	}

	rest := content[start+len(startTag):]
	end := strings.Index(rest, endTag)
	if end < 0 {
		// Unterminated block, e.g. mid-stream. Leave content untouched
		// so partial output stays visible until the block closes.
		return "", content
	}

	thinking = strings.TrimSpace(rest[:end])
	visible = strings.TrimSpace(rest[end+len(endTag):])
	return thinking, visible
}

// HasOpenBlock reports whether content contains a <think> delimiter without
// a matching close. Useful for display layers that want to style an
// in-progress reasoning segment.
func HasOpenBlock(content string) bool {
	start := strings.Index(content, startTag)
	if start < 0 {
		return false
	}
	return !strings.Contains(content[start+len(startTag):], endTag)
}
