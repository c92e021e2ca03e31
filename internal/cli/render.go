// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Response rendering for the lmchat CLI.
//
// Responses stream as plain text while tokens arrive, then markdown-render
// the final result when stdout is a TTY. Piped output stays plain so it
// never carries ANSI sequences.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	width := 80
	if w := TerminalWidth(); w < width {
		width = w
	}
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns
// the original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints a finished response, markdown-rendered on a TTY.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// STREAM PRINTER
// =============================================================================

// StreamPrinter prints a cumulatively updated string as it grows. Each
// call receives the full content so far; the printer emits only what is
// new. Content can also shrink or rewrite itself mid-stream (a thinking
// block closing re-splits the text), in which case the printer starts a
// fresh line with the new content.
type StreamPrinter struct {
	printed string
}

// Print emits the unprinted portion of content.
func (p *StreamPrinter) Print(content string) {
	if content == p.printed {
		return
	}
	if strings.HasPrefix(content, p.printed) {
		fmt.Print(content[len(p.printed):])
	} else {
		if p.printed != "" {
			fmt.Println()
		}
		fmt.Print(content)
	}
	p.printed = content
}

// Printed reports how much content has been emitted.
func (p *StreamPrinter) Printed() string {
	return p.printed
}

// Reset prepares the printer for the next response.
func (p *StreamPrinter) Reset() {
	p.printed = ""
}
