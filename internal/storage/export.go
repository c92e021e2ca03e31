// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/lmchat/internal/model"
)

// =============================================================================
// EXPORT
// =============================================================================

// ExportFormat selects the output format for ExportConversation.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatJSON     ExportFormat = "json"
)

// ExportConversation renders a conversation for sharing outside the app.
func ExportConversation(conv *model.Conversation, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(conv, "", "  ")
	case FormatMarkdown, "":
		return exportMarkdown(conv), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

func exportMarkdown(conv *model.Conversation) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", conv.GetTitle())
	if conv.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", conv.Model)
	}
	fmt.Fprintf(&b, "Date: %s\n\n", conv.CreatedAt.Format("2006-01-02 15:04"))

	for _, msg := range conv.Messages {
		fmt.Fprintf(&b, "## %s\n\n", msg.Role.DisplayName())
		if msg.HasThinking() {
			b.WriteString("<details>\n<summary>Thinking</summary>\n\n")
			b.WriteString(msg.ThinkingContent)
			b.WriteString("\n\n</details>\n\n")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}

	return []byte(b.String())
}
