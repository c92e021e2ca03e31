// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"time"

	"github.com/jeranaias/lmchat/internal/config"
)

// BuildSystemPrompt assembles the system prompt from the base text plus
// the optional time and location lines.
func BuildSystemPrompt(pc *config.PromptConfig, now time.Time) string {
	var parts []string

	if base := strings.TrimSpace(pc.System); base != "" {
		parts = append(parts, base)
	}
	if pc.AppendTime {
		parts = append(parts, "The current local time is "+now.Format("Monday, January 2, 2006 at 3:04 PM")+".")
	}
	if pc.AppendLocation && strings.TrimSpace(pc.LocationText) != "" {
		parts = append(parts, "The user is located in "+strings.TrimSpace(pc.LocationText)+".")
	}

	return strings.Join(parts, " ")
}
