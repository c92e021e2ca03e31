// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/lmchat/internal/config"
)

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2025, time.March, 14, 15, 9, 0, 0, time.UTC)

	tests := []struct {
		name string
		pc   config.PromptConfig
		want string
	}{
		{
			name: "base only",
			pc:   config.PromptConfig{System: "Be concise."},
			want: "Be concise.",
		},
		{
			name: "empty",
			pc:   config.PromptConfig{},
			want: "",
		},
		{
			name: "with time",
			pc:   config.PromptConfig{System: "Be concise.", AppendTime: true},
			want: "Be concise. The current local time is Friday, March 14, 2025 at 3:09 PM.",
		},
		{
			name: "with location",
			pc:   config.PromptConfig{System: "Be concise.", AppendLocation: true, LocationText: "Austin, TX"},
			want: "Be concise. The user is located in Austin, TX.",
		},
		{
			name: "location flag without text",
			pc:   config.PromptConfig{System: "Be concise.", AppendLocation: true},
			want: "Be concise.",
		},
		{
			name: "time and location without base",
			pc:   config.PromptConfig{AppendTime: true, AppendLocation: true, LocationText: "Austin, TX"},
			want: "The current local time is Friday, March 14, 2025 at 3:09 PM. The user is located in Austin, TX.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSystemPrompt(&tt.pc, now))
		})
	}
}
