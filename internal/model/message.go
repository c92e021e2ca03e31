// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/lmchat/internal/think"
	"github.com/jeranaias/lmchat/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation.
//
// Content never contains raw <think> delimiters: SetContent strips the
// first reasoning block into ThinkingContent and keeps the remainder as
// the visible content.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content is the visible text. For an in-flight assistant message it
	// is rewritten repeatedly as streaming progresses.
	Content string `json:"content"`

	// ThinkingContent is the reasoning segment extracted from Content.
	// Derived; recomputed on every SetContent.
	ThinkingContent string `json:"thinking_content,omitempty"`

	// ShowThinking is a display preference persisted with the message.
	// It has no effect on protocol behavior.
	ShowThinking bool `json:"show_thinking,omitempty"`
}

// NewMessage creates a message with a generated ID and derived thinking
// content.
func NewMessage(role Role, content string) *Message {
	m := &Message{
		ID:        newID("msg"),
		Role:      role,
		CreatedAt: time.Now(),
	}
	m.SetContent(content)
	return m
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant message, the placeholder
// that an in-flight generation rewrites.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        newID("msg"),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
	}
}

// SetContent replaces the message text, re-deriving ThinkingContent.
// Raw content containing a complete <think>...</think> block is split;
// anything else is stored as-is.
func (m *Message) SetContent(raw string) {
	thinking, visible := think.Split(raw)
	m.ThinkingContent = thinking
	m.Content = visible
}

// IsEmpty returns true if the message has neither visible nor thinking
// content.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.ThinkingContent == ""
}

// HasThinking returns true if a reasoning segment was extracted.
func (m *Message) HasThinking() bool {
	return m.ThinkingContent != ""
}

// Preview returns a truncated single-line preview of the visible content.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(m.Content, maxRunes)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newID creates a unique prefixed identifier.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
