// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/lmchat/internal/util"
)

// TitleWords is how many leading words of the first message become the
// conversation title.
const TitleWords = 6

// DefaultTitle is used for conversations with no messages yet.
const DefaultTitle = "New Conversation"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered chat transcript with metadata.
//
// Messages keep insertion order; the transcript is replayed verbatim as
// context on every generation request.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Model used for the next assistant reply. Switching models applies
	// to subsequent requests only, never retroactively.
	Model string `json:"model"`

	Messages []*Message `json:"messages"`
}

// NewConversation creates a conversation with a generated ID.
func NewConversation(modelName string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        newID("conv"),
		CreatedAt: now,
		UpdatedAt: now,
		Model:     modelName,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and derives the title on first content.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.deriveTitle()
}

// RemoveMessage removes a message by ID. Returns true if it was present.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// MessageByID returns a message by its ID, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// deriveTitle sets the title from the first message once it has content.
func (c *Conversation) deriveTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Content != "" {
			c.Title = DeriveTitle(msg.Content)
			return
		}
	}
}

// DeriveTitle builds a conversation title from message content: the first
// TitleWords words, with an ellipsis when truncated.
func DeriveTitle(content string) string {
	title, truncated := util.FirstWords(content, TitleWords)
	if title == "" {
		return DefaultTitle
	}
	if truncated {
		return title + "..."
	}
	return title
}

// GetTitle returns the title, or DefaultTitle when unset.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Preview returns a short preview of the first user message.
func (c *Conversation) Preview(maxRunes int) string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(maxRunes)
		}
	}
	return ""
}

// Clone creates a deep copy of the conversation. Useful for handing a
// stable snapshot to observers while streaming mutates the original.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Model:     c.Model,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}
