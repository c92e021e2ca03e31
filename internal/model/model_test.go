// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewAssistantMessage_Empty(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.IsEmpty() {
		t.Error("placeholder should be empty")
	}
}

func TestMessage_SetContent_DerivesThinking(t *testing.T) {
	msg := NewAssistantMessage()

	msg.SetContent("<think>chain of reasoning</think>Final answer")

	if msg.ThinkingContent != "chain of reasoning" {
		t.Errorf("ThinkingContent = %q", msg.ThinkingContent)
	}
	if msg.Content != "Final answer" {
		t.Errorf("Content = %q, want %q", msg.Content, "Final answer")
	}
	if strings.Contains(msg.Content, "<think>") {
		t.Error("Content must not contain raw delimiters")
	}
}

func TestMessage_SetContent_Rewrite(t *testing.T) {
	// Streaming rewrites content repeatedly; the split must track the
	// latest cumulative text.
	msg := NewAssistantMessage()

	msg.SetContent("<think>part")
	if msg.Content != "<think>part" || msg.ThinkingContent != "" {
		t.Errorf("open block: Content = %q, Thinking = %q", msg.Content, msg.ThinkingContent)
	}

	msg.SetContent("<think>part done</think>Hel")
	if msg.Content != "Hel" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hel")
	}
	if msg.ThinkingContent != "part done" {
		t.Errorf("ThinkingContent = %q, want %q", msg.ThinkingContent, "part done")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation("qwen3:8b")

	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID = %q, want conv_ prefix", conv.ID)
	}
	if conv.Model != "qwen3:8b" {
		t.Errorf("Model = %q, want %q", conv.Model, "qwen3:8b")
	}
	if conv.GetTitle() != DefaultTitle {
		t.Errorf("GetTitle = %q, want %q", conv.GetTitle(), DefaultTitle)
	}
	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}
}

func TestConversation_TitleDerivation(t *testing.T) {
	conv := NewConversation("m")
	conv.AddMessage(NewUserMessage("How do I write a table driven test in Go please"))

	want := "How do I write a table..."
	if conv.Title != want {
		t.Errorf("Title = %q, want %q", conv.Title, want)
	}
}

func TestConversation_TitleShortMessage(t *testing.T) {
	conv := NewConversation("m")
	conv.AddMessage(NewUserMessage("hi there"))

	if conv.Title != "hi there" {
		t.Errorf("Title = %q, want %q (no ellipsis)", conv.Title, "hi there")
	}
}

func TestConversation_TitleNotOverwritten(t *testing.T) {
	conv := NewConversation("m")
	conv.AddMessage(NewUserMessage("first message"))
	conv.AddMessage(NewUserMessage("second message that is longer than the first one here"))

	if conv.Title != "first message" {
		t.Errorf("Title = %q, want to keep first derivation", conv.Title)
	}
}

func TestConversation_RemoveMessage(t *testing.T) {
	conv := NewConversation("m")
	user := NewUserMessage("hello")
	placeholder := NewAssistantMessage()
	conv.AddMessage(user)
	conv.AddMessage(placeholder)

	if !conv.RemoveMessage(placeholder.ID) {
		t.Fatal("RemoveMessage should report removal")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", conv.MessageCount())
	}
	if conv.RemoveMessage(placeholder.ID) {
		t.Error("second removal should report false")
	}
}

func TestConversation_MessageByID(t *testing.T) {
	conv := NewConversation("m")
	msg := NewUserMessage("find me")
	conv.AddMessage(msg)

	if got := conv.MessageByID(msg.ID); got != msg {
		t.Error("MessageByID should return the appended message")
	}
	if got := conv.MessageByID("missing"); got != nil {
		t.Error("MessageByID for unknown ID should return nil")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation("m")
	conv.AddMessage(NewUserMessage("original"))

	clone := conv.Clone()
	clone.Messages[0].SetContent("mutated")

	if conv.Messages[0].Content != "original" {
		t.Error("mutating clone must not affect original")
	}
	if clone.ID != conv.ID {
		t.Errorf("clone ID = %q, want %q", clone.ID, conv.ID)
	}
}

func TestDeriveTitle_Empty(t *testing.T) {
	if got := DeriveTitle("   "); got != DefaultTitle {
		t.Errorf("DeriveTitle(blank) = %q, want %q", got, DefaultTitle)
	}
}
