// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/lmchat/internal/model"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func conversationWith(msgs ...string) *model.Conversation {
	conv := model.NewConversation("llama3.2")
	for i, text := range msgs {
		var msg *model.Message
		if i%2 == 0 {
			msg = model.NewUserMessage(text)
		} else {
			msg = model.NewAssistantMessage()
			msg.SetContent(text)
		}
		conv.AddMessage(msg)
	}
	return conv
}

func TestSearchFindsMessage(t *testing.T) {
	ix := newTestIndex(t)

	conv := conversationWith("How do goroutines work?", "A goroutine is a lightweight thread managed by the Go runtime.")
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}

	results, err := ix.Search("goroutine", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.ConversationID != conv.ID {
			t.Errorf("ConversationID = %q, want %q", r.ConversationID, conv.ID)
		}
		if !strings.Contains(strings.ToLower(r.Snippet), "goroutine") {
			t.Errorf("snippet %q does not contain match", r.Snippet)
		}
	}
}

func TestSearchNoMatch(t *testing.T) {
	ix := newTestIndex(t)

	conv := conversationWith("Tell me about channels")
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}

	results, err := ix.Search("kubernetes", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	ix := newTestIndex(t)
	results, err := ix.Search("   ", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results != nil {
		t.Errorf("Search(blank) = %v, want nil", results)
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	ix := newTestIndex(t)

	conv := conversationWith("literal percent 100% here", "no wildcards")
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}

	// "100%" should match only the literal text, and "1__%" should not
	// act as a pattern.
	results, err := ix.Search("100%", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search(100%%) got %d results, want 1", len(results))
	}

	results, err = ix.Search("1__%", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search(1__%%) got %d results, want 0", len(results))
	}
}

func TestReindexReplacesRows(t *testing.T) {
	ix := newTestIndex(t)

	conv := conversationWith("original phrase alpha")
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}

	conv.Messages[0].Content = "replacement phrase beta"
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("re-IndexConversation() error = %v", err)
	}

	if results, _ := ix.Search("alpha", 10); len(results) != 0 {
		t.Errorf("stale rows survived reindex: %d hits for alpha", len(results))
	}
	if results, _ := ix.Search("beta", 10); len(results) != 1 {
		t.Errorf("got %d hits for beta, want 1", len(results))
	}
}

func TestRemove(t *testing.T) {
	ix := newTestIndex(t)

	conv := conversationWith("find me")
	if err := ix.IndexConversation(conv); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}
	if err := ix.Remove(conv.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	results, err := ix.Search("find me", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results after Remove, want 0", len(results))
	}
}

func TestRebuild(t *testing.T) {
	ix := newTestIndex(t)

	old := conversationWith("stale content")
	if err := ix.IndexConversation(old); err != nil {
		t.Fatalf("IndexConversation() error = %v", err)
	}

	fresh := conversationWith("fresh content")
	if err := ix.Rebuild([]*model.Conversation{fresh}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if results, _ := ix.Search("stale", 10); len(results) != 0 {
		t.Error("stale conversation survived Rebuild")
	}
	if results, _ := ix.Search("fresh", 10); len(results) != 1 {
		t.Error("rebuilt conversation not searchable")
	}
}

func TestSnippetWindow(t *testing.T) {
	long := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	got := snippet(long, "needle", 80)
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet %q lost the match", got)
	}
	if len(got) > 90 {
		t.Errorf("snippet length = %d, want <= 90", len(got))
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("snippet %q missing ellipses", got)
	}
}
