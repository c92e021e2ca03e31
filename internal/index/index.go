// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/lmchat/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL,
	message_id      TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	PRIMARY KEY (conversation_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_messages_content ON messages(content);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	model      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// =============================================================================
// INDEX
// =============================================================================

// Index maintains a SQLite full-content search index over conversation
// messages. The index is derived data: the JSON store on disk remains the
// source of truth and the index can be rebuilt from it at any time.
type Index struct {
	db *sql.DB
}

// Result is one search hit.
type Result struct {
	ConversationID string
	Title          string
	MessageID      string
	Role           string
	Snippet        string
	CreatedAt      time.Time
}

// Open opens (or creates) the index database at path. Use ":memory:" for
// an ephemeral index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// modernc sqlite is serialized per connection; a single connection
	// avoids table-lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// IndexConversation replaces all index rows for conv with its current
// messages.
func (ix *Index) IndexConversation(conv *model.Conversation) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO conversations (id, title, model, updated_at) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.GetTitle(), conv.Model, conv.UpdatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (conversation_id, message_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}
	defer stmt.Close()

	for _, msg := range conv.Messages {
		if msg.Content == "" {
			continue
		}
		if _, err := stmt.Exec(conv.ID, msg.ID, msg.Role.String(), msg.Content, msg.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("index conversation: %w", err)
		}
	}
	return tx.Commit()
}

// Remove drops a conversation from the index.
func (ix *Index) Remove(conversationID string) error {
	if _, err := ix.db.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}
	if _, err := ix.db.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}
	return nil
}

// Rebuild clears the index and re-indexes every conversation.
func (ix *Index) Rebuild(convs []*model.Conversation) error {
	if _, err := ix.db.Exec(`DELETE FROM messages`); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if _, err := ix.db.Exec(`DELETE FROM conversations`); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	for _, conv := range convs {
		if err := ix.IndexConversation(conv); err != nil {
			return err
		}
	}
	return nil
}

// Search returns messages whose content contains the query, newest first,
// capped at limit. Matching is case-insensitive substring.
func (ix *Index) Search(query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := ix.db.Query(`
		SELECT m.conversation_id, c.title, m.message_id, m.role, m.content, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.content LIKE ? ESCAPE '\'
		ORDER BY m.created_at DESC
		LIMIT ?`,
		"%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var content string
		var createdAt int64
		if err := rows.Scan(&r.ConversationID, &r.Title, &r.MessageID, &r.Role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}
		r.Snippet = snippet(content, query, 80)
		r.CreatedAt = time.Unix(0, createdAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

// escapeLike escapes LIKE metacharacters in a user query.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// snippet extracts a window of text around the first match of query.
func snippet(content, query string, width int) string {
	lower := strings.ToLower(content)
	pos := strings.Index(lower, strings.ToLower(query))
	if pos < 0 {
		pos = 0
	}

	start := pos - width/4
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(content) {
		end = len(content)
	}
	// Stay on rune boundaries.
	for start > 0 && content[start]&0xC0 == 0x80 {
		start--
	}
	for end < len(content) && content[end]&0xC0 == 0x80 {
		end++
	}

	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out += "..."
	}
	return out
}
