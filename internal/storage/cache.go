// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/stellarum-tui/internal/model"
)

// CacheFileName is the database file name inside the data directory.
const CacheFileName = "cache.db"

// schema holds the cache layout. Messages carry their own (chat_id, id)
// primary key so merges are natural upserts; deletion cascades are done
// explicitly because the tables have separate owners.
const schema = `
CREATE TABLE IF NOT EXISTS chats (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    created_at TEXT NOT NULL,
    origin TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    chat_id INTEGER NOT NULL,
    id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    PRIMARY KEY (chat_id, id)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
`

// Cache is the SQLite-backed local store.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at dataDir/cache.db.
func Open(dataDir string) (*Cache, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return OpenPath(filepath.Join(dataDir, CacheFileName))
}

// OpenPath opens (or creates) the cache database at an explicit path.
func OpenPath(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time; the client is not a server.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// CHATS (registry-owned)
// =============================================================================

// LoadChats returns the cached conversation list in stored order.
func (c *Cache) LoadChats(ctx context.Context) ([]*model.Conversation, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, created_at, origin FROM chats ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		var (
			conv      model.Conversation
			createdAt string
			origin    string
		)
		if err := rows.Scan(&conv.ID, &conv.Title, &createdAt, &origin); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		conv.CreatedAt = parseStoredTime(createdAt)
		conv.Origin = model.Origin(origin)
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}

// ReplaceChats overwrites the cached conversation list with the given one,
// preserving slice order.
func (c *Cache) ReplaceChats(ctx context.Context, convs []*model.Conversation) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chats`); err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chats (id, title, created_at, origin, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, conv := range convs {
		if _, err := stmt.ExecContext(ctx, conv.ID, conv.Title,
			formatStoredTime(conv.CreatedAt), string(conv.Origin), i); err != nil {
			return fmt.Errorf("failed to insert chat %d: %w", conv.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteChat removes a conversation and its cached messages.
func (c *Cache) DeleteChat(ctx context.Context, id int64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return tx.Commit()
}

// =============================================================================
// MESSAGES (stream-owned)
// =============================================================================

// LoadMessages returns the cached message log for one conversation, ordered
// ascending by timestamp.
func (c *Cache) LoadMessages(ctx context.Context, chatID int64) ([]*model.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp FROM messages WHERE chat_id = ? ORDER BY timestamp ASC, id ASC`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var (
			msg  model.Message
			role string
			ts   string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.ConversationID = chatID
		msg.Role = model.Role(role)
		msg.Timestamp = parseStoredTime(ts)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// MergeMessages upserts messages into a conversation's cache. Re-merging the
// same messages is a no-op apart from refreshing content and timestamps.
func (c *Cache) MergeMessages(ctx context.Context, chatID int64, msgs []*model.Message) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (chat_id, id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, id) DO UPDATE SET
			role = excluded.role,
			content = excluded.content,
			timestamp = excluded.timestamp`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if _, err := stmt.ExecContext(ctx, chatID, msg.ID, string(msg.Role),
			msg.Content, formatStoredTime(msg.Timestamp)); err != nil {
			return fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
		}
	}
	return tx.Commit()
}

// ReplaceMessages overwrites a conversation's cached message log.
func (c *Cache) ReplaceMessages(ctx context.Context, chatID int64, msgs []*model.Message) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (chat_id, id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if _, err := stmt.ExecContext(ctx, chatID, msg.ID, string(msg.Role),
			msg.Content, formatStoredTime(msg.Timestamp)); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// TIMESTAMP ENCODING
// =============================================================================

// Timestamps are stored as UTC text with a fixed-width fractional second.
// The fixed width matters: a trimmed fraction ("...00.1Z" vs "...00.15Z")
// would make the lexicographic ORDER BY diverge from time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
