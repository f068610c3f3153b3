// CLAUDE:SUMMARY Conversation store: messages plus a per-conversation export snapshot cache in SQLite.
// Package convo persists conversations, their messages, and the cached
// export snapshot. The snapshot is immutable once set and is cleared in
// the same transaction as any message append, so a stale snapshot can
// never survive new content. Concurrent writers follow last-writer-wins;
// a lost snapshot is simply rebuilt on the next export.
package convo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/docforge/dbopen"
	"github.com/hazyhaar/docforge/idgen"
)

// Order controls message listing direction.
type Order string

const (
	OldestFirst Order = "asc"
	NewestFirst Order = "desc"
)

// Message is one stored conversation message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// Schema is the convo DDL, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id              TEXT PRIMARY KEY,
    export_snapshot TEXT,
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    sender          TEXT NOT NULL,
    body            TEXT NOT NULL,
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
`

// Store reads and writes conversations.
type Store struct {
	db     *sql.DB
	ids    idgen.Generator
	logger *slog.Logger
}

// New creates a Store over an opened database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, ids: idgen.Default, logger: logger}
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// AppendMessage stores a message and clears the conversation's export
// snapshot in the same transaction. The conversation row is created on
// first append.
func (s *Store) AppendMessage(ctx context.Context, conversationID, sender, body string) (string, error) {
	if conversationID == "" {
		return "", errors.New("convo: empty conversation id")
	}
	id := s.ids()
	ts := now()

	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
			conversationID, ts); err != nil {
			return fmt.Errorf("ensure conversation: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, sender, body, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, conversationID, sender, body, ts); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		// New content invalidates the cached export snapshot.
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET export_snapshot = NULL WHERE id = ?`,
			conversationID); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug("message appended", "conversation", conversationID, "sender", sender)
	return id, nil
}

// Messages lists up to limit messages of a conversation. limit <= 0 means
// no limit. NewestFirst returns the most recent message first.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int, order Order) ([]Message, error) {
	dir := "ASC"
	if order == NewestFirst {
		dir = "DESC"
	}
	q := fmt.Sprintf(
		`SELECT id, conversation_id, sender, body, created_at FROM messages WHERE conversation_id = ? ORDER BY seq %s`, dir)
	args := []any{conversationID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("convo: list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body, &ts); err != nil {
			return nil, fmt.Errorf("convo: scan message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ExportSnapshot returns the cached snapshot text. ok is false when no
// snapshot is set (never built, or invalidated by an append).
func (s *Store) ExportSnapshot(ctx context.Context, conversationID string) (text string, ok bool, err error) {
	var snapshot sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT export_snapshot FROM conversations WHERE id = ?`, conversationID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("convo: get snapshot: %w", err)
	}
	return snapshot.String, snapshot.Valid, nil
}

// SetExportSnapshot caches the rendered export content. Last writer wins:
// concurrent exports of the same conversation may race, and a stale value
// is regenerated on the next read after invalidation.
func (s *Store) SetExportSnapshot(ctx context.Context, conversationID, text string) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, export_snapshot, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET export_snapshot = excluded.export_snapshot`,
		conversationID, text, ts)
	if err != nil {
		return fmt.Errorf("convo: set snapshot: %w", err)
	}
	return nil
}

// ClearExportSnapshot drops the cached snapshot, forcing a rebuild on the
// next export.
func (s *Store) ClearExportSnapshot(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET export_snapshot = NULL WHERE id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("convo: clear snapshot: %w", err)
	}
	return nil
}
