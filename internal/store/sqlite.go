package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	last_updated    INTEGER NOT NULL,
	is_starred      INTEGER NOT NULL DEFAULT 0,
	initial_message TEXT NOT NULL DEFAULT '',
	template        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_chats_last_updated ON chats(last_updated);

CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id   TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role      TEXT NOT NULL,
	content   TEXT NOT NULL,
	is_error  INTEGER NOT NULL DEFAULT 0,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, timestamp);
`

// SQLite is a Store backed by a single SQLite database file
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, last_updated, is_starred, initial_message, template
		FROM chats ORDER BY last_updated DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

func (s *SQLite) GetChat(ctx context.Context, id string) (*Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, last_updated, is_starred, initial_message, template
		FROM chats WHERE id = ?`, id)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	return c, err
}

func (s *SQLite) CreateChat(ctx context.Context, c Chat) error {
	if c.LastUpdated.IsZero() {
		c.LastUpdated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, name, last_updated, is_starred, initial_message, template)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_updated = excluded.last_updated,
			is_starred = excluded.is_starred,
			initial_message = excluded.initial_message,
			template = excluded.template`,
		c.ID, c.Name, c.LastUpdated.UnixMilli(), c.IsStarred, c.InitialMessage, c.Template)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

func (s *SQLite) RenameChat(ctx context.Context, id, name string) error {
	return s.exec(ctx, id, `UPDATE chats SET name = ?, last_updated = ? WHERE id = ?`,
		name, time.Now().UnixMilli(), id)
}

func (s *SQLite) SetStarred(ctx context.Context, id string, starred bool) error {
	return s.exec(ctx, id, `UPDATE chats SET is_starred = ? WHERE id = ?`, starred, id)
}

func (s *SQLite) DeleteChat(ctx context.Context, id string) error {
	// messages go with the chat through ON DELETE CASCADE
	return s.exec(ctx, id, `DELETE FROM chats WHERE id = ?`, id)
}

func (s *SQLite) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats`); err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) AddMessage(ctx context.Context, chatID string, msg chat.Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET last_updated = ? WHERE id = ?`,
		time.Now().UnixMilli(), chatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (chat_id, role, content, is_error, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		chatID, string(msg.Role), msg.Content, msg.IsError, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	return tx.Commit()
}

func (s *SQLite) LoadMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, is_error, timestamp
		FROM messages WHERE chat_id = ? ORDER BY timestamp, id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var role string
		m := chat.Message{IsComplete: true}
		if err := rows.Scan(&role, &m.Content, &m.IsError, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = chat.ParseRole(role)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// exec runs a statement that must touch the chat identified by id
func (s *SQLite) exec(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(row scanner) (*Chat, error) {
	var c Chat
	var updated int64
	if err := row.Scan(&c.ID, &c.Name, &updated, &c.IsStarred, &c.InitialMessage, &c.Template); err != nil {
		return nil, err
	}
	c.LastUpdated = time.UnixMilli(updated)
	return &c, nil
}
