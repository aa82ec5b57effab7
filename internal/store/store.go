// Package store persists chats and their messages.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrUnknownBackend = errors.New("unknown store backend")
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// nameLimit is the number of runes of the first message used as a chat name
const nameLimit = 30

// Chat is the metadata of a stored conversation
type Chat struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LastUpdated    time.Time `json:"last_updated"`
	IsStarred      bool      `json:"is_starred"`
	InitialMessage string    `json:"initial_message,omitempty"`
	Template       string    `json:"template,omitempty"`
}

// Store is implemented by every backend
type Store interface {
	// ListChats returns all chats, most recently updated first
	ListChats(ctx context.Context) ([]Chat, error)
	GetChat(ctx context.Context, id string) (*Chat, error)
	CreateChat(ctx context.Context, c Chat) error
	RenameChat(ctx context.Context, id, name string) error
	SetStarred(ctx context.Context, id string, starred bool) error
	DeleteChat(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error

	// AddMessage appends msg and bumps the chat's LastUpdated
	AddMessage(ctx context.Context, chatID string, msg chat.Message) error
	// LoadMessages returns the messages of a chat in timestamp order
	LoadMessages(ctx context.Context, chatID string) ([]chat.Message, error)

	Close() error
}

// Config selects and locates a backend
type Config struct {
	Backend string `json:"backend" toml:"backend"`
	Path    string `json:"path" toml:"path"`
}

// DefaultConfig stores chats in SQLite under the user config directory
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Backend: BackendSQLite,
		Path:    filepath.Join(homeDir, ".config", "blockify", "chats.db"),
	}
}

// Open creates the store described by cfg
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return OpenSQLite(cfg.Path)
	case BackendFile:
		return OpenFile(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NewChat builds metadata for a chat started from text. Names longer than
// 30 characters are shortened with "...".
func NewChat(text string) Chat {
	return Chat{
		ID:             uuid.New().String(),
		Name:           ChatName(text),
		LastUpdated:    time.Now(),
		InitialMessage: text,
	}
}

// ChatName derives a display name from the first message of a chat
func ChatName(text string) string {
	if utf8.RuneCountInString(text) <= nameLimit {
		return text
	}
	return string([]rune(text)[:nameLimit]) + "..."
}

// Recorder adapts a Store to the conversation recorder interface
type Recorder struct {
	Store Store
}

// RecordMessage stores msg under chatID
func (r Recorder) RecordMessage(ctx context.Context, chatID string, msg chat.Message) error {
	if chatID == "" {
		return nil
	}
	return r.Store.AddMessage(ctx, chatID, msg)
}
