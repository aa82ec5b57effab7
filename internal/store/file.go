package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

// persistedChat is the on-disk form of one chat
type persistedChat struct {
	Chat     Chat           `json:"chat"`
	Messages []chat.Message `json:"messages"`
}

// File is a Store keeping one JSON document per chat in a directory
type File struct {
	dir string
	mu  sync.RWMutex
}

// OpenFile creates the data directory if it doesn't exist
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) ListChats(ctx context.Context) ([]Chat, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var chats []Chat
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		pc, err := f.load(id)
		if err != nil {
			// Skip corrupted files
			continue
		}
		chats = append(chats, pc.Chat)
	}

	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].LastUpdated.Equal(chats[j].LastUpdated) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].LastUpdated.After(chats[j].LastUpdated)
	})
	return chats, nil
}

func (f *File) GetChat(ctx context.Context, id string) (*Chat, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	pc, err := f.load(id)
	if err != nil {
		return nil, err
	}
	return &pc.Chat, nil
}

func (f *File) CreateChat(ctx context.Context, c Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.LastUpdated.IsZero() {
		c.LastUpdated = time.Now()
	}
	pc := &persistedChat{Chat: c}
	if existing, err := f.load(c.ID); err == nil {
		pc.Messages = existing.Messages
	}
	return f.save(pc)
}

func (f *File) RenameChat(ctx context.Context, id, name string) error {
	return f.update(id, func(pc *persistedChat) {
		pc.Chat.Name = name
		pc.Chat.LastUpdated = time.Now()
	})
}

func (f *File) SetStarred(ctx context.Context, id string, starred bool) error {
	return f.update(id, func(pc *persistedChat) {
		pc.Chat.IsStarred = starred
	})
}

func (f *File) DeleteChat(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrChatNotFound, id)
		}
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

func (f *File) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (f *File) AddMessage(ctx context.Context, chatID string, msg chat.Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	msg.ChunkInfo = nil
	msg.IsComplete = true

	return f.update(chatID, func(pc *persistedChat) {
		pc.Messages = append(pc.Messages, msg)
		pc.Chat.LastUpdated = time.Now()
	})
}

func (f *File) LoadMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	pc, err := f.load(chatID)
	if err != nil {
		return nil, err
	}
	msgs := append([]chat.Message(nil), pc.Messages...)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})
	return msgs, nil
}

func (f *File) Close() error {
	return nil
}

func (f *File) update(id string, fn func(*persistedChat)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pc, err := f.load(id)
	if err != nil {
		return err
	}
	fn(pc)
	return f.save(pc)
}

// load must be called with f.mu held
func (f *File) load(id string) (*persistedChat, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrChatNotFound, id)
		}
		return nil, fmt.Errorf("failed to read chat: %w", err)
	}

	var pc persistedChat
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse chat: %w", err)
	}
	return &pc, nil
}

// save writes through a temp file so a crash never leaves half a document
func (f *File) save(pc *persistedChat) error {
	data, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}

	tmp := f.path(pc.Chat.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write chat: %w", err)
	}
	if err := os.Rename(tmp, f.path(pc.Chat.ID)); err != nil {
		return fmt.Errorf("failed to write chat: %w", err)
	}
	return nil
}

func (f *File) path(id string) string {
	return filepath.Join(f.dir, filepath.Base(id)+".json")
}
