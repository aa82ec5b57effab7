// Package notify broadcasts finalized chat messages to a message bus.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

var (
	ErrUnknownBackend  = errors.New("unknown notify backend")
	ErrUnknownEncoding = errors.New("unknown payload encoding")
	ErrNotConnected    = errors.New("publisher is not connected")
)

const (
	BackendNone  = "none"
	BackendNATS  = "nats"
	BackendRedis = "redis"
)

// Event is the payload published for each finalized message
type Event struct {
	ChatID    string `json:"chat_id" msgpack:"chat_id"`
	Role      string `json:"role" msgpack:"role"`
	Content   string `json:"content" msgpack:"content"`
	IsError   bool   `json:"is_error,omitempty" msgpack:"is_error,omitempty"`
	Timestamp int64  `json:"timestamp" msgpack:"timestamp"`
}

// NewEvent builds the event for msg in chatID
func NewEvent(chatID string, msg chat.Message) *Event {
	return &Event{
		ChatID:    chatID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		IsError:   msg.IsError,
		Timestamp: msg.Timestamp,
	}
}

// Publisher delivers events to subscribers
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Config selects a backend and payload encoding
type Config struct {
	Backend  string        `json:"backend" toml:"backend"`
	URL      string        `json:"url,omitempty" toml:"url"`
	Subject  string        `json:"subject,omitempty" toml:"subject"`
	Encoding Encoding      `json:"encoding,omitempty" toml:"encoding"`
	Timeout  time.Duration `json:"timeout,omitempty" toml:"timeout"`
	Retries  int           `json:"retries,omitempty" toml:"retries"`
}

// New creates the publisher described by cfg. A "none" or empty backend
// yields nil without error.
func New(cfg Config, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingJSON
	}
	if _, err := Encode(cfg.Encoding, &Event{}); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendNATS:
		p := NewNATS(NATSConfig{
			URL:           cfg.URL,
			SubjectPrefix: cfg.Subject,
			Encoding:      cfg.Encoding,
		}, logger)
		if err := p.Connect(); err != nil {
			return nil, err
		}
		return p, nil
	case BackendRedis:
		p, err := NewRedis(RedisConfig{
			URL:      cfg.URL,
			Channel:  cfg.Subject,
			Encoding: cfg.Encoding,
			Timeout:  cfg.Timeout,
			Retries:  cfg.Retries,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Recorder publishes every recorded message
type Recorder struct {
	Publisher Publisher
}

// RecordMessage publishes msg for chatID
func (r Recorder) RecordMessage(ctx context.Context, chatID string, msg chat.Message) error {
	return r.Publisher.Publish(ctx, NewEvent(chatID, msg))
}
