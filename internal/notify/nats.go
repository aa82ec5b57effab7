package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is prepended to "<chat id>.messages"
const DefaultSubjectPrefix = "blockify.chat"

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL            string        `json:"url" yaml:"url"`
	CredsFile      string        `json:"creds_file,omitempty" yaml:"creds_file,omitempty"`
	Token          string        `json:"token,omitempty" yaml:"token,omitempty"`
	SubjectPrefix  string        `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	Encoding       Encoding      `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
	ReconnectWait  time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	MaxReconnects  int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
}

// DefaultNATSConfig returns the default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL, // "nats://localhost:4222"
		SubjectPrefix:  DefaultSubjectPrefix,
		Encoding:       EncodingJSON,
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
	}
}

// NATS publishes each event on blockify.chat.<chat id>.messages
type NATS struct {
	config NATSConfig
	conn   *nats.Conn
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewNATS creates an unconnected publisher. Zero config fields take defaults.
func NewNATS(config NATSConfig, logger *zap.Logger) *NATS {
	def := DefaultNATSConfig()
	if config.URL == "" {
		config.URL = def.URL
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = def.SubjectPrefix
	}
	if config.Encoding == "" {
		config.Encoding = def.Encoding
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.ReconnectWait <= 0 {
		config.ReconnectWait = def.ReconnectWait
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = def.MaxReconnects
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATS{
		config: config,
		logger: logger.With(zap.String("component", "notify"), zap.String("backend", BackendNATS)),
	}
}

// Connect establishes a connection to the NATS server.
func (n *NATS) Connect() error {
	opts := []nats.Option{
		nats.Name("blockify-notify"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("connection lost, attempting to reconnect", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("reconnected to NATS server", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Debug("connection closed", zap.Error(nc.LastError()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			n.logger.Warn("nats error", zap.Error(err))
		}),
	}

	if n.config.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(n.config.CredsFile))
	}
	if n.config.Token != "" {
		opts = append(opts, nats.Token(n.config.Token))
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", n.config.URL, err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	return nil
}

// Subject returns the subject events for chatID are published on
func (n *NATS) Subject(chatID string) string {
	return fmt.Sprintf("%s.%s.messages", n.config.SubjectPrefix, sanitizeToken(chatID))
}

// Publish sends ev and waits for the server to acknowledge the flush
func (n *NATS) Publish(ctx context.Context, ev *Event) error {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	data, err := Encode(n.config.Encoding, ev)
	if err != nil {
		return fmt.Errorf("nats: encode event: %w", err)
	}

	if err := conn.Publish(n.Subject(ev.ChatID), data); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.ConnectTimeout)
		defer cancel()
	}
	return conn.FlushWithContext(ctx)
}

// Subscribe delivers decoded events for chatID ("*" for every chat) to fn
func (n *NATS) Subscribe(chatID string, fn func(*Event)) (*nats.Subscription, error) {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	subject := n.Subject(chatID)
	if chatID == "*" {
		subject = n.config.SubjectPrefix + ".*.messages"
	}

	return conn.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := Decode(n.config.Encoding, msg.Data)
		if err != nil {
			n.logger.Warn("dropping undecodable event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		fn(ev)
	})
}

// IsConnected returns whether the publisher is connected
func (n *NATS) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn != nil && n.conn.IsConnected()
}

// Close drains and closes the connection
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Drain()
	n.conn = nil
	return err
}

// sanitizeToken keeps a chat id usable as a single subject token
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, s)
}

var _ Publisher = (*NATS)(nil)
