// Package session wires a chat store, templates and the LLM transport into
// conversations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/conversation"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/dispatcher"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/notify"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/store"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/templates"
)

var (
	// ErrEmptyMessage is returned when starting a chat with neither a
	// template nor a first message
	ErrEmptyMessage = errors.New("a new chat needs a message or a template")

	// ErrAmbiguousID is returned when an id prefix matches several chats
	ErrAmbiguousID = errors.New("chat id prefix is ambiguous")
)

// Options are the collaborators shared by every session
type Options struct {
	Store      store.Store
	Templates  *templates.Registry
	Transport  llm.Transport
	Dispatcher dispatcher.Config

	// Publisher, when set, receives every recorded message
	Publisher notify.Publisher

	MaxInputLength int
	Logger         *zap.Logger
}

// Manager starts and resumes chats
type Manager struct {
	opts      Options
	recorders []conversation.Recorder
	logger    *zap.Logger
}

// Session is an open chat
type Session struct {
	Chat store.Chat
	*conversation.Orchestrator
}

// StartOptions describe a new chat
type StartOptions struct {
	Template       string
	InitialMessage string
}

// NewManager creates a manager from opts
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Templates == nil {
		opts.Templates = templates.NewRegistry(nil, logger)
	}

	recorders := []conversation.Recorder{store.Recorder{Store: opts.Store}}
	if opts.Publisher != nil {
		recorders = append(recorders, notify.Recorder{Publisher: opts.Publisher})
	}

	return &Manager{
		opts:      opts,
		recorders: recorders,
		logger:    logger.With(zap.String("component", "session")),
	}
}

// Store returns the chat store
func (m *Manager) Store() store.Store {
	return m.opts.Store
}

// Templates returns the template registry
func (m *Manager) Templates() *templates.Registry {
	return m.opts.Templates
}

// Start creates a chat and opens it. A template chat is named after the
// template; otherwise the name comes from the first message.
func (m *Manager) Start(ctx context.Context, opts StartOptions) (*Session, error) {
	var c store.Chat
	switch {
	case opts.Template != "":
		tmpl, err := m.opts.Templates.Select(opts.Template)
		if err != nil {
			return nil, err
		}
		c = store.Chat{
			ID:             uuid.New().String(),
			Name:           tmpl.Name,
			LastUpdated:    time.Now(),
			InitialMessage: strings.TrimSpace(opts.InitialMessage),
			Template:       tmpl.Name,
		}
	case strings.TrimSpace(opts.InitialMessage) != "":
		c = store.NewChat(strings.TrimSpace(opts.InitialMessage))
	default:
		return nil, ErrEmptyMessage
	}

	if err := m.opts.Store.CreateChat(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	m.logger.Info("chat created", zap.String("chat_id", c.ID), zap.String("template", c.Template))

	return m.open(ctx, c)
}

// Resume opens a stored chat by id or unique id prefix
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	c, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, *c)
}

// Find returns the chat whose id equals or uniquely starts with id
func (m *Manager) Find(ctx context.Context, id string) (*store.Chat, error) {
	c, err := m.opts.Store.GetChat(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrChatNotFound) {
		return nil, err
	}

	chats, err := m.opts.Store.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	var match *store.Chat
	for i := range chats {
		if !strings.HasPrefix(chats[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
		match = &chats[i]
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrChatNotFound, id)
	}
	return match, nil
}

func (m *Manager) open(ctx context.Context, c store.Chat) (*Session, error) {
	runner := dispatcher.New(m.opts.Transport, m.opts.Dispatcher, m.opts.Logger)

	o, err := conversation.Open(ctx, conversation.Deps{
		Runner:    runner,
		History:   m.opts.Store,
		Recorders: m.recorders,
		Logger:    m.opts.Logger,
	}, conversation.Config{
		ChatID:         c.ID,
		SystemPrompt:   m.systemPrompt(c.Template),
		InitialMessage: c.InitialMessage,
		MaxInputLength: m.opts.MaxInputLength,
	})
	if err != nil {
		return nil, err
	}
	return &Session{Chat: c, Orchestrator: o}, nil
}

// systemPrompt resolves the prompt of a chat's template. A template that
// no longer exists still yields the generic prompt for its name.
func (m *Manager) systemPrompt(name string) string {
	if name == "" {
		return ""
	}
	tmpl, ok := m.opts.Templates.Get(name)
	if !ok {
		m.logger.Warn("chat template not found", zap.String("template", name))
		tmpl = &templates.Template{Name: name}
	}
	return tmpl.SystemPrompt()
}
