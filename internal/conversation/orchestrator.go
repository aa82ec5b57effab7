// Package conversation owns the state of one chat and drives user turns
// through the dispatcher.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/dispatcher"
)

// DefaultMaxInputLength is the largest accepted user input, in runes
const DefaultMaxInputLength = 50000

// Runner processes one user turn. *dispatcher.Dispatcher implements it.
type Runner interface {
	Run(ctx context.Context, text string, history []chat.Message) (<-chan dispatcher.Event, error)
}

// HistoryLoader returns the stored messages of a chat
type HistoryLoader interface {
	LoadMessages(ctx context.Context, chatID string) ([]chat.Message, error)
}

// Recorder is told about every user message when it is submitted and every
// finalized assistant message, once per turn.
type Recorder interface {
	RecordMessage(ctx context.Context, chatID string, msg chat.Message) error
}

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Runner    Runner
	History   HistoryLoader
	Recorders []Recorder
	Logger    *zap.Logger
}

// Config describes the chat being opened
type Config struct {
	ChatID string

	// SystemPrompt seeds an empty conversation
	SystemPrompt string

	// InitialMessage is sent by SubmitInitial unless the history already has it
	InitialMessage string

	// MaxInputLength limits Submit input in runes; 0 means DefaultMaxInputLength
	MaxInputLength int
}

// Orchestrator is the single writer of a conversation's state
type Orchestrator struct {
	cfg       Config
	runner    Runner
	recorders []Recorder
	logger    *zap.Logger

	mu      sync.Mutex
	state   chat.State
	pending int // index of this turn's in-progress assistant message, or -1
	closed  bool
	updates chan chat.State
}

// Open loads the chat history and prepares the conversation
func Open(ctx context.Context, deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Runner == nil {
		return nil, ErrNoRunner
	}
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = DefaultMaxInputLength
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		cfg:       cfg,
		runner:    deps.Runner,
		recorders: deps.Recorders,
		logger:    logger.With(zap.String("component", "conversation"), zap.String("chat_id", cfg.ChatID)),
		pending:   -1,
		updates:   make(chan chat.State, 16),
	}

	if deps.History != nil && cfg.ChatID != "" {
		history, err := deps.History.LoadMessages(ctx, cfg.ChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chat %s: %w", cfg.ChatID, err)
		}
		o.state.Messages = history
	}

	if len(o.state.Messages) == 0 && cfg.SystemPrompt != "" {
		sys := chat.NewMessage(chat.RoleSystem, cfg.SystemPrompt)
		o.state.Messages = append(o.state.Messages, sys)
		o.record(ctx, sys)
	}

	return o, nil
}

// ChatID returns the identifier of the chat
func (o *Orchestrator) ChatID() string {
	return o.cfg.ChatID
}

// Snapshot returns a copy of the current state
func (o *Orchestrator) Snapshot() chat.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Updates delivers a snapshot after each state change. Snapshots are
// dropped when the reader falls behind; the channel closes on Close.
func (o *Orchestrator) Updates() <-chan chat.State {
	return o.updates
}

// Close stops delivering updates. A running turn finishes in the background.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	close(o.updates)
	return nil
}

// Submit sends text as a user turn and blocks until the turn ends. It
// returns false without doing anything when text is blank or a turn is
// already running. A whole-turn failure is returned after it has been
// added to the conversation as an error message.
func (o *Orchestrator) Submit(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false, ErrClosed
	}
	if o.state.IsGenerating {
		o.mu.Unlock()
		return false, nil
	}
	if n := utf8.RuneCountInString(text); n > o.cfg.MaxInputLength {
		o.mu.Unlock()
		return false, fmt.Errorf("%w: %d characters, limit is %d", ErrInputTooLong, n, o.cfg.MaxInputLength)
	}

	userMsg := chat.NewMessage(chat.RoleUser, text)
	o.state.Messages = append(o.state.Messages, userMsg)
	o.state.IsGenerating = true
	o.state.Error = ""
	o.state.ChunkProgress = chat.Progress{}
	o.pending = -1
	history := o.state.Clone().Messages
	o.publishLocked()
	o.mu.Unlock()

	defer o.finish()

	o.record(ctx, userMsg)

	events, err := o.runner.Run(ctx, text, history)
	if err != nil {
		msg := chat.NewMessage(chat.RoleAssistant, dispatcher.ErrorMessage(err))
		msg.IsError = true
		o.fail(ctx, msg, err)
		return true, err
	}

	var turnErr error
	for ev := range events {
		if err := o.apply(ctx, ev); err != nil {
			turnErr = err
		}
	}

	return true, turnErr
}

// SubmitInitial sends the configured initial message once. It is skipped
// when the conversation already holds that message or any exchange.
func (o *Orchestrator) SubmitInitial(ctx context.Context) (bool, error) {
	if strings.TrimSpace(o.cfg.InitialMessage) == "" {
		return false, nil
	}

	o.mu.Lock()
	for _, m := range o.state.Messages {
		if m.Role != chat.RoleSystem {
			o.mu.Unlock()
			return false, nil
		}
	}
	o.mu.Unlock()

	return o.Submit(ctx, o.cfg.InitialMessage)
}

func (o *Orchestrator) apply(ctx context.Context, ev dispatcher.Event) error {
	switch ev.Type {
	case dispatcher.EventProgress:
		o.mu.Lock()
		o.state.ChunkProgress = ev.Progress
		o.publishLocked()
		o.mu.Unlock()

	case dispatcher.EventPartial:
		o.mu.Lock()
		o.placeLocked(ev.Message)
		o.publishLocked()
		o.mu.Unlock()

	case dispatcher.EventComplete:
		o.mu.Lock()
		o.placeLocked(ev.Message)
		o.pending = -1
		o.state.ChunkProgress = ev.Progress
		o.publishLocked()
		o.mu.Unlock()

		o.logger.Info("turn complete", zap.Int("chunks", len(ev.Results)))
		o.record(ctx, ev.Message)

	case dispatcher.EventFailed:
		o.fail(ctx, ev.Message, ev.Err)
		return ev.Err
	}
	return nil
}

// placeLocked replaces this turn's in-progress assistant message or
// appends msg as a new one.
func (o *Orchestrator) placeLocked(msg chat.Message) {
	if o.pending >= 0 && o.pending < len(o.state.Messages) {
		o.state.Messages[o.pending] = msg
		return
	}
	o.state.Messages = append(o.state.Messages, msg)
	o.pending = len(o.state.Messages) - 1
}

func (o *Orchestrator) fail(ctx context.Context, msg chat.Message, err error) {
	o.mu.Lock()
	if o.pending >= 0 && o.pending < len(o.state.Messages) {
		// Keep what was merged so far but stop treating it as in progress
		o.state.Messages[o.pending].IsComplete = true
		o.state.Messages[o.pending].ChunkInfo = nil
	}
	o.pending = -1
	o.state.Messages = append(o.state.Messages, msg)
	o.state.Error = err.Error()
	o.publishLocked()
	o.mu.Unlock()

	o.logger.Warn("turn failed", zap.Error(err))
	o.record(ctx, msg)
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.IsGenerating = false
	o.state.ChunkProgress = chat.Progress{}
	o.pending = -1
	o.publishLocked()
}

func (o *Orchestrator) publishLocked() {
	if o.closed {
		return
	}
	select {
	case o.updates <- o.state.Clone():
	default:
	}
}

// record hands msg to every recorder. Failures are logged, never returned.
func (o *Orchestrator) record(ctx context.Context, msg chat.Message) {
	for _, r := range o.recorders {
		if err := r.RecordMessage(context.WithoutCancel(ctx), o.cfg.ChatID, msg); err != nil {
			o.logger.Warn("failed to record message",
				zap.String("role", string(msg.Role)),
				zap.Error(err),
			)
		}
	}
}
