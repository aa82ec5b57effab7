// Package dispatcher drives the chunks of one user turn through the LLM
// transport and merges their responses into a single assistant message.
package dispatcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chunker"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
)

// Default generation parameters for chunk requests
const (
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 12048
	DefaultTopP        = 1.0
)

// Config controls how a turn is split and sent
type Config struct {
	ChunkSize int
	Overlap   int
	Options   llm.Options

	// Limiter paces chunk requests when set
	Limiter *rate.Limiter
}

// DefaultConfig returns the 2000/200 window with the default options
func DefaultConfig() Config {
	return Config{
		ChunkSize: chunker.DefaultChunkSize,
		Overlap:   chunker.DefaultOverlap,
		Options: llm.Options{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			TopP:        DefaultTopP,
		},
	}
}

// Dispatcher runs at most one turn at a time
type Dispatcher struct {
	transport llm.Transport
	cfg       Config
	sem       *semaphore.Weighted
	phase     atomic.Int32
	logger    *zap.Logger
}

// New creates a dispatcher sending requests through transport
func New(transport llm.Transport, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Chunk requests never stream
	cfg.Options.Stream = false
	return &Dispatcher{
		transport: transport,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(1),
		logger:    logger.With(zap.String("component", "dispatcher")),
	}
}

// Phase returns the state of the current or last run
func (d *Dispatcher) Phase() Phase {
	return Phase(d.phase.Load())
}

// Active reports whether a run is in flight
func (d *Dispatcher) Active() bool {
	if !d.sem.TryAcquire(1) {
		return true
	}
	d.sem.Release(1)
	return false
}

// Run starts processing text in the background. history is the conversation
// so far; a trailing user message (the one carrying text) is replaced by the
// chunk being sent. The returned channel must be drained until it is closed.
func (d *Dispatcher) Run(ctx context.Context, text string, history []chat.Message) (<-chan Event, error) {
	if !d.sem.TryAcquire(1) {
		return nil, ErrRunActive
	}

	base := toLLMMessages(history)
	events := make(chan Event)

	go func() {
		defer close(events)
		defer d.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch panicked", zap.Any("panic", r))
				d.fail(events, fmt.Errorf("internal error: %v", r))
			}
		}()

		d.run(ctx, text, base, events)
	}()

	return events, nil
}

func (d *Dispatcher) run(ctx context.Context, text string, base []llm.Message, events chan<- Event) {
	d.phase.Store(int32(PhaseSplitting))

	chunks, err := chunker.Split(text, d.cfg.ChunkSize, d.cfg.Overlap)
	if err != nil {
		d.fail(events, err)
		return
	}

	total := len(chunks)
	d.logger.Info("dispatching turn", zap.Int("chunks", total), zap.Int("input_runes", len([]rune(text))))

	results := make([]chat.ChunkResult, 0, total)
	d.phase.Store(int32(PhaseDispatching))

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			d.fail(events, err)
			return
		}
		if d.cfg.Limiter != nil {
			if err := d.cfg.Limiter.Wait(ctx); err != nil {
				d.fail(events, fmt.Errorf("rate limiter: %w", err))
				return
			}
		}

		progress := chat.Progress{Current: i + 1, Total: total}
		events <- Event{Type: EventProgress, Phase: PhaseDispatching, Progress: progress}

		start := time.Now()
		response, err := d.dispatchChunk(ctx, base, c)
		elapsed := time.Since(start)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				d.fail(events, ctxErr)
				return
			}
			d.logger.Warn("chunk failed",
				zap.Int("chunk", i+1),
				zap.Int("total", total),
				zap.Int("runes", c.EndPosition-c.StartPosition),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			results = append(results, chat.ChunkResult{
				Index:    c.Index,
				Response: fmt.Sprintf("[Error processing chunk %d: %s]", i+1, err.Error()),
				Success:  false,
			})
			continue
		}

		d.logger.Debug("chunk complete",
			zap.Int("chunk", i+1),
			zap.Int("total", total),
			zap.Int("runes", c.EndPosition-c.StartPosition),
			zap.Int("response_len", len(response)),
			zap.Duration("elapsed", elapsed),
		)
		results = append(results, chat.ChunkResult{Index: c.Index, Response: response, Success: true})

		partial := chat.NewMessage(chat.RoleAssistant, chat.JoinResults(results))
		partial.IsComplete = i == total-1
		if total > 1 {
			partial.ChunkInfo = &chat.Progress{Current: i + 1, Total: total}
		}
		events <- Event{Type: EventPartial, Phase: PhaseDispatching, Progress: progress, Message: partial}
	}

	d.phase.Store(int32(PhaseMerging))
	final := chat.NewMessage(chat.RoleAssistant, chat.JoinResults(results))

	d.phase.Store(int32(PhaseComplete))
	events <- Event{
		Type:     EventComplete,
		Phase:    PhaseComplete,
		Progress: chat.Progress{Current: total, Total: total},
		Message:  final,
		Results:  results,
	}
}

// dispatchChunk sends one chunk with the base history
func (d *Dispatcher) dispatchChunk(ctx context.Context, base []llm.Message, c chat.Chunk) (string, error) {
	content := c.Text
	if c.TotalChunks > 1 {
		content = fmt.Sprintf("[Part %d of %d]\n\n%s", c.Index+1, c.TotalChunks, c.Text)
	}

	messages := make([]llm.Message, 0, len(base)+1)
	messages = append(messages, base...)
	messages = append(messages, llm.Message{Role: string(chat.RoleUser), Content: content})

	return llm.Generate(ctx, d.transport, messages, d.cfg.Options)
}

func (d *Dispatcher) fail(events chan<- Event, cause error) {
	d.phase.Store(int32(PhaseFailed))
	d.logger.Error("turn failed", zap.Error(cause))

	msg := chat.NewMessage(chat.RoleAssistant, ErrorMessage(cause))
	msg.IsError = true

	events <- Event{
		Type:    EventFailed,
		Phase:   PhaseFailed,
		Message: msg,
		Err:     fmt.Errorf("%w: %w", ErrTurnFailed, cause),
	}
}

// ErrorMessage is the assistant-visible text for a failed turn
func ErrorMessage(cause error) string {
	return "Sorry, I encountered an error processing your request: " + cause.Error()
}

// toLLMMessages converts history to wire messages, dropping a trailing user
// message.
func toLLMMessages(history []chat.Message) []llm.Message {
	if n := len(history); n > 0 && history[n-1].Role == chat.RoleUser {
		history = history[:n-1]
	}
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
