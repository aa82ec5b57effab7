// Package llmtest provides a scripted llm.Transport for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
)

// Call records one request seen by a Transport
type Call struct {
	Messages []llm.Message
	Options  llm.Options
}

// Transport answers each request by calling Respond
type Transport struct {
	Respond func(ctx context.Context, n int, messages []llm.Message) (*llm.RawResponse, error)

	mu    sync.Mutex
	calls []Call
}

// Complete implements llm.Transport
func (t *Transport) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.RawResponse, error) {
	t.mu.Lock()
	n := len(t.calls)
	t.calls = append(t.calls, Call{Messages: append([]llm.Message(nil), messages...), Options: opts})
	t.mu.Unlock()

	if t.Respond == nil {
		return JSON("ok"), nil
	}
	return t.Respond(ctx, n, messages)
}

// Calls returns the requests received so far
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Echo returns a transport that replies with the last message content
func Echo() *Transport {
	return &Transport{
		Respond: func(_ context.Context, _ int, messages []llm.Message) (*llm.RawResponse, error) {
			return JSON(messages[len(messages)-1].Content), nil
		},
	}
}

// JSON builds a single-payload chat completion response
func JSON(text string) *llm.RawResponse {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
	return Raw("application/json", string(body))
}

// Raw builds a response with the given content type and body
func Raw(contentType, body string) *llm.RawResponse {
	return &llm.RawResponse{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Body:        io.NopCloser(strings.NewReader(body)),
	}
}
