package llm

import (
	"context"
	"io"
)

// Message represents a chat message sent to the completion endpoint
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Options are the generation parameters sent with every request
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
	Stream      bool
}

// RawResponse is an undecoded completion response. Body must be consumed
// exactly once, normally by Extract.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

// Transport sends one completion request to an LLM endpoint
type Transport interface {
	// Complete posts messages and returns the raw response. Non-2xx statuses
	// and connection failures are returned as *TransportError.
	Complete(ctx context.Context, messages []Message, opts Options) (*RawResponse, error)
}

// Generate runs a single request through t and extracts the text
func Generate(ctx context.Context, t Transport, messages []Message, opts Options) (string, error) {
	resp, err := t.Complete(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	return Extract(resp)
}
