package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Mode is the shape of a completion response body
type Mode int

const (
	// ModePayload is a single JSON document
	ModePayload Mode = iota
	// ModeStreamed is a newline-delimited sequence of "data: " fragments
	ModeStreamed
)

func (m Mode) String() string {
	if m == ModeStreamed {
		return "streamed"
	}
	return "payload"
}

// Classify picks the body mode from a Content-Type header value
func Classify(contentType string) Mode {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/plain") || strings.Contains(ct, "text/event-stream") {
		return ModeStreamed
	}
	return ModePayload
}

// Extract reads and closes resp.Body and returns the generated text
func Extract(resp *RawResponse) (string, error) {
	if resp == nil || resp.Body == nil {
		return "", fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	defer resp.Body.Close()

	switch Classify(resp.ContentType) {
	case ModeStreamed:
		return extractStreamed(resp.Body, zap.L())
	default:
		return extractPayload(resp.Body)
	}
}

// extractStreamed concatenates choices[0].delta.content across fragments.
// Fragments that fail to decode are logged and skipped.
func extractStreamed(r io.Reader, logger *zap.Logger) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		data, done := ParseSSELine(scanner.Text())
		if done {
			break
		}
		if data == "" {
			continue
		}

		var frag streamFragment
		if err := json.Unmarshal([]byte(data), &frag); err != nil {
			logger.Warn("skipping malformed stream fragment",
				zap.String("component", "llm"),
				zap.String("fragment", truncate(data, 120)),
				zap.Error(err),
			)
			continue
		}
		if len(frag.Choices) == 0 {
			continue
		}
		sb.WriteString(frag.Choices[0].Delta.Content)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading stream: %w", err)
	}

	return sb.String(), nil
}

// extractPayload reads the first non-empty text field in priority order:
// choices[0].message.content, choices[0].text, response, content.
func extractPayload(r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var payload payloadResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var text string
	switch {
	case len(payload.Choices) > 0:
		first := payload.Choices[0]
		if first.Message != nil && first.Message.Content != "" {
			text = first.Message.Content
		} else {
			text = first.Text
		}
	case payload.Response != "":
		text = payload.Response
	default:
		text = payload.Content
	}

	if text == "" {
		return "", fmt.Errorf("%w: expected OpenAI-compatible format with choices[0].message.content", ErrMalformedResponse)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
