package llm

import (
	"strings"
)

// OpenAI-compatible wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// payloadResponse covers every single-document shape the endpoint may
// return: chat completions, legacy completions and bare text fields.
type payloadResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
	Response string `json:"response,omitempty"`
	Content  string `json:"content,omitempty"`
}

type streamFragment struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (b errorBody) text() string {
	if b.Error != nil && b.Error.Message != "" {
		return b.Error.Message
	}
	return b.Message
}

func convertMessages(messages []Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		result = append(result, chatMessage(msg))
	}
	return result
}

// ParseSSELine parses a Server-Sent Events line. It returns the data payload
// and whether the line is the [DONE] marker. Non-data lines yield "".
func ParseSSELine(line string) (data string, done bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "data: ") {
		return "", false
	}
	data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
	if data == "[DONE]" {
		return "", true
	}
	return data, false
}
