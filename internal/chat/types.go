// Package chat holds the data model shared by the conversation pipeline.
package chat

import (
	"strings"
	"time"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole maps a stored role string onto a Role. Unknown values are
// treated as user input, matching what the LLM endpoint expects.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant":
		return RoleAssistant
	case "system":
		return RoleSystem
	default:
		return RoleUser
	}
}

// ChunkSeparator joins chunk responses into one assistant message
const ChunkSeparator = "\n\n---\n\n"

// Chunk is one window of an oversized user input
type Chunk struct {
	Text          string `json:"text"`
	Index         int    `json:"index"`
	TotalChunks   int    `json:"total_chunks"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
	IsLast        bool   `json:"is_last"`
}

// ChunkResult records the outcome of dispatching a single chunk
type ChunkResult struct {
	Index    int    `json:"index"`
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// JoinResults merges chunk responses in index order
func JoinResults(results []ChunkResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Response)
	}
	return strings.Join(parts, ChunkSeparator)
}

// Progress tracks how far a turn has advanced through its chunks
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Message is a single entry of a conversation
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	IsComplete bool      `json:"is_complete"`
	IsError    bool      `json:"is_error,omitempty"`
	ChunkInfo  *Progress `json:"chunk_info,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

// NewMessage creates a complete message stamped with the current time
func NewMessage(role Role, content string) Message {
	return Message{
		Role:       role,
		Content:    content,
		IsComplete: true,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// Time returns the message timestamp as a time.Time
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// InProgress reports whether m is a partial assistant message that later
// chunk results will replace.
func (m Message) InProgress() bool {
	return m.Role == RoleAssistant && !m.IsComplete
}

// State is a point-in-time view of a conversation
type State struct {
	Messages      []Message `json:"messages"`
	IsGenerating  bool      `json:"is_generating"`
	Error         string    `json:"error,omitempty"`
	ChunkProgress Progress  `json:"chunk_progress"`
}

// Clone returns a deep copy of the state so readers never share slices
// with the writer.
func (s State) Clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.ChunkInfo != nil {
			info := *m.ChunkInfo
			m.ChunkInfo = &info
		}
		out.Messages[i] = m
	}
	return out
}
