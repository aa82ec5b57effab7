package conversation

import "github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"

// DisplayFilter keeps messages of role and drops any entry whose content
// equals the previous kept entry. Stored history is left untouched.
func DisplayFilter(messages []chat.Message, role chat.Role) []chat.Message {
	var out []chat.Message
	for _, m := range messages {
		if m.Role != role {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Content == m.Content {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DisplayMessages returns the deduplicated messages of role
func (o *Orchestrator) DisplayMessages(role chat.Role) []chat.Message {
	return DisplayFilter(o.Snapshot().Messages, role)
}

// UserMessages returns the messages shown in the user column
func (o *Orchestrator) UserMessages() []chat.Message {
	return o.DisplayMessages(chat.RoleUser)
}

// AssistantMessages returns the messages shown in the assistant column
func (o *Orchestrator) AssistantMessages() []chat.Message {
	return o.DisplayMessages(chat.RoleAssistant)
}
