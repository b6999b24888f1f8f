// Package llm defines the narrow chat-completion contract the assistant
// depends on: an ordered list of role-tagged messages in, text out.
//
// The hosted model is treated as a pure, potentially slow, potentially
// failing function. Components that need deterministic behavior in tests
// supply their own Client implementation.
package llm

import "context"

// Message roles. These mirror the roles the hosted APIs accept.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of model input.
type Message struct {
	Role    string
	Content string
}

// System is shorthand for a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is shorthand for a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant is shorthand for an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Client invokes a chat model once and returns its text response.
// Implementations must be safe for concurrent use.
type Client interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}
