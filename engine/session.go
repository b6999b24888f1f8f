package engine

import (
	"github.com/google/uuid"

	"github.com/becomeliminal/recall-go-sdk/llm"
)

// Session carries one conversation's identity and transcript through a turn.
// It is created per turn, restored from the history store, and discarded
// when the turn ends; the engine never caches state across turns.
type Session struct {
	ID             string
	ConversationID string

	messages []llm.Message
}

// NewSession creates a session for the conversation.
func NewSession(conversationID string) *Session {
	if conversationID == "" {
		conversationID = "local"
	}
	return &Session{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
	}
}

// Restore seeds the transcript from stored history.
func (s *Session) Restore(messages []llm.Message) {
	s.messages = append(s.messages, messages...)
}

// AddUserMessage appends a user turn.
func (s *Session) AddUserMessage(content string) {
	s.messages = append(s.messages, llm.User(content))
}

// AddAssistantMessage appends an assistant turn.
func (s *Session) AddAssistantMessage(content string) {
	s.messages = append(s.messages, llm.Assistant(content))
}

// Messages returns the transcript, oldest first.
func (s *Session) Messages() []llm.Message {
	return s.messages
}
