// Package history stores per-conversation message buffers. The buffer feeds
// conversational context into the off-topic and retrieval-answer model
// calls; it never influences classification or the memory store itself.
package history

import (
	"context"
	"sync"

	"github.com/becomeliminal/recall-go-sdk/llm"
)

// DefaultMaxMessages bounds how much history a conversation keeps. Older
// messages are dropped from the front.
const DefaultMaxMessages = 20

// Store keeps ordered conversation transcripts keyed by conversation id.
type Store interface {
	// Load returns the conversation's messages, oldest first. An unknown
	// conversation yields an empty slice.
	Load(ctx context.Context, conversationID string) ([]llm.Message, error)

	// Append adds messages to the conversation, trimming the oldest when
	// the buffer exceeds its limit.
	Append(ctx context.Context, conversationID string, messages ...llm.Message) error

	// Clear forgets the conversation.
	Clear(ctx context.Context, conversationID string) error

	// Close releases resources.
	Close() error
}

// MemoryStore is the in-process default.
type MemoryStore struct {
	mu          sync.Mutex
	buffers     map[string][]llm.Message
	maxMessages int
}

// NewMemoryStore creates an in-memory history store. maxMessages <= 0 uses
// DefaultMaxMessages.
func NewMemoryStore(maxMessages int) *MemoryStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &MemoryStore{
		buffers:     make(map[string][]llm.Message),
		maxMessages: maxMessages,
	}
}

// Load returns a copy of the conversation's buffer.
func (s *MemoryStore) Load(ctx context.Context, conversationID string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffers[conversationID]
	out := make([]llm.Message, len(buf))
	copy(out, buf)
	return out, nil
}

// Append adds messages and trims the buffer to its limit.
func (s *MemoryStore) Append(ctx context.Context, conversationID string, messages ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.buffers[conversationID], messages...)
	if len(buf) > s.maxMessages {
		buf = buf[len(buf)-s.maxMessages:]
	}
	s.buffers[conversationID] = buf
	return nil
}

// Clear forgets the conversation.
func (s *MemoryStore) Clear(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buffers, conversationID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
