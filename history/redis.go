package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/becomeliminal/recall-go-sdk/llm"
)

// DefaultTTL expires idle conversations.
const DefaultTTL = 40 * time.Minute

// RedisStore keeps conversation buffers in Redis so they survive process
// restarts and can be shared by several hosts.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxMessages int
}

// NewRedisStore connects to the Redis at url (redis://...) and verifies the
// connection.
func NewRedisStore(ctx context.Context, url string, maxMessages int, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, maxMessages: maxMessages}, nil
}

func conversationKey(conversationID string) string {
	return "conversation:" + conversationID
}

// Load returns the conversation's messages, oldest first.
func (s *RedisStore) Load(ctx context.Context, conversationID string) ([]llm.Message, error) {
	raw, err := s.client.LRange(ctx, conversationKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode conversation message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Append pushes messages, trims to the buffer limit, and refreshes the TTL.
func (s *RedisStore) Append(ctx context.Context, conversationID string, messages ...llm.Message) error {
	key := conversationKey(conversationID)

	pipe := s.client.TxPipeline()
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode conversation message: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}

// Clear forgets the conversation.
func (s *RedisStore) Clear(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, conversationKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
