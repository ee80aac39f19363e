// Package redis implements store.Conversations on Redis. Each subscriber's
// history is a capped list of JSON-encoded turns, suited to deployments
// that only need the recent-context window and not a durable archive.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/vedabot/message"
)

// DefaultMaxLength caps the per-subscriber list length.
const DefaultMaxLength = 100

// Config holds Redis store configuration
type Config struct {
	Addr     string
	Password string
	DB       int

	// MaxLength bounds how many turns are retained per subscriber.
	MaxLength int64
}

// DefaultConfig returns default Redis configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:      "127.0.0.1:6379",
		MaxLength: DefaultMaxLength,
	}
}

// Store implements store.Conversations using Redis
type Store struct {
	client *redis.Client
	maxLen int64
}

// New creates a Redis-backed conversation store
func New(config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	maxLen := config.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &Store{
		client: client,
		maxLen: maxLen,
	}
}

func conversationKey(subscriberID string) string {
	return "conversation:" + subscriberID
}

// RecentMessages implements store.Conversations. Returns up to limit turns,
// oldest first.
func (s *Store) RecentMessages(ctx context.Context, subscriberID string, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, conversationKey(subscriberID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation list: %w", err)
	}

	msgs := make([]*message.Message, 0, len(raw))
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

// AppendMessage implements store.Conversations. The list is trimmed to the
// configured cap on every write.
func (s *Store) AppendMessage(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if msg.SubscriberID == "" {
		return fmt.Errorf("message subscriber id cannot be empty")
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	key := conversationKey(msg.SubscriberID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, encoded)
	pipe.LTrim(ctx, key, -s.maxLen, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Ping implements store.Conversations
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
