// Package inmemory implements store.Conversations in process memory.
// Useful for tests and local runs without a database.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetpotato0/vedabot/message"
)

// InMemoryStore implements store.Conversations using in-memory storage
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]*message.Message
}

// NewInMemoryStore creates a new in-memory conversation store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string][]*message.Message),
	}
}

// RecentMessages implements store.Conversations. Returns up to limit turns,
// oldest first.
func (s *InMemoryStore) RecentMessages(ctx context.Context, subscriberID string, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[subscriberID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return message.CloneMessages(msgs), nil
}

// AppendMessage implements store.Conversations
func (s *InMemoryStore) AppendMessage(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if msg.SubscriberID == "" {
		return fmt.Errorf("message subscriber id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[msg.SubscriberID] = append(s.conversations[msg.SubscriberID], message.Clone(msg))
	return nil
}

// Ping implements store.Conversations
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Clear removes all conversations. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[string][]*message.Message)
}
