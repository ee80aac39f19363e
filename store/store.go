package store

import (
	"context"

	"github.com/sweetpotato0/vedabot/message"
)

// Conversations defines the interface for persistent conversation history.
//
// AppendMessage carries implicit upsert semantics: appending for an unknown
// subscriber creates the subscriber record and an active conversation.
type Conversations interface {
	// RecentMessages returns up to limit messages for the subscriber,
	// oldest first.
	RecentMessages(ctx context.Context, subscriberID string, limit int) ([]*message.Message, error)

	// AppendMessage stores one turn of the conversation.
	AppendMessage(ctx context.Context, msg *message.Message) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
