// Package mongo implements store.Conversations on MongoDB. Subscribers are
// created implicitly on first contact; messages live in their own
// collection keyed by subscriber id.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/vedabot/message"
)

// Config holds MongoDB store configuration
type Config struct {
	URI      string
	Database string
}

// DefaultConfig returns default MongoDB configuration
func DefaultConfig() *Config {
	return &Config{
		URI:      "mongodb://127.0.0.1:27017",
		Database: "vedabot",
	}
}

// Store implements store.Conversations using MongoDB
type Store struct {
	client      *mongo.Client
	subscribers *mongo.Collection
	messages    *mongo.Collection
}

// messageDoc is the persisted shape of a conversation turn
type messageDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	SubscriberID string             `bson:"subscriber_id"`
	Role         string             `bson:"role"`
	Content      string             `bson:"content"`
	Type         string             `bson:"type"`
	AgentsUsed   []string           `bson:"agents_used,omitempty"`
	Citations    []message.Citation `bson:"citations,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// New connects to MongoDB and prepares the collections
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(config.Database)
	s := &Store{
		client:      client,
		subscribers: db.Collection("subscribers"),
		messages:    db.Collection("messages"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "subscriber_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %w", err)
	}

	_, err = s.subscribers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subscriber_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create subscriber index: %w", err)
	}
	return nil
}

// RecentMessages implements store.Conversations. Returns up to limit turns,
// oldest first.
func (s *Store) RecentMessages(ctx context.Context, subscriberID string, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.messages.Find(ctx, bson.M{"subscriber_id": subscriberID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	// Query returns newest first; callers expect chronological order.
	msgs := make([]*message.Message, len(docs))
	for i, doc := range docs {
		msgs[len(docs)-1-i] = &message.Message{
			ID:           doc.ID.Hex(),
			SubscriberID: doc.SubscriberID,
			Role:         message.Role(doc.Role),
			Content:      doc.Content,
			Type:         message.Type(doc.Type),
			AgentsUsed:   doc.AgentsUsed,
			Citations:    doc.Citations,
			CreatedAt:    doc.CreatedAt,
		}
	}
	return msgs, nil
}

// AppendMessage implements store.Conversations. The subscriber record is
// upserted so first contact needs no separate registration step.
func (s *Store) AppendMessage(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if msg.SubscriberID == "" {
		return fmt.Errorf("message subscriber id cannot be empty")
	}

	now := time.Now()
	_, err := s.subscribers.UpdateOne(ctx,
		bson.M{"subscriber_id": msg.SubscriberID},
		bson.M{
			"$setOnInsert": bson.M{"subscriber_id": msg.SubscriberID, "created_at": now},
			"$set":         bson.M{"last_active_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.messages.InsertOne(ctx, messageDoc{
		SubscriberID: msg.SubscriberID,
		Role:         string(msg.Role),
		Content:      msg.Content,
		Type:         string(msg.Type),
		AgentsUsed:   msg.AgentsUsed,
		Citations:    msg.Citations,
		CreatedAt:    createdAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Ping implements store.Conversations
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
