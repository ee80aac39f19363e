package inmemory

import (
	"context"
	"testing"

	"github.com/sweetpotato0/vedabot/message"
)

func TestAppendAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if err := s.AppendMessage(ctx, message.New("sub-1", message.RoleUser, content)); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.RecentMessages(ctx, "sub-1", 2)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Errorf("Expected oldest-first window, got %q then %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestRecentIsolatesSubscribers(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.AppendMessage(ctx, message.New("sub-1", message.RoleUser, "mine")); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := s.RecentMessages(ctx, "sub-2", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no messages for other subscriber, got %d", len(msgs))
	}
}

func TestAppendRejectsMissingSubscriber(t *testing.T) {
	s := NewInMemoryStore()

	msg := message.New("", message.RoleUser, "q")
	if err := s.AppendMessage(context.Background(), msg); err == nil {
		t.Error("Expected error for missing subscriber id")
	}
}

func TestRecentReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.AppendMessage(ctx, message.New("sub-1", message.RoleUser, "original")); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := s.RecentMessages(ctx, "sub-1", 1)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	msgs[0].Content = "mutated"

	again, _ := s.RecentMessages(ctx, "sub-1", 1)
	if again[0].Content != "original" {
		t.Error("Store must not expose internal message state")
	}
}
