package message

import (
	"fmt"
	"time"
)

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Type classifies the payload of a conversation message
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
	TypeVoice Type = "voice"
)

// Citation is a structured scripture reference extracted from answer text
type Citation struct {
	Book    string `json:"book" bson:"book"`
	Chapter int    `json:"chapter" bson:"chapter"`
	Verse   int    `json:"verse" bson:"verse"`
	Source  string `json:"source" bson:"source"`
}

// NewCitation builds a citation with its derived source string
func NewCitation(book string, chapter, verse int) Citation {
	return Citation{
		Book:    book,
		Chapter: chapter,
		Verse:   verse,
		Source:  fmt.Sprintf("%s, Chapter %d, Verse %d", book, chapter, verse),
	}
}

// Message represents a single turn in a subscriber conversation
type Message struct {
	ID           string     `json:"id"`
	SubscriberID string     `json:"subscriber_id"`
	Role         Role       `json:"role"`
	Content      string     `json:"content"`
	Type         Type       `json:"type"`
	AgentsUsed   []string   `json:"agents_used,omitempty"`
	Citations    []Citation `json:"citations,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// New creates a text message for the given subscriber
func New(subscriberID string, role Role, content string) *Message {
	return &Message{
		SubscriberID: subscriberID,
		Role:         role,
		Content:      content,
		Type:         TypeText,
		CreatedAt:    time.Now(),
	}
}

// Clone creates a deep copy of the message.
func Clone(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	cloned := *msg
	if len(msg.AgentsUsed) > 0 {
		cloned.AgentsUsed = append([]string(nil), msg.AgentsUsed...)
	}
	if len(msg.Citations) > 0 {
		cloned.Citations = append([]Citation(nil), msg.Citations...)
	}
	return &cloned
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}
