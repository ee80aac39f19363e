// Package history implements the conversation-history agent. It plays two
// roles: inside the fan-out it surfaces recent turns as context, and after
// the answer is finalized the orchestrator calls it sequentially to persist
// both sides of the exchange.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/message"
	"github.com/sweetpotato0/vedabot/pkg/logging"
	"github.com/sweetpotato0/vedabot/store"
)

// NoHistoryResponse is returned when the subscriber has no prior turns.
const NoHistoryResponse = "No previous conversation."

// historyConfidence is the fixed confidence when any history exists.
const historyConfidence = 90

// Agent retrieves and persists conversation history.
type Agent struct {
	conversations store.Conversations
	limit         int
}

// New creates a history agent.
func New(conversations store.Conversations, cfg *config.Config) *Agent {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Agent{
		conversations: conversations,
		limit:         cfg.MaxConversationHistory,
	}
}

// Name implements agent.Agent.
func (a *Agent) Name() string { return "Conversation History" }

// Kind implements agent.Agent.
func (a *Agent) Kind() agent.Kind { return agent.KindHistory }

// Process retrieves the subscriber's recent turns. A store failure degrades
// to empty history rather than an agent failure.
func (a *Agent) Process(ctx context.Context, _ string, qctx *agent.Context) (*agent.Output, error) {
	if qctx == nil || qctx.SubscriberID == "" {
		return &agent.Output{
			Response:   "No conversation history available.",
			Confidence: 0,
			Sources:    []string{},
			Metadata:   map[string]any{},
		}, nil
	}

	msgs, err := a.conversations.RecentMessages(ctx, qctx.SubscriberID, a.limit)
	if err != nil {
		logging.WithComponent("history").Error("retrieve history failed",
			"subscriber_id", qctx.SubscriberID, "error", err)
		msgs = nil
	}

	confidence := 0
	if len(msgs) > 0 {
		confidence = historyConfidence
	}

	return &agent.Output{
		Response:   FormatHistory(msgs),
		Confidence: confidence,
		Sources:    []string{"Conversation History"},
		Metadata: map[string]any{
			"num_messages": len(msgs),
			"history":      msgs,
		},
	}, nil
}

// Recent returns the subscriber's recent turns for preloading the shared
// context before the fan-out.
func (a *Agent) Recent(ctx context.Context, subscriberID string) ([]*message.Message, error) {
	return a.conversations.RecentMessages(ctx, subscriberID, a.limit)
}

// SaveMessage persists one conversation turn. Creating the subscriber and
// its active conversation on first contact is the store's job.
func (a *Agent) SaveMessage(ctx context.Context, subscriberID string, role message.Role, content string, msgType message.Type, agentsUsed []string, citations []message.Citation) error {
	msg := message.New(subscriberID, role, content)
	msg.Type = msgType
	msg.AgentsUsed = agentsUsed
	msg.Citations = citations

	if err := a.conversations.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("save %s message for %s: %w", role, subscriberID, err)
	}
	return nil
}

// FormatHistory renders turns as "<Role>: <content>" lines, oldest first.
func FormatHistory(msgs []*message.Message) string {
	if len(msgs) == 0 {
		return NoHistoryResponse
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", capitalizeRole(m.Role), m.Content))
	}
	return strings.Join(lines, "\n")
}

func capitalizeRole(role message.Role) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
