package agent

import "github.com/sweetpotato0/vedabot/message"

// Context carries the per-call shared state handed to every agent in one
// orchestration pass. It is built once at the start of the call and is
// read-only to agents after construction; it is never shared across
// concurrent calls.
type Context struct {
	SubscriberID string
	Query        string

	// History holds the subscriber's recent conversation turns, oldest
	// first, preloaded by the orchestrator for agents that want it.
	History []*message.Message
}

// NewContext builds the shared context for one orchestration call.
func NewContext(subscriberID, query string) *Context {
	return &Context{
		SubscriberID: subscriberID,
		Query:        query,
	}
}

// LastTurns returns up to n of the most recent history turns, oldest first.
func (c *Context) LastTurns(n int) []*message.Message {
	if c == nil || n <= 0 || len(c.History) == 0 {
		return nil
	}
	if len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}
