// Package knowledge implements the general-knowledge agent backed by a
// generative completion backend. It is the one agent whose Process is
// allowed to fail loudly; the shared execute wrapper converts that into a
// failed result.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/message"
	"github.com/sweetpotato0/vedabot/prompt"
	"github.com/sweetpotato0/vedabot/provider"
)

const (
	temperature  = 0.7
	topP         = 0.95
	topK         = 40
	maxTokens    = 1024
	historyTurns = 5

	baseConfidence   = 70
	confidenceStep   = 10
	personaPreamble  = "You are a knowledgeable Hindu spiritual guide. Answer questions about Hindu philosophy, scriptures, and practices."
	personaGuidance  = "Guidelines:\n- Provide accurate information based on Hindu scriptures\n- Be respectful and balanced in your responses\n- Cite specific scriptures when relevant\n- Acknowledge if you're uncertain about something"
)

// Agent answers from the completion backend's general knowledge.
type Agent struct {
	client           provider.Client
	hedgingPhrases   []string
	assertivePhrases []string
}

// New creates a general-knowledge agent.
func New(client provider.Client, cfg *config.Config) *Agent {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Agent{
		client:           client,
		hedgingPhrases:   cfg.HedgingPhrases,
		assertivePhrases: cfg.AssertivePhrases,
	}
}

// Name implements agent.Agent.
func (a *Agent) Name() string { return "General Knowledge" }

// Kind implements agent.Agent.
func (a *Agent) Kind() agent.Kind { return agent.KindKnowledge }

// Process submits the query with persona and recent history to the backend.
// An empty completion is an error.
func (a *Agent) Process(ctx context.Context, query string, qctx *agent.Context) (*agent.Output, error) {
	p := a.buildPrompt(query, qctx)

	answer, err := a.client.Complete(ctx, provider.Request{
		Prompt:      p,
		Temperature: temperature,
		TopP:        topP,
		TopK:        topK,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, provider.ErrEmptyResponse
	}

	return &agent.Output{
		Response:   answer,
		Confidence: a.estimateConfidence(answer),
		Sources:    []string{"General Knowledge"},
		Metadata:   map[string]any{"prompt_length": len(p)},
	}, nil
}

func (a *Agent) buildPrompt(query string, qctx *agent.Context) string {
	b := prompt.NewBuilder()
	b.Add(personaPreamble).
		Add("").
		Add(personaGuidance).
		Add("")

	if turns := qctx.LastTurns(historyTurns); len(turns) > 0 {
		b.Add("Previous conversation:")
		for _, turn := range turns {
			b.AddFormat("%s: %s", capitalizeRole(turn.Role), turn.Content)
		}
		b.Add("")
	}

	b.AddFormat("User: %s", query).
		Add("").
		Add("Assistant:")

	return b.Build()
}

// estimateConfidence scores the answer text: hedging language lowers the
// estimate, assertive language raises it. Each distinct phrase counts once
// regardless of repetition.
func (a *Agent) estimateConfidence(answer string) int {
	confidence := baseConfidence
	lower := strings.ToLower(answer)

	for _, phrase := range a.hedgingPhrases {
		if strings.Contains(lower, phrase) {
			confidence -= confidenceStep
		}
	}
	for _, phrase := range a.assertivePhrases {
		if strings.Contains(lower, phrase) {
			confidence += confidenceStep
		}
	}

	return agent.ClampConfidence(confidence)
}

func capitalizeRole(role message.Role) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
