// Package orchestrator coordinates the knowledge agents: it fans a query
// out to them concurrently, synthesizes their outputs into one verified
// answer, reworks that answer into chat-sized messages and persists the
// exchange. ProcessQuery never fails for reasons originating in an agent,
// verification, chunking or persistence; the caller always receives at
// least one message.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/agents/history"
	"github.com/sweetpotato0/vedabot/agents/scripture"
	"github.com/sweetpotato0/vedabot/chunk"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/message"
	"github.com/sweetpotato0/vedabot/middleware"
	"github.com/sweetpotato0/vedabot/pkg/logging"
	"github.com/sweetpotato0/vedabot/pkg/telemetry"
	"github.com/sweetpotato0/vedabot/prompt"
	"github.com/sweetpotato0/vedabot/provider"
)

// ApologyResponse is the terminal fallback when no verified answer could be
// produced.
const ApologyResponse = "I apologize, but I couldn't generate a verified answer at this time."

// MessageDelimiter separates message units in the chunking backend's raw
// output.
const MessageDelimiter = "|||"

const (
	verificationTemperature   = 0.3
	conversationalTemperature = 0.8
	synthesisMaxTokens        = 1024
)

// Placeholder slot content for agents that failed or were not selected.
const (
	noScriptureSlot = "No scripture database results"
	noWebSlot       = "No web search results"
	noKnowledgeSlot = "No general knowledge response"
	noHistorySlot   = "No conversation history"
)

// Metadata carries the raw per-agent results and the synthesized answer
// alongside the final messages.
type Metadata struct {
	AgentResponses []*agent.Result `json:"agent_responses"`
	VerifiedAnswer string          `json:"verified_answer"`
}

// Result is the outcome of one orchestration pass.
type Result struct {
	Messages   []string           `json:"messages"`
	AgentsUsed []string           `json:"agents_used"`
	Citations  []message.Citation `json:"citations"`
	Metadata   Metadata           `json:"metadata"`
}

// Orchestrator owns the agents and the synthesis backend for one deployment.
// It is safe for concurrent use; all per-call state lives in the call.
type Orchestrator struct {
	cfg       *config.Config
	client    provider.Client
	scripture agent.Agent
	web       agent.Agent
	knowledge agent.Agent
	history   *history.Agent

	prompts *prompt.Manager
	chain   *middleware.Chain
	logger  *slog.Logger
	tracer  trace.Tracer

	persistWG sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPrompts replaces the default verification and conversational prompt
// templates.
func WithPrompts(m *prompt.Manager) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.prompts = m
		}
	}
}

// WithMiddleware appends a middleware to the request pipeline.
func WithMiddleware(m middleware.Middleware) Option {
	return func(o *Orchestrator) {
		o.chain.Add(m)
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator over the given agents and synthesis backend.
func New(cfg *config.Config, client provider.Client, scriptureAg, webAg, knowledgeAg agent.Agent, historyAg *history.Agent, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}

	o := &Orchestrator{
		cfg:       cfg,
		client:    client,
		scripture: scriptureAg,
		web:       webAg,
		knowledge: knowledgeAg,
		history:   historyAg,
		prompts:   defaultPrompts(),
		chain:     middleware.NewChain(middleware.NewRecoverer(nil), middleware.NewValidator()),
		logger:    logging.WithComponent("orchestrator"),
		tracer:    telemetry.Tracer("orchestrator"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// ProcessQuery runs the full orchestration pass for one query. The returned
// error is non-nil only for caller-input problems (missing query or
// subscriber id); every downstream failure is absorbed into the result.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query, subscriberID string, useAllAgents bool) (*Result, error) {
	mwCtx := middleware.NewContext(ctx, subscriberID, query)

	var result *Result
	err := o.chain.Execute(mwCtx, func(mc *middleware.Context) error {
		result = o.process(mc.Context(), mc.Query, mc.SubscriberID, useAllAgents)
		mc.Messages = result.Messages
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QuickResponse is ProcessQuery restricted to the scripture and history
// agents: a latency/quality tradeoff, not a different algorithm.
func (o *Orchestrator) QuickResponse(ctx context.Context, query, subscriberID string) (*Result, error) {
	return o.ProcessQuery(ctx, query, subscriberID, false)
}

// Wait blocks until all detached persistence writes have finished. Intended
// for shutdown and tests.
func (o *Orchestrator) Wait() {
	o.persistWG.Wait()
}

func (o *Orchestrator) process(ctx context.Context, query, subscriberID string, useAllAgents bool) *Result {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ResponseTimeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "orchestrator.process",
		trace.WithAttributes(attribute.Bool("use_all_agents", useAllAgents)))
	defer span.End()

	qctx := agent.NewContext(subscriberID, query)
	if o.history != nil {
		if turns, err := o.history.Recent(ctx, subscriberID); err == nil {
			qctx.History = turns
		} else {
			o.logger.Warn("history preload failed", "subscriber_id", subscriberID, "error", err)
		}
	}

	selected := []agent.Agent{o.scripture, o.history}
	if useAllAgents {
		selected = append(selected, o.web, o.knowledge)
	}

	results := o.fanOut(ctx, selected, query, qctx)

	verified := o.verify(ctx, query, results)

	messages := o.conversational(ctx, verified)

	citations := ExtractCitations(verified)

	var agentsUsed []string
	for _, r := range results {
		if r.Success {
			agentsUsed = append(agentsUsed, r.Agent)
		}
	}

	o.persistExchange(ctx, subscriberID, query, messages, agentsUsed, citations)

	return &Result{
		Messages:   messages,
		AgentsUsed: agentsUsed,
		Citations:  citations,
		Metadata: Metadata{
			AgentResponses: results,
			VerifiedAnswer: verified,
		},
	}
}

// fanOut runs the selected agents concurrently and joins on all of them.
// Execute already traps agent errors; a panicking task is additionally
// excluded from the result set rather than aborting the batch.
func (o *Orchestrator) fanOut(ctx context.Context, selected []agent.Agent, query string, qctx *agent.Context) []*agent.Result {
	ctx, span := o.tracer.Start(ctx, "orchestrator.fanout",
		trace.WithAttributes(attribute.Int("agents", len(selected))))
	defer span.End()

	results := make([]*agent.Result, len(selected))
	var wg sync.WaitGroup

	for i, ag := range selected {
		if ag == nil {
			continue
		}
		wg.Add(1)
		go func(index int, ag agent.Agent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("agent panicked", "agent", ag.Name(), "panic", r)
					results[index] = nil
				}
			}()

			agentCtx, cancel := context.WithTimeout(ctx, o.cfg.AgentTimeout)
			defer cancel()

			results[index] = agent.Execute(agentCtx, ag, query, qctx)
		}(i, ag)
	}

	wg.Wait()

	collected := make([]*agent.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			collected = append(collected, r)
		}
	}
	return collected
}

// verify synthesizes the successful agent outputs into one answer, with a
// closed fallback chain: knowledge raw answer, then scripture raw answer
// unless it is the no-results sentinel, then the fixed apology.
func (o *Orchestrator) verify(ctx context.Context, query string, results []*agent.Result) string {
	ctx, span := o.tracer.Start(ctx, "orchestrator.verify")
	var stageErr error
	defer func() { telemetry.End(span, stageErr) }()

	slots := map[agent.Kind]string{}
	for _, r := range results {
		if !r.Success {
			continue
		}
		slots[r.Kind] = r.Response
	}

	rendered, err := o.prompts.Render(verificationPromptName, map[string]interface{}{
		"Question":            query,
		"ScriptureResults":    slotOrPlaceholder(slots, agent.KindScripture, noScriptureSlot),
		"WebResults":          slotOrPlaceholder(slots, agent.KindWeb, noWebSlot),
		"KnowledgeResults":    slotOrPlaceholder(slots, agent.KindKnowledge, noKnowledgeSlot),
		"ConversationHistory": slotOrPlaceholder(slots, agent.KindHistory, noHistorySlot),
	})
	if err == nil {
		answer, completeErr := o.client.Complete(ctx, provider.Request{
			Prompt:            rendered,
			SystemInstruction: verificationSystemInstruction,
			Temperature:       verificationTemperature,
			MaxTokens:         synthesisMaxTokens,
		})
		answer = strings.TrimSpace(answer)
		if completeErr == nil && answer != "" {
			return answer
		}
		err = completeErr
	}

	stageErr = err
	o.logger.Error("verification failed, using fallback", "error", err)

	if knowledge := slots[agent.KindKnowledge]; knowledge != "" {
		return knowledge
	}
	if scriptureRaw := slots[agent.KindScripture]; scriptureRaw != "" && scriptureRaw != scripture.NoResultsResponse {
		return scriptureRaw
	}
	return ApologyResponse
}

// conversational rewrites the verified answer into short messages. Any
// failure falls back to a single message carrying the whole answer.
func (o *Orchestrator) conversational(ctx context.Context, verified string) []string {
	ctx, span := o.tracer.Start(ctx, "orchestrator.chunk")
	var stageErr error
	defer func() { telemetry.End(span, stageErr) }()

	rendered, err := o.prompts.Render(conversationalPromptName, map[string]interface{}{
		"VerifiedAnswer": verified,
		"MaxMessages":    o.cfg.MaxMessagesPerResponse,
	})
	if err == nil {
		raw, completeErr := o.client.Complete(ctx, provider.Request{
			Prompt:            rendered,
			SystemInstruction: conversationalSystemInstruction,
			Temperature:       conversationalTemperature,
			MaxTokens:         synthesisMaxTokens,
		})
		if completeErr == nil {
			messages := chunk.SplitDelimited(raw, MessageDelimiter, o.cfg.MaxMessagesPerResponse)
			if len(messages) > 0 {
				return messages
			}
		}
		err = completeErr
	}

	stageErr = err
	o.logger.Error("conversational chunking failed, using whole answer", "error", err)
	return []string{verified}
}

// persistExchange saves both turns on a detached task decoupled from the
// request lifecycle: a disconnecting caller does not cancel the writes, and
// a failing store only logs.
func (o *Orchestrator) persistExchange(ctx context.Context, subscriberID, query string, messages, agentsUsed []string, citations []message.Citation) {
	if o.history == nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	o.persistWG.Add(1)
	go func() {
		defer o.persistWG.Done()

		ctx, cancel := context.WithTimeout(bg, o.cfg.ResponseTimeout)
		defer cancel()

		if err := o.history.SaveMessage(ctx, subscriberID, message.RoleUser, query, message.TypeText, nil, nil); err != nil {
			o.logger.Error("persist user turn failed", "subscriber_id", subscriberID, "error", err)
		}

		full := strings.Join(messages, " ")
		if err := o.history.SaveMessage(ctx, subscriberID, message.RoleAssistant, full, message.TypeText, agentsUsed, citations); err != nil {
			o.logger.Error("persist assistant turn failed", "subscriber_id", subscriberID, "error", err)
		}
	}()
}

func slotOrPlaceholder(slots map[agent.Kind]string, kind agent.Kind, placeholder string) string {
	if v := slots[kind]; v != "" {
		return v
	}
	return placeholder
}
