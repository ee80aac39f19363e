package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/agents/history"
	"github.com/sweetpotato0/vedabot/agents/scripture"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/message"
	"github.com/sweetpotato0/vedabot/provider"
)

type fakeAgent struct {
	name  string
	kind  agent.Kind
	out   *agent.Output
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeAgent) Name() string     { return f.name }
func (f *fakeAgent) Kind() agent.Kind { return f.kind }

func (f *fakeAgent) Process(ctx context.Context, query string, qctx *agent.Context) (*agent.Output, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeAgent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClient routes on temperature: verification runs cool, chunking runs
// warm.
type fakeClient struct {
	verifyResponse string
	verifyErr      error
	chunkResponse  string
	chunkErr       error

	mu          sync.Mutex
	verifyCalls int
	chunkCalls  int
}

func (f *fakeClient) Complete(ctx context.Context, req provider.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Temperature < 0.5 {
		f.verifyCalls++
		return f.verifyResponse, f.verifyErr
	}
	f.chunkCalls++
	return f.chunkResponse, f.chunkErr
}

type fakeStore struct {
	mu       sync.Mutex
	msgs     []*message.Message
	appended []*message.Message
}

func (f *fakeStore) RecentMessages(ctx context.Context, subscriberID string, limit int) ([]*message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs, nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, msg *message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, msg)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) appendedMessages() []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*message.Message(nil), f.appended...)
}

func scriptureAgent(response string) *fakeAgent {
	return &fakeAgent{
		name: "Scripture Search",
		kind: agent.KindScripture,
		out:  &agent.Output{Response: response, Confidence: 85},
	}
}

func webAgent() *fakeAgent {
	return &fakeAgent{
		name: "Web Search",
		kind: agent.KindWeb,
		out:  &agent.Output{Response: "1. Article\nSnippet", Confidence: 40},
	}
}

func knowledgeAgent(response string) *fakeAgent {
	return &fakeAgent{
		name: "General Knowledge",
		kind: agent.KindKnowledge,
		out:  &agent.Output{Response: response, Confidence: 70},
	}
}

func newTestOrchestrator(client provider.Client, st *fakeStore, scriptureAg, webAg, knowledgeAg agent.Agent) *Orchestrator {
	cfg := config.Default()
	return New(cfg, client, scriptureAg, webAg, knowledgeAg, history.New(st, cfg))
}

func TestProcessQueryFullPipeline(t *testing.T) {
	client := &fakeClient{
		verifyResponse: "Focus on action. As mentioned in Bhagavad Gita, Chapter 2, Verse 47, you have a right to action alone.",
		chunkResponse:  "Focus on action.|||As mentioned in Bhagavad Gita, Chapter 2, Verse 47, you have a right to action alone.",
	}
	st := &fakeStore{}
	o := newTestOrchestrator(client, st, scriptureAgent("Gita 2.47:\nYou have a right to action alone."), webAgent(), knowledgeAgent("Karma yoga is the path of action."))

	result, err := o.ProcessQuery(context.Background(), "what does the Gita say about duty?", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}

	if len(result.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d: %v", len(result.Messages), result.Messages)
	}
	if len(result.AgentsUsed) != 4 {
		t.Errorf("Expected 4 agents used, got %v", result.AgentsUsed)
	}
	if len(result.Citations) != 1 {
		t.Fatalf("Expected 1 citation, got %v", result.Citations)
	}
	c := result.Citations[0]
	if c.Book != "Bhagavad Gita" || c.Chapter != 2 || c.Verse != 47 {
		t.Errorf("Unexpected citation: %+v", c)
	}
	if result.Metadata.VerifiedAnswer != client.verifyResponse {
		t.Errorf("Verified answer not carried in metadata")
	}
	if len(result.Metadata.AgentResponses) != 4 {
		t.Errorf("Expected 4 agent responses, got %d", len(result.Metadata.AgentResponses))
	}
}

func TestQuickResponseSkipsWebAndKnowledge(t *testing.T) {
	client := &fakeClient{verifyResponse: "Answer.", chunkResponse: "Answer."}
	web := webAgent()
	knowledge := knowledgeAgent("k")
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("passage"), web, knowledge)

	result, err := o.QuickResponse(context.Background(), "q", "sub-1")
	if err != nil {
		t.Fatalf("QuickResponse failed: %v", err)
	}

	if web.callCount() != 0 {
		t.Errorf("Web agent must not run in quick mode, ran %d times", web.callCount())
	}
	if knowledge.callCount() != 0 {
		t.Errorf("Knowledge agent must not run in quick mode, ran %d times", knowledge.callCount())
	}
	if len(result.Metadata.AgentResponses) != 2 {
		t.Errorf("Expected 2 agent responses, got %d", len(result.Metadata.AgentResponses))
	}
}

func TestVerificationFallbackToKnowledge(t *testing.T) {
	client := &fakeClient{verifyErr: errors.New("backend down"), chunkResponse: "msg"}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("passage"), webAgent(), knowledgeAgent("Knowledge answer."))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if result.Metadata.VerifiedAnswer != "Knowledge answer." {
		t.Errorf("Expected knowledge fallback, got %q", result.Metadata.VerifiedAnswer)
	}
}

func TestVerificationFallbackToScripture(t *testing.T) {
	client := &fakeClient{verifyErr: errors.New("backend down"), chunkResponse: "msg"}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("Gita 2.47:\npassage"), webAgent(), knowledgeAgent(""))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", false)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if result.Metadata.VerifiedAnswer != "Gita 2.47:\npassage" {
		t.Errorf("Expected scripture fallback, got %q", result.Metadata.VerifiedAnswer)
	}
}

func TestVerificationFallbackToApology(t *testing.T) {
	client := &fakeClient{verifyErr: errors.New("backend down"), chunkErr: errors.New("backend down")}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent(scripture.NoResultsResponse), webAgent(), knowledgeAgent(""))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", false)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if result.Metadata.VerifiedAnswer != ApologyResponse {
		t.Errorf("Expected apology, got %q", result.Metadata.VerifiedAnswer)
	}
	if len(result.Messages) != 1 || result.Messages[0] != ApologyResponse {
		t.Errorf("Expected single apology message, got %v", result.Messages)
	}
}

func TestChunkingFallbackWholeAnswer(t *testing.T) {
	client := &fakeClient{verifyResponse: "One verified answer.", chunkErr: errors.New("backend down")}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("p"), webAgent(), knowledgeAgent("k"))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0] != "One verified answer." {
		t.Errorf("Expected whole-answer fallback, got %v", result.Messages)
	}
}

func TestChunkingCapsMessageCount(t *testing.T) {
	parts := make([]string, 9)
	for i := range parts {
		parts[i] = "part"
	}
	client := &fakeClient{
		verifyResponse: "Long answer.",
		chunkResponse:  strings.Join(parts, MessageDelimiter),
	}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("p"), webAgent(), knowledgeAgent("k"))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if len(result.Messages) != config.Default().MaxMessagesPerResponse {
		t.Errorf("Expected %d messages, got %d", config.Default().MaxMessagesPerResponse, len(result.Messages))
	}
}

func TestPartialAgentFailureTolerated(t *testing.T) {
	failing := &fakeAgent{name: "Scripture Search", kind: agent.KindScripture, err: errors.New("index down")}
	client := &fakeClient{verifyResponse: "Answer from the rest.", chunkResponse: "Answer from the rest."}
	o := newTestOrchestrator(client, &fakeStore{}, failing, webAgent(), knowledgeAgent("k"))

	result, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("One failing agent must not fail the pass: %v", err)
	}

	for _, name := range result.AgentsUsed {
		if name == "Scripture Search" {
			t.Errorf("Failed agent listed in AgentsUsed: %v", result.AgentsUsed)
		}
	}
	if len(result.Metadata.AgentResponses) != 4 {
		t.Errorf("Failure result must still be reported, got %d responses", len(result.Metadata.AgentResponses))
	}
	if len(result.Messages) == 0 {
		t.Error("Expected at least one message")
	}
}

func TestProcessQueryRejectsMissingInput(t *testing.T) {
	o := newTestOrchestrator(&fakeClient{}, &fakeStore{}, scriptureAgent("p"), webAgent(), knowledgeAgent("k"))

	if _, err := o.ProcessQuery(context.Background(), "", "sub-1", true); err == nil {
		t.Error("Expected error for empty query")
	}
	if _, err := o.ProcessQuery(context.Background(), "q", "", true); err == nil {
		t.Error("Expected error for empty subscriber id")
	}
}

func TestPersistenceWritesBothTurns(t *testing.T) {
	client := &fakeClient{
		verifyResponse: "As mentioned in Bhagavad Gita, Chapter 2, Verse 47, act without attachment.",
		chunkResponse:  "First part.|||As mentioned in Bhagavad Gita, Chapter 2, Verse 47, act without attachment.",
	}
	st := &fakeStore{}
	o := newTestOrchestrator(client, st, scriptureAgent("p"), webAgent(), knowledgeAgent("k"))

	result, err := o.ProcessQuery(context.Background(), "what is detachment?", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	o.Wait()

	appended := st.appendedMessages()
	if len(appended) != 2 {
		t.Fatalf("Expected 2 persisted turns, got %d", len(appended))
	}

	userTurn := appended[0]
	if userTurn.Role != message.RoleUser || userTurn.Content != "what is detachment?" {
		t.Errorf("Unexpected user turn: %+v", userTurn)
	}

	assistantTurn := appended[1]
	if assistantTurn.Role != message.RoleAssistant {
		t.Errorf("Expected assistant role, got %s", assistantTurn.Role)
	}
	wantContent := strings.Join(result.Messages, " ")
	if assistantTurn.Content != wantContent {
		t.Errorf("Expected joined messages %q, got %q", wantContent, assistantTurn.Content)
	}
	if len(assistantTurn.AgentsUsed) != len(result.AgentsUsed) {
		t.Errorf("AgentsUsed not persisted: %v", assistantTurn.AgentsUsed)
	}
	if len(assistantTurn.Citations) != 1 {
		t.Errorf("Citations not persisted: %v", assistantTurn.Citations)
	}
}

func TestProcessQueryIdempotentResult(t *testing.T) {
	client := &fakeClient{verifyResponse: "Stable answer.", chunkResponse: "Stable answer."}
	o := newTestOrchestrator(client, &fakeStore{}, scriptureAgent("p"), webAgent(), knowledgeAgent("k"))

	first, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	second, err := o.ProcessQuery(context.Background(), "q", "sub-1", true)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if len(first.Messages) != len(second.Messages) || first.Metadata.VerifiedAnswer != second.Metadata.VerifiedAnswer {
		t.Error("Expected identical results for identical inputs")
	}
}
