package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/message"
	"github.com/sweetpotato0/vedabot/provider"
)

type fakeClient struct {
	answer     string
	err        error
	lastPrompt string
	lastReq    provider.Request
}

func (f *fakeClient) Complete(ctx context.Context, req provider.Request) (string, error) {
	f.lastPrompt = req.Prompt
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestProcessSamplingParameters(t *testing.T) {
	fc := &fakeClient{answer: "Dharma is duty."}
	ag := New(fc, config.Default())

	if _, err := ag.Process(context.Background(), "what is dharma?", nil); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if fc.lastReq.Temperature != 0.7 || fc.lastReq.TopP != 0.95 || fc.lastReq.TopK != 40 || fc.lastReq.MaxTokens != 1024 {
		t.Errorf("Unexpected sampling parameters: %+v", fc.lastReq)
	}
}

func TestProcessPromptIncludesHistory(t *testing.T) {
	fc := &fakeClient{answer: "answer"}
	ag := New(fc, config.Default())

	qctx := agent.NewContext("sub-1", "q")
	for i := 0; i < 7; i++ {
		qctx.History = append(qctx.History, message.New("sub-1", message.RoleUser, "old question"))
	}
	qctx.History = append(qctx.History, message.New("sub-1", message.RoleAssistant, "recent reply"))

	if _, err := ag.Process(context.Background(), "what is dharma?", qctx); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !strings.Contains(fc.lastPrompt, "Previous conversation:") {
		t.Error("Expected history section in prompt")
	}
	if !strings.Contains(fc.lastPrompt, "Assistant: recent reply") {
		t.Error("Expected capitalized role line in prompt")
	}
	if got := strings.Count(fc.lastPrompt, "old question"); got != 4 {
		t.Errorf("Expected only last 5 turns (4 old + 1 recent), found %d old turns", got)
	}
	if !strings.Contains(fc.lastPrompt, "User: what is dharma?") {
		t.Error("Expected query at the end of the prompt")
	}
}

func TestProcessEmptyAnswerIsError(t *testing.T) {
	ag := New(&fakeClient{answer: "   "}, config.Default())

	_, err := ag.Process(context.Background(), "q", nil)
	if !errors.Is(err, provider.ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestProcessBackendErrorPropagates(t *testing.T) {
	ag := New(&fakeClient{err: errors.New("quota exceeded")}, config.Default())

	if _, err := ag.Process(context.Background(), "q", nil); err == nil {
		t.Error("Expected backend error to propagate")
	}
}

func TestEstimateConfidence(t *testing.T) {
	ag := New(&fakeClient{}, config.Default())

	tests := []struct {
		name   string
		answer string
		want   int
	}{
		{"neutral", "Krishna teaches selfless action.", 70},
		{"one hedge", "It might be about duty.", 60},
		{"one assertive", "According to the Gita, act without attachment.", 80},
		{"distinct phrase counted once", "might might might", 60},
		{"mixed", "Perhaps, but according to the Gita it is clearly duty.", 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ag.estimateConfidence(tt.answer); got != tt.want {
				t.Errorf("estimateConfidence(%q) = %d, want %d", tt.answer, got, tt.want)
			}
		})
	}
}

func TestEstimateConfidenceClamps(t *testing.T) {
	ag := New(&fakeClient{}, config.Default())

	hedged := "might maybe perhaps possibly i think i believe not sure unclear"
	if got := ag.estimateConfidence(hedged); got != 0 {
		t.Errorf("Expected clamp to 0 with every hedge matched, got %d", got)
	}

	assertive := "according to, as mentioned in, specifically, definitely, clearly"
	if got := ag.estimateConfidence(assertive); got != 100 {
		t.Errorf("Expected clamp to 100 with every assertive phrase matched, got %d", got)
	}
}

func TestExecuteTrapsEmptyResponse(t *testing.T) {
	ag := New(&fakeClient{answer: ""}, config.Default())

	res := agent.Execute(context.Background(), ag, "q", nil)

	if res.Success {
		t.Fatal("Expected failure result")
	}
	if res.Response != "" || res.Confidence != 0 || res.Err == "" {
		t.Errorf("Failure invariant violated: %+v", res)
	}
}
