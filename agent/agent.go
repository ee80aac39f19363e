// Package agent defines the uniform contract shared by every knowledge
// agent: variant-specific Process logic wrapped by a single Execute
// function that handles timing, confidence clamping and failure
// normalization for all variants.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/vedabot/pkg/logging"
)

// Kind tags an agent with its role in the orchestration. The verification
// step routes results into slots by Kind, never by name.
type Kind string

const (
	KindScripture Kind = "scripture"
	KindWeb       Kind = "web"
	KindKnowledge Kind = "knowledge"
	KindHistory   Kind = "history"
)

// Output is the variant-specific result of one Process call.
type Output struct {
	Response   string
	Confidence int
	Sources    []string
	Metadata   map[string]any
}

// Result is the normalized outcome of one agent invocation.
//
// Invariant: Success == false implies Response == "", Confidence == 0 and
// Err != "". Confidence is always within [0,100].
type Result struct {
	Agent        string         `json:"agent"`
	Kind         Kind           `json:"kind"`
	Success      bool           `json:"success"`
	Response     string         `json:"response"`
	Confidence   int            `json:"confidence"`
	Sources      []string       `json:"sources"`
	Metadata     map[string]any `json:"metadata"`
	ResponseTime int64          `json:"response_time_ms"`
	Err          string         `json:"error,omitempty"`
}

// Agent is a unit of work wrapping one external knowledge source.
//
// Process may fail loudly; Execute is the sole place failure is normalized.
type Agent interface {
	// Name returns the agent's display name.
	Name() string

	// Kind returns the agent's routing tag.
	Kind() Kind

	// Process runs the variant-specific logic for the query.
	Process(ctx context.Context, query string, qctx *Context) (*Output, error)
}

// Execute invokes ag.Process with timing and error handling. It never
// returns an error: any failure, including a nil or empty output, becomes a
// Result with Success == false.
func Execute(ctx context.Context, ag Agent, query string, qctx *Context) *Result {
	log := logging.WithComponent("agent")
	start := time.Now()

	log.Debug("agent starting", "agent", ag.Name())

	out, err := ag.Process(ctx, query, qctx)
	elapsed := time.Since(start).Milliseconds()

	if err == nil && out == nil {
		err = fmt.Errorf("agent %s returned no output", ag.Name())
	}

	if err != nil {
		log.Error("agent failed", "agent", ag.Name(), "elapsed_ms", elapsed, "error", err)
		return &Result{
			Agent:        ag.Name(),
			Kind:         ag.Kind(),
			Success:      false,
			Response:     "",
			Confidence:   0,
			Sources:      []string{},
			Metadata:     map[string]any{},
			ResponseTime: elapsed,
			Err:          err.Error(),
		}
	}

	log.Info("agent completed", "agent", ag.Name(), "elapsed_ms", elapsed, "confidence", out.Confidence)

	sources := out.Sources
	if sources == nil {
		sources = []string{}
	}
	metadata := out.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Result{
		Agent:        ag.Name(),
		Kind:         ag.Kind(),
		Success:      true,
		Response:     out.Response,
		Confidence:   ClampConfidence(out.Confidence),
		Sources:      sources,
		Metadata:     metadata,
		ResponseTime: elapsed,
	}
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
