// Package config holds the process-wide orchestration configuration. A
// Config is constructed once at startup and treated as immutable afterwards;
// components receive it by value or hold a pointer they never write through.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries the orchestration policy knobs and heuristic word lists.
//
// The phrase and keyword lists are data, not logic: they were tuned by trial
// in production and are expected to be iterated on without touching the
// orchestration algorithm.
type Config struct {
	// MaxMessagesPerResponse caps the number of chat messages produced by
	// the conversational chunking step.
	MaxMessagesPerResponse int

	// MaxConversationHistory is the number of stored turns the history
	// agent retrieves per call.
	MaxConversationHistory int

	// TopKPassages is how many passages the scripture agent retrieves
	// before filtering.
	TopKPassages int

	// MinPassageScore is the similarity threshold below which retrieved
	// passages are discarded.
	MinPassageScore float32

	// AgentTimeout bounds each agent's external call during fan-out.
	AgentTimeout time.Duration

	// ResponseTimeout bounds one whole orchestration pass.
	ResponseTimeout time.Duration

	// HedgingPhrases lower the knowledge agent's confidence estimate by 10
	// per distinct matched phrase.
	HedgingPhrases []string

	// AssertivePhrases raise the knowledge agent's confidence estimate by
	// 10 per distinct matched phrase.
	AssertivePhrases []string

	// DomainKeywords mark a query as already on-topic for web search; a
	// query matching none of them gets the disambiguation suffix appended.
	DomainKeywords []string
}

// Default returns the configuration with production defaults.
func Default() *Config {
	return &Config{
		MaxMessagesPerResponse: 6,
		MaxConversationHistory: 15,
		TopKPassages:           5,
		MinPassageScore:        0.7,
		AgentTimeout:           20 * time.Second,
		ResponseTimeout:        30 * time.Second,
		HedgingPhrases: []string{
			"might", "maybe", "perhaps", "possibly", "i think",
			"i believe", "not sure", "unclear",
		},
		AssertivePhrases: []string{
			"according to", "as mentioned in", "specifically",
			"definitely", "clearly",
		},
		DomainKeywords: []string{
			"hindu", "hinduism", "vedic", "sanskrit", "bhagavad", "gita",
			"veda", "upanishad", "purana", "ramayana", "mahabharata",
		},
	}
}

// Load returns the default configuration overridden by VEDABOT_* environment
// variables where present.
func Load() *Config {
	cfg := Default()

	if v := envInt("VEDABOT_MAX_MESSAGES"); v > 0 {
		cfg.MaxMessagesPerResponse = v
	}
	if v := envInt("VEDABOT_MAX_HISTORY"); v > 0 {
		cfg.MaxConversationHistory = v
	}
	if v := envInt("VEDABOT_AGENT_TIMEOUT_SECONDS"); v > 0 {
		cfg.AgentTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("VEDABOT_RESPONSE_TIMEOUT_SECONDS"); v > 0 {
		cfg.ResponseTimeout = time.Duration(v) * time.Second
	}

	return cfg
}

// Validate checks the configuration for values the orchestrator cannot
// operate with.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequirePositive("maxMessagesPerResponse", c.MaxMessagesPerResponse)
	v.RequirePositive("maxConversationHistory", c.MaxConversationHistory)
	v.RequirePositive("topKPassages", c.TopKPassages)
	v.ValidateFloatRange("minPassageScore", float64(c.MinPassageScore), 0.0, 1.0)
	v.RequirePositive("agentTimeoutSeconds", int(c.AgentTimeout/time.Second))
	v.RequireNonEmptyList("hedgingPhrases", c.HedgingPhrases)
	v.RequireNonEmptyList("assertivePhrases", c.AssertivePhrases)
	v.RequireNonEmptyList("domainKeywords", c.DomainKeywords)

	return v.Error()
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
