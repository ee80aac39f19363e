// Package openai implements provider.Client on the official OpenAI SDK.
// An alternative synthesis backend to Gemini.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/sweetpotato0/vedabot/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/vedabot/provider"
)

// Config holds OpenAI client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxPromptTokens rejects oversized prompts before they reach the
	// API. Zero disables the guard.
	MaxPromptTokens int
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithAPIKey set api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithModel set model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Model:           "gpt-4o-mini",
		MaxPromptTokens: 8192,
	}
}

// Client implements provider.Client for OpenAI
type Client struct {
	config    *Config
	client    openaisdk.Client
	tokenizer *tiktoken.Tokenizer
}

// New creates a new OpenAI client using the official SDK
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := openaisdk.NewClient(options...)

	// Token counting is a guard, not a requirement; unknown models just
	// skip it.
	tok, err := tiktoken.New(config.Model)
	if err != nil {
		tok = nil
	}

	return &Client{
		config:    config,
		client:    client,
		tokenizer: tok,
	}
}

// Complete implements provider.Client.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	if c.tokenizer != nil && c.config.MaxPromptTokens > 0 {
		if n := c.tokenizer.CountTokens(req.Prompt); n > c.config.MaxPromptTokens {
			return "", fmt.Errorf("prompt too large: %d tokens exceeds limit %d", n, c.config.MaxPromptTokens)
		}
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, openaisdk.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, openaisdk.UserMessage(req.Prompt))

	params := openaisdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    openaisdk.ChatModel(c.config.Model),
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = param.NewOpt(float64(req.TopP))
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", provider.ErrEmptyResponse
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}
