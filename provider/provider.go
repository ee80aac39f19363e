package provider

import (
	"context"
	"errors"
)

// ErrEmptyResponse indicates the completion backend returned no text.
var ErrEmptyResponse = errors.New("empty response from completion backend")

// Request bundles inputs for a single completion call.
type Request struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
	TopP              float32
	TopK              int32
	MaxTokens         int32
}

// Client defines the interface for completion backends.
type Client interface {
	// Complete generates text for the request. Implementations return
	// ErrEmptyResponse when the backend produces no usable text.
	Complete(ctx context.Context, req Request) (string, error)
}
