// Package middleware provides an interception chain around the
// orchestration request pipeline: logging, caller-input validation and
// panic recovery run before and after a query is processed.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	vedaerrors "github.com/sweetpotato0/vedabot/errors"
	"github.com/sweetpotato0/vedabot/pkg/logging"
)

// Context represents the middleware execution context for one query.
type Context struct {
	// SubscriberID identifies the end user the query belongs to.
	SubscriberID string

	// Query is the user's question.
	Query string

	// Messages holds the chunked reply once the pipeline has run.
	Messages []string

	// Error from execution
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]interface{}

	// Internal state
	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, subscriberID, query string) *Context {
	return &Context{
		SubscriberID: subscriberID,
		Query:        query,
		Metadata:     make(map[string]interface{}),
		context:      ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	return c.context
}

// Middleware defines the interface for middleware components wrapping the
// orchestration pipeline.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic. Returning an error stops the
	// chain.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// Chain represents a sequence of middleware to be executed
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{
		middlewares: middlewares,
	}
}

// Add appends a middleware to the chain
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// List returns the middlewares in execution order.
func (c *Chain) List() []Middleware {
	return append([]Middleware(nil), c.middlewares...)
}

// Execute runs all middlewares in the chain, then the final handler.
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}

	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}

	return c.middlewares[index].Execute(ctx, next)
}

// RequestLogger logs each query with its outcome and duration.
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("pipeline")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request before and after processing.
func (m *RequestLogger) Execute(ctx *Context, next Handler) error {
	m.logger.Info("query received",
		"subscriber_id", ctx.SubscriberID,
		"query_length", len(ctx.Query))

	start := time.Now()
	err := next(ctx)
	elapsed := time.Since(start)

	if err != nil {
		m.logger.Error("query failed",
			"subscriber_id", ctx.SubscriberID,
			"elapsed", elapsed,
			"error", err)
		return err
	}

	m.logger.Info("query answered",
		"subscriber_id", ctx.SubscriberID,
		"elapsed", elapsed,
		"messages", len(ctx.Messages))
	return nil
}

// Validator rejects requests missing required identifiers. This is the one
// failure class surfaced to the caller instead of being swallowed.
type Validator struct{}

// NewValidator creates a caller-input validation middleware.
func NewValidator() *Validator {
	return &Validator{}
}

// Name returns the middleware name
func (m *Validator) Name() string {
	return "Validator"
}

// Execute validates required request fields.
func (m *Validator) Execute(ctx *Context, next Handler) error {
	if ctx.SubscriberID == "" {
		return fmt.Errorf("%w: subscriber id is required", vedaerrors.ErrInvalidInput)
	}
	if ctx.Query == "" {
		return fmt.Errorf("%w: query is required", vedaerrors.ErrInvalidInput)
	}
	return next(ctx)
}

// Recoverer converts a panic in the pipeline into an error.
type Recoverer struct {
	logger *slog.Logger
}

// NewRecoverer creates a panic recovery middleware.
func NewRecoverer(logger *slog.Logger) *Recoverer {
	if logger == nil {
		logger = logging.WithComponent("pipeline")
	}
	return &Recoverer{logger: logger}
}

// Name returns the middleware name
func (m *Recoverer) Name() string {
	return "Recoverer"
}

// Execute recovers from panics in downstream handlers.
func (m *Recoverer) Execute(ctx *Context, next Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in pipeline", "subscriber_id", ctx.SubscriberID, "panic", r)
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return next(ctx)
}
