package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	vedaerrors "github.com/sweetpotato0/vedabot/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingMiddleware struct {
	name  string
	order *[]string
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) Execute(ctx *Context, next Handler) error {
	*m.order = append(*m.order, m.name+":before")
	err := next(ctx)
	*m.order = append(*m.order, m.name+":after")
	return err
}

func TestChainOrder(t *testing.T) {
	var order []string
	chain := NewChain(
		&recordingMiddleware{name: "first", order: &order},
		&recordingMiddleware{name: "second", order: &order},
	)

	ctx := NewContext(context.Background(), "sub-1", "q")
	err := chain.Execute(ctx, func(c *Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{"first:before", "second:before", "handler", "second:after", "first:after"}
	if len(order) != len(want) {
		t.Fatalf("Expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestChainEmptyRunsHandler(t *testing.T) {
	chain := NewChain()
	ran := false

	err := chain.Execute(NewContext(context.Background(), "sub-1", "q"), func(c *Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !ran {
		t.Error("Expected final handler to run")
	}
}

func TestValidatorRejectsMissingFields(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name         string
		subscriberID string
		query        string
		wantError    bool
	}{
		{"valid", "sub-1", "what is dharma?", false},
		{"missing subscriber", "", "q", true},
		{"missing query", "sub-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(context.Background(), tt.subscriberID, tt.query)
			called := false
			err := v.Execute(ctx, func(c *Context) error {
				called = true
				return nil
			})
			if (err != nil) != tt.wantError {
				t.Errorf("Expected error=%v, got %v", tt.wantError, err)
			}
			if err != nil && !errors.Is(err, vedaerrors.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
			if called == tt.wantError {
				t.Errorf("Handler called=%v, want %v", called, !tt.wantError)
			}
		})
	}
}

func TestRecovererConvertsPanic(t *testing.T) {
	chain := NewChain(NewRecoverer(discardLogger()))

	err := chain.Execute(NewContext(context.Background(), "sub-1", "q"), func(c *Context) error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("Expected panic converted to error")
	}
}

func TestRequestLoggerPassesThroughError(t *testing.T) {
	chain := NewChain(NewRequestLogger(discardLogger()))
	wantErr := errors.New("downstream failure")

	err := chain.Execute(NewContext(context.Background(), "sub-1", "q"), func(c *Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected downstream error, got %v", err)
	}
}
