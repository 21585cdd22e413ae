// Package llm defines the generation boundary. The rest of the system
// treats the model as an opaque text-in, text-out collaborator.
package llm

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("llm unavailable")

// MessageInput is one generation turn. Text carries the full loop input,
// including any tool results the loop has accumulated.
type MessageInput struct {
	Agent        string
	Session      string
	SystemPrompt string
	Text         string
}

type Responder interface {
	Reply(ctx context.Context, input MessageInput) (string, error)
}
