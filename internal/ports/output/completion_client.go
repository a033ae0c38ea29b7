package output

import (
	"context"

	"virtual-patient/internal/domain"
)

// CompletionClient interface - Output port
// Defines what the application needs from a chat-completion provider.
type CompletionClient interface {
	// ChatCompletion sends a non-streaming chat completion request and returns the raw
	// text of the first choice. Errors wrap domain.ErrCompletionUnavailable,
	// domain.ErrCompletionTimeout or domain.ErrInvalidRequest.
	ChatCompletion(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error)
}
