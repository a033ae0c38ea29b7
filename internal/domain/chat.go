package domain

// ChatMessageRole represents the author of a chat completion message
type ChatMessageRole string

const (
	// ChatMessageRoleSystem - Instructions for the model
	ChatMessageRoleSystem ChatMessageRole = "system"
	// ChatMessageRoleUser - Doctor input
	ChatMessageRoleUser ChatMessageRole = "user"
)

// ChatMessage represents a single message sent to the completion provider
type ChatMessage struct {
	Role    ChatMessageRole
	Content string
}

// ChatCompletionRequest represents one call to the completion provider.
// Nil optional fields fall back to the adapter's configured defaults.
type ChatCompletionRequest struct {
	Messages    []ChatMessage
	Temperature *float32
	MaxTokens   *int
	JSONMode    bool
}

// ChatCompletionResponse represents the raw text produced by the completion provider
type ChatCompletionResponse struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
