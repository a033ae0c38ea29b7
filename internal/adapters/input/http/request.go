package http

// maxMessageLength bounds one doctor message; kept in sync with the ChatRequest tag
const maxMessageLength = 4000

type (
	// ChatRequest struct - HTTP request DTO
	ChatRequest struct {
		Message   string `json:"message" validate:"notblank,max=4000"`
		SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	}

	// PalpationRequest struct - HTTP request DTO
	PalpationRequest struct {
		Region    string `json:"region" validate:"notblank,max=200"`
		SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	}
)
