package domain

// DTOs (Data Transfer Objects) - Domain layer request/response structures

type (
	// ChatRequest struct - Doctor message addressed to a session
	ChatRequest struct {
		Message   string
		SessionID string
	}

	// ChatResponse struct - Patient messages produced for one request
	ChatResponse struct {
		SessionID    string
		Interactions int
		Messages     []OutgoingMessage
	}

	// PalpationRequest struct - Physical examination of an anatomical region
	PalpationRequest struct {
		Region    string
		SessionID string
	}

	// PalpationResponse struct - Examination result
	PalpationResponse struct {
		Region  string
		Finding PalpationFinding
	}
)
