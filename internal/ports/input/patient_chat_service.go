package input

import (
	"context"

	"virtual-patient/internal/domain"
)

// PatientChatService interface - Input port (use case)
// Defines what the application can do with a doctor's request
type PatientChatService interface {
	// Chat forwards the doctor's message to the simulated patient and returns
	// the patient's messages with synthesized audio.
	Chat(ctx context.Context, request domain.ChatRequest) (*domain.ChatResponse, error)

	// Palpate simulates a physical examination of a single anatomical region.
	Palpate(ctx context.Context, request domain.PalpationRequest) (*domain.PalpationResponse, error)
}
