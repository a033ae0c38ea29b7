package http

import (
	"encoding/base64"

	"virtual-patient/internal/domain"
)

// Canned error bodies
const (
	InvalidRequestBody  = "Invalid request body"
	InternalServerError = "Internal server error"
)

type (
	// ErrorResponse struct - body of every non-2xx response
	ErrorResponse struct {
		Error string `json:"error"`
	}

	// HealthResponse struct
	HealthResponse struct {
		Status string `json:"status"`
	}

	// MessageResponse struct - one patient message; audio is base64 MP3, empty when synthesis failed
	MessageResponse struct {
		Text             string `json:"text"`
		Animation        string `json:"animation"`
		FacialExpression string `json:"facialExpression"`
		Audio            string `json:"audio"`
	}

	// ChatResponse struct - HTTP response DTO
	ChatResponse struct {
		SessionID string            `json:"sessionId"`
		Messages  []MessageResponse `json:"messages"`
	}

	// PalpationResponse struct - HTTP response DTO
	PalpationResponse struct {
		DoctorFinding   string `json:"doctorFinding"`
		PatientResponse string `json:"patientResponse"`
	}
)

// newChatResponse converts the domain response
func newChatResponse(resp *domain.ChatResponse) ChatResponse {
	messages := make([]MessageResponse, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		messages = append(messages, MessageResponse{
			Text:             msg.Text,
			Animation:        string(msg.Animation),
			FacialExpression: string(msg.FacialExpression),
			Audio:            base64.StdEncoding.EncodeToString(msg.Audio),
		})
	}
	return ChatResponse{
		SessionID: resp.SessionID,
		Messages:  messages,
	}
}
