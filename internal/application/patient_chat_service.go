package application

import (
	"context"
	"fmt"
	"strings"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/input"
	"virtual-patient/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure PatientChatService implements the input port
var _ input.PatientChatService = (*PatientChatService)(nil)

// PatientChatService struct - Application service implementing the virtual patient use cases
type PatientChatService struct {
	sessions    *SessionManager
	completion  *CompletionService
	speech      output.SpeechClient
	caseDoc     domain.CaseDocument
	style       PersonaStyle
	credentials bool
}

// NewPatientChatService func - Creates new patient chat service.
// credentials reports whether both provider API keys are configured; without them
// every request is rejected before any upstream call.
func NewPatientChatService(
	sessions *SessionManager,
	completion *CompletionService,
	speech output.SpeechClient,
	caseDoc domain.CaseDocument,
	style PersonaStyle,
	credentials bool,
) *PatientChatService {
	return &PatientChatService{
		sessions:    sessions,
		completion:  completion,
		speech:      speech,
		caseDoc:     caseDoc,
		style:       style,
		credentials: credentials,
	}
}

// Chat func - Use case: answer the doctor's message in character
func (s *PatientChatService) Chat(ctx context.Context, request domain.ChatRequest) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}
	if !s.credentials {
		return nil, domain.ErrMissingCredentials
	}

	sessionID := s.sessions.ResolveID(request.SessionID)
	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	session, created, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Doctor message received: session=%s, new=%t, interactions=%d", session.ID, created, session.Interactions)

	s.sessions.AppendDoctorTurn(session, message)
	prompt := BuildConversationPrompt(session, s.caseDoc, message, s.style)

	reply := s.completion.Complete(ctx, prompt, message)
	s.sessions.RecordPatientReply(session, reply.Transcript())

	if err := s.sessions.CompleteInteraction(ctx, session); err != nil {
		return nil, err
	}

	// Synthesis runs one message at a time, in order, after history is recorded
	for i := range reply.Messages {
		reply.Messages[i].Audio = s.synthesize(ctx, session.ID, reply.Messages[i].Text)
	}

	logrus.Infof("Patient reply sent: session=%s, messages=%d, fallback=%t, interactions=%d",
		session.ID, len(reply.Messages), reply.Fallback, session.Interactions)

	return &domain.ChatResponse{
		SessionID:    session.ID,
		Interactions: session.Interactions,
		Messages:     reply.Messages,
	}, nil
}

// synthesize returns the audio for text, or nil when synthesis fails so the
// message is still delivered as text
func (s *PatientChatService) synthesize(ctx context.Context, sessionID, text string) []byte {
	audio, err := s.speech.Synthesize(ctx, text)
	if err != nil {
		logrus.Warnf("Speech synthesis failed, sending text only: session=%s, err=%v", sessionID, err)
		return nil
	}
	return audio
}

// Palpate func - Use case: simulate palpation of one anatomical region
func (s *PatientChatService) Palpate(ctx context.Context, request domain.PalpationRequest) (*domain.PalpationResponse, error) {
	region := strings.TrimSpace(request.Region)
	if region == "" {
		return nil, domain.ErrEmptyRegion
	}
	if !s.credentials {
		return nil, domain.ErrMissingCredentials
	}

	prompt := BuildPalpationPrompt(s.caseDoc, region)
	finding := s.completion.Palpate(ctx, prompt, region)

	logrus.Infof("Palpation answered: session=%s, region=%s, fallback=%t", request.SessionID, region, finding.Fallback)

	return &domain.PalpationResponse{
		Region:  region,
		Finding: finding,
	}, nil
}

// String describes the service configuration for startup logs
func (s *PatientChatService) String() string {
	return fmt.Sprintf("PatientChatService{style=%s, maxInteractions=%d, credentials=%t}",
		s.style, s.sessions.MaxInteractions(), s.credentials)
}
