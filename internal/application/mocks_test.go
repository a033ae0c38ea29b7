package application

import (
	"context"
	"strings"
	"sync"

	"virtual-patient/internal/domain"
)

// Mock implementations for testing

const validReplyJSON = `{"messages":[{"text":"It hurts on the lower right side.","animation":"Painful","facialExpression":"painful"}]}`

// MockCompletionClient implements output.CompletionClient for testing
type MockCompletionClient struct {
	mu sync.Mutex

	ChatCompletionFunc func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error)

	// Captured values for assertions
	Requests []domain.ChatCompletionRequest
}

func (m *MockCompletionClient) ChatCompletion(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, request)
	m.mu.Unlock()

	if m.ChatCompletionFunc != nil {
		return m.ChatCompletionFunc(ctx, request)
	}
	return defaultCompletion(request)
}

// ConversationRequests returns the captured JSON-mode requests with a conversation prompt
func (m *MockCompletionClient) ConversationRequests() []domain.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ChatCompletionRequest
	for _, req := range m.Requests {
		if isConversationRequest(req) {
			out = append(out, req)
		}
	}
	return out
}

// CallCount returns the number of captured requests
func (m *MockCompletionClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func isConversationRequest(req domain.ChatCompletionRequest) bool {
	return req.JSONMode && len(req.Messages) > 0 &&
		strings.Contains(req.Messages[0].Content, "virtual patient simulation")
}

func isLabelRequest(req domain.ChatCompletionRequest) bool {
	return !req.JSONMode
}

// defaultCompletion answers label requests with fixed labels and conversation requests with a valid reply
func defaultCompletion(req domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
	if isLabelRequest(req) {
		if strings.Contains(req.Messages[0].Content, "full name") {
			return &domain.ChatCompletionResponse{Content: "Jane Doe"}, nil
		}
		return &domain.ChatCompletionResponse{Content: "Appendicitis"}, nil
	}
	if isConversationRequest(req) {
		return &domain.ChatCompletionResponse{Content: validReplyJSON}, nil
	}
	return &domain.ChatCompletionResponse{
		Content: `{"doctorFinding":"Rebound tenderness at McBurney's point.","patientResponse":"The patient winces and pulls away."}`,
	}, nil
}

// MockSpeechClient implements output.SpeechClient for testing
type MockSpeechClient struct {
	mu sync.Mutex

	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

	// Captured values for assertions
	Texts []string
}

func (m *MockSpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return []byte("audio:" + text), nil
}

// CallCount returns the number of synthesis calls
func (m *MockSpeechClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Texts)
}

// MockSessionStore implements output.SessionStore for testing.
// Without overrides it behaves like an in-memory store that copies on read and write.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.PatientSession

	GetSessionFunc    func(ctx context.Context, sessionID string) (*domain.PatientSession, error)
	SaveSessionFunc   func(ctx context.Context, session *domain.PatientSession) error
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Track calls
	SaveCalls   int
	DeleteCalls []string
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*domain.PatientSession)}
}

func (m *MockSessionStore) GetSession(ctx context.Context, sessionID string) (*domain.PatientSession, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

func (m *MockSessionStore) SaveSession(ctx context.Context, session *domain.PatientSession) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()
	if m.SaveSessionFunc != nil {
		return m.SaveSessionFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, sessionID)
	m.mu.Unlock()
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Stored returns the stored copy of a session, nil if absent
func (m *MockSessionStore) Stored(sessionID string) *domain.PatientSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	return session.Clone()
}

// Len returns the number of stored sessions
func (m *MockSessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Test helper to create a case document
func testCaseDocument() domain.CaseDocument {
	doc, err := domain.NewCaseDocument([]byte(`{"demographics":{"age":34,"sex":"female"},"symptoms":["right lower quadrant pain","nausea"],"vitals":{"temperature":"38.1C"}}`))
	if err != nil {
		panic(err)
	}
	return doc
}

// Test helper to wire a service with mocks
func newTestService(completion *MockCompletionClient, speech *MockSpeechClient, store *MockSessionStore, maxInteractions int) *PatientChatService {
	completionService := NewCompletionService(completion, CompletionOptions{})
	sessions := NewSessionManager(store, completionService, maxInteractions)
	return NewPatientChatService(sessions, completionService, speech, testCaseDocument(), PersonaStyleConversational, true)
}
