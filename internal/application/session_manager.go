package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	"virtual-patient/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxInteractions is the interaction ceiling after which a session is recreated
const DefaultMaxInteractions = 70

// LabelGenerator generates the disease and patient name of a new session
type LabelGenerator interface {
	GenerateLabel(ctx context.Context, instruction, fallback string) string
}

// SessionManager struct - Owns the lifecycle of patient sessions on top of a SessionStore
type SessionManager struct {
	store           output.SessionStore
	labels          LabelGenerator
	maxInteractions int
	locks           *keyedMutex
	newID           func() string
}

// NewSessionManager func - Creates new session manager.
// maxInteractions <= 0 selects DefaultMaxInteractions.
func NewSessionManager(store output.SessionStore, labels LabelGenerator, maxInteractions int) *SessionManager {
	if maxInteractions <= 0 {
		maxInteractions = DefaultMaxInteractions
	}
	return &SessionManager{
		store:           store,
		labels:          labels,
		maxInteractions: maxInteractions,
		locks:           newKeyedMutex(),
		newID:           func() string { return uuid.NewString() },
	}
}

// MaxInteractions returns the configured ceiling
func (m *SessionManager) MaxInteractions() int {
	return m.maxInteractions
}

// ResolveID returns the session id to use for a request, allocating one when absent
func (m *SessionManager) ResolveID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return m.newID()
	}
	return sessionID
}

// Lock serializes work on one session id. The returned func releases the lock.
func (m *SessionManager) Lock(sessionID string) func() {
	return m.locks.Lock(sessionID)
}

// GetOrCreate returns the active session for sessionID, creating a fresh one when
// the id is unknown or its previous session expired. created reports which happened.
func (m *SessionManager) GetOrCreate(ctx context.Context, sessionID string) (*domain.PatientSession, bool, error) {
	sessionID = m.ResolveID(sessionID)

	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session != nil && session.State == domain.SessionStateActive {
		return session, false, nil
	}

	disease := m.labels.GenerateLabel(ctx, DiseaseLabelInstruction(), domain.DefaultDiseaseLabel)
	patientName := m.labels.GenerateLabel(ctx, PatientNameInstruction(), domain.DefaultPatientNameLabel)

	session = domain.NewPatientSession(sessionID, disease, patientName)
	if err := m.store.SaveSession(ctx, session); err != nil {
		return nil, false, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	metrics.SessionCreated()

	logrus.Infof("Created session: id=%s, disease=%s, patient=%s", sessionID, disease, patientName)

	return session, true, nil
}

// AppendDoctorTurn appends the doctor's utterance with an empty patient answer
func (m *SessionManager) AppendDoctorTurn(session *domain.PatientSession, text string) {
	session.AppendDoctorTurn(text)
}

// RecordPatientReply fills the patient answer of the pending turn
func (m *SessionManager) RecordPatientReply(session *domain.PatientSession, text string) {
	if !session.RecordPatientReply(text) {
		logrus.Warnf("No pending turn to record patient reply: session=%s", session.ID)
	}
}

// CompleteInteraction increments the counter and persists the session, or removes it
// once the ceiling is reached. The next reference to an expired id starts over silently.
func (m *SessionManager) CompleteInteraction(ctx context.Context, session *domain.PatientSession) error {
	state := session.CompleteInteraction(m.maxInteractions)

	if state == domain.SessionStateExpired {
		if err := m.store.DeleteSession(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to expire session %s: %w", session.ID, err)
		}
		metrics.SessionExpired()
		logrus.Infof("Session reached %d interactions and expired: id=%s", m.maxInteractions, session.ID)
		return nil
	}

	if err := m.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// keyedMutex hands out one mutex per key and drops it when nobody holds or waits for it
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.Unlock()
			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// size returns the number of keys currently tracked
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
