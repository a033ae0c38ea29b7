package memory

import (
	"context"
	"sync"
	"time"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	"virtual-patient/pkg/metrics"
)

// Compile-time check to ensure MemorySessionStore implements SessionStore interface
var _ output.SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore struct - Output adapter for in-memory session storage.
// Sessions are copied on the way in and out so callers never share state with the map.
type MemorySessionStore struct {
	sessions    sync.Map
	idleTimeout time.Duration
}

// NewMemorySessionStore creates a new in-memory session store.
// idleTimeout: duration without access after which a session is dropped, 0 keeps sessions forever
func NewMemorySessionStore(idleTimeout time.Duration) *MemorySessionStore {
	return &MemorySessionStore{idleTimeout: idleTimeout}
}

// GetSession retrieves a session by id.
// Returns nil if the session does not exist, has expired or went idle.
// Expired sessions are deleted (lazy cleanup).
func (m *MemorySessionStore) GetSession(ctx context.Context, sessionID string) (*domain.PatientSession, error) {
	value, exists := m.sessions.Load(sessionID)
	if !exists {
		return nil, nil
	}

	session, ok := value.(*domain.PatientSession)
	if !ok {
		// If data is malformed, delete and return nil
		m.sessions.Delete(sessionID)
		metrics.SessionDropped(metrics.DropUnreadable)
		return nil, nil
	}

	if session.IsExpired(m.idleTimeout) {
		m.sessions.Delete(sessionID)
		metrics.SessionDropped(metrics.DropIdle)
		return nil, nil
	}

	clone := session.Clone()
	clone.LastAccessTime = time.Now()
	return clone, nil
}

// SaveSession creates or updates a session.
// The session's LastAccessTime is updated to the current time before storing.
func (m *MemorySessionStore) SaveSession(ctx context.Context, session *domain.PatientSession) error {
	session.LastAccessTime = time.Now()
	m.sessions.Store(session.ID, session.Clone())
	return nil
}

// DeleteSession removes a session by id.
// This operation is idempotent.
func (m *MemorySessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.sessions.Delete(sessionID)
	return nil
}

// Len returns the number of stored sessions, expired ones included until they are read
func (m *MemorySessionStore) Len() int {
	count := 0
	m.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
