package output

import (
	"context"

	"virtual-patient/internal/domain"
)

// SessionStore interface - Output port
// Defines what the application needs for keeping patient sessions.
// Implementations must be safe for concurrent access.
type SessionStore interface {
	// GetSession retrieves a session by id.
	// Returns nil without error if the session does not exist or has expired.
	// Implementations should perform lazy cleanup of expired sessions.
	GetSession(ctx context.Context, sessionID string) (*domain.PatientSession, error)

	// SaveSession creates or updates a session.
	// The session's LastAccessTime is updated to the current time.
	SaveSession(ctx context.Context, session *domain.PatientSession) error

	// DeleteSession removes a session by id.
	// Deleting a non-existent session is not an error.
	DeleteSession(ctx context.Context, sessionID string) error
}
