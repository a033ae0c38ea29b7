package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	redisdriver "virtual-patient/pkg/database_driver/redis"
	"virtual-patient/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure RedisSessionStore implements SessionStore interface
var _ output.SessionStore = (*RedisSessionStore)(nil)

const keyPrefix = "patient_session:"

// RedisSessionStore struct - Output adapter keeping sessions as JSON documents in redis.
// The idle timeout doubles as the key TTL so idle sessions disappear server side.
type RedisSessionStore struct {
	client      redisdriver.Client
	idleTimeout time.Duration
}

// NewRedisSessionStore creates a new redis-backed session store.
// idleTimeout: key TTL refreshed on every save, 0 keeps keys forever
func NewRedisSessionStore(client redisdriver.Client, idleTimeout time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client:      client,
		idleTimeout: idleTimeout,
	}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// GetSession retrieves a session by id.
// Returns nil if the key is missing, the document is unreadable, or the session expired.
func (r *RedisSessionStore) GetSession(ctx context.Context, sessionID string) (*domain.PatientSession, error) {
	key := sessionKey(sessionID)

	raw, err := r.client.Get(ctx, key)
	if errors.Is(err, redisdriver.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	var session domain.PatientSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logrus.Warnf("Dropping unreadable session document: key=%s, err=%v", key, err)
		_ = r.client.Del(ctx, key)
		metrics.SessionDropped(metrics.DropUnreadable)
		return nil, nil
	}

	if session.IsExpired(r.idleTimeout) {
		_ = r.client.Del(ctx, key)
		metrics.SessionDropped(metrics.DropIdle)
		return nil, nil
	}
	if session.History == nil {
		session.History = make([]domain.Turn, 0)
	}

	session.LastAccessTime = time.Now()
	return &session, nil
}

// SaveSession creates or updates a session and refreshes its TTL.
func (r *RedisSessionStore) SaveSession(ctx context.Context, session *domain.PatientSession) error {
	session.LastAccessTime = time.Now()

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), payload, r.idleTimeout); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// DeleteSession removes a session by id.
// Deleting a missing key is not an error.
func (r *RedisSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
