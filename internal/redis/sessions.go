package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// SessionStore keeps play sessions in Redis so that a session started on
// one instance is visible to a validation call routed to another. Each
// session is stored under its own key with a TTL equal to the session
// timeout, so expiry is enforced by Redis itself and the sweep is a
// no-op here.
type SessionStore struct {
	client  *redis.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, timeout time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{client: client, timeout: timeout, logger: logger}
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("arcade:session:%s", sessionID)
}

// Create opens a new tracked session.
func (s *SessionStore) Create(ctx context.Context, userID, gameID string) (string, error) {
	now := time.Now()
	sessionID := fmt.Sprintf("%s:%s:%d:%s", userID, gameID, now.UnixNano(), uuid.NewString()[:8])

	session := domain.Session{
		ID:           sessionID,
		UserID:       userID,
		GameID:       gameID,
		StartTime:    now,
		Actions:      []domain.ActionEvent{},
		ScoreHistory: []domain.ScoreSample{},
		ChecksumSeed: uuid.NewString(),
	}

	if err := s.write(ctx, &session, s.timeout); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return sessionID, nil
}

// RecordAction appends an action with a server-observed timestamp.
func (s *SessionStore) RecordAction(ctx context.Context, sessionID, actionType string, data map[string]interface{}) bool {
	session, ok := s.Get(ctx, sessionID)
	if !ok {
		return false
	}
	session.Actions = append(session.Actions, domain.ActionEvent{
		Type:      actionType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err := s.write(ctx, &session, redis.KeepTTL); err != nil {
		s.logger.Warn("failed to record action", "session_id", sessionID, "error", err)
		return false
	}
	return true
}

// RecordScore appends an intermediate score observation.
func (s *SessionStore) RecordScore(ctx context.Context, sessionID string, score float64) bool {
	session, ok := s.Get(ctx, sessionID)
	if !ok {
		return false
	}
	session.ScoreHistory = append(session.ScoreHistory, domain.ScoreSample{
		Score:     score,
		Timestamp: time.Now(),
	})
	if err := s.write(ctx, &session, redis.KeepTTL); err != nil {
		s.logger.Warn("failed to record score", "session_id", sessionID, "error", err)
		return false
	}
	return true
}

// Get resolves a session by id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.Session, bool) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to get session", "session_id", sessionID, "error", err)
		}
		return domain.Session{}, false
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Warn("failed to decode session", "session_id", sessionID, "error", err)
		return domain.Session{}, false
	}
	return session, true
}

// SweepExpired is a no-op: key TTLs expire sessions in Redis.
func (s *SessionStore) SweepExpired(context.Context, time.Time) int {
	return 0
}

func (s *SessionStore) write(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}
