package anticheat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// MemoryStore keeps sessions in process memory. Sessions are transient
// play telemetry whose only purpose is to sanity-check a submission made
// within the same runtime lifetime, so there is no durable backing.
// Expiry is cooperative: expired sessions are swept when a new session
// is created, not by a background timer.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store with the given
// session timeout.
func NewMemoryStore(timeout time.Duration, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session and opportunistically sweeps expired ones.
func (s *MemoryStore) Create(_ context.Context, userID, gameID string) (string, error) {
	now := s.now()
	sessionID := fmt.Sprintf("%s:%s:%d:%s", userID, gameID, now.UnixNano(), uuid.NewString()[:8])

	session := &domain.Session{
		ID:           sessionID,
		UserID:       userID,
		GameID:       gameID,
		StartTime:    now,
		Actions:      []domain.ActionEvent{},
		ScoreHistory: []domain.ScoreSample{},
		ChecksumSeed: uuid.NewString(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	if removed := s.SweepExpired(context.Background(), now); removed > 0 {
		s.logger.Debug("swept expired sessions", "removed", removed)
	}

	return sessionID, nil
}

// RecordAction appends an action with a server-observed timestamp.
func (s *MemoryStore) RecordAction(_ context.Context, sessionID, actionType string, data map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.Actions = append(session.Actions, domain.ActionEvent{
		Type:      actionType,
		Data:      data,
		Timestamp: s.now(),
	})
	return true
}

// RecordScore appends an intermediate score observation.
func (s *MemoryStore) RecordScore(_ context.Context, sessionID string, score float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.ScoreHistory = append(session.ScoreHistory, domain.ScoreSample{
		Score:     score,
		Timestamp: s.now(),
	})
	return true
}

// Get returns a snapshot of the session. The copy keeps callers from
// mutating the append-only histories.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}

	snapshot := *session
	snapshot.Actions = append([]domain.ActionEvent(nil), session.Actions...)
	snapshot.ScoreHistory = append([]domain.ScoreSample(nil), session.ScoreHistory...)
	return snapshot, true
}

// SweepExpired removes exactly the sessions older than the timeout.
func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.StartTime) > s.timeout {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
