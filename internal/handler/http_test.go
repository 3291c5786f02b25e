package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuel-1-avson/Arcade-sub006/internal/anticheat"
	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
	"github.com/samuel-1-avson/Arcade-sub006/internal/service"
	"github.com/samuel-1-avson/Arcade-sub006/internal/websocket"
)

// memBackend is a single in-memory stand-in for the ban registry, audit
// log, score store and boards.
type memBackend struct {
	mu      sync.Mutex
	bans    map[string]domain.Ban
	strikes map[string]int
	flags   []domain.FlaggedSubmission
	boards  map[string]map[string]float64
}

func newMemBackend() *memBackend {
	return &memBackend{
		bans:    make(map[string]domain.Ban),
		strikes: make(map[string]int),
		boards:  make(map[string]map[string]float64),
	}
}

func (m *memBackend) IsBanned(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ban, ok := m.bans[userID]
	return ok && !ban.Expired(time.Now()), nil
}

func (m *memBackend) CreateBan(_ context.Context, ban domain.Ban) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bans[ban.UserID] = ban
	return nil
}

func (m *memBackend) AddStrike(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strikes[userID]++
	return m.strikes[userID], nil
}

func (m *memBackend) RecordFlagged(_ context.Context, flag domain.FlaggedSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = append(m.flags, flag)
	return nil
}

func (m *memBackend) ListFlagged(_ context.Context, limit int) ([]domain.FlaggedSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.flags) {
		limit = len(m.flags)
	}
	return append([]domain.FlaggedSubmission(nil), m.flags[:limit]...), nil
}

func (m *memBackend) UpsertBestScore(_ context.Context, gameID, userID string, score float64, _ string, _ bool) error {
	return nil
}

func (m *memBackend) SubmitBest(_ context.Context, gameID, playerID string, score float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.boards[gameID]
	if !ok {
		board = make(map[string]float64)
		m.boards[gameID] = board
	}
	if existing, ok := board[playerID]; ok && existing >= score {
		return false, nil
	}
	board[playerID] = score
	return true, nil
}

func (m *memBackend) GetTopN(_ context.Context, gameID string, n int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []domain.LeaderboardEntry{}
	for playerID, score := range m.boards[gameID] {
		entries = append(entries, domain.LeaderboardEntry{PlayerID: playerID, Score: score})
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *memBackend) GetPlayerRank(_ context.Context, gameID, playerID string) (*domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.boards[gameID][playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &domain.LeaderboardEntry{Rank: 1, PlayerID: playerID, Score: score}, nil
}

func (m *memBackend) GetAroundPlayer(ctx context.Context, gameID, playerID string, _ int) ([]domain.LeaderboardEntry, error) {
	entry, err := m.GetPlayerRank(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	return []domain.LeaderboardEntry{*entry}, nil
}

func (m *memBackend) GetCount(_ context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.boards[gameID])), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memBackend) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	valCfg := &config.ValidationConfig{
		SessionTimeout:     30 * time.Minute,
		ScorePerAction:     1000,
		MinActionFloor:     5,
		MaxScoreJump:       10000,
		ScoreJumpWindow:    1 * time.Second,
		BanStrikeThreshold: 3,
		BanDuration:        7 * 24 * time.Hour,
	}
	lbCfg := &config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 1000}

	registry := anticheat.NewRegistry(map[string]domain.GameConfig{
		"snake": {MaxScore: 1_000_000, MinDuration: 10 * time.Second, MaxScorePerSecond: 100},
	})
	sessions := anticheat.NewMemoryStore(valCfg.SessionTimeout, logger)
	validator := anticheat.NewValidator(registry, sessions, valCfg, logger)

	backend := newMemBackend()
	gk := service.NewGatekeeper(validator, sessions, backend, backend, backend, backend, valCfg, lbCfg, logger)

	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)
	gk.SetNotifier(hub)

	h := NewHandler(gk, hub, logger)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)
	return server, backend
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var apiResp APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiResp))
	return apiResp
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		apiResp := decodeResponse(t, resp)
		assert.True(t, apiResp.Success)
	}
}

func TestSessionLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/sessions", map[string]string{
		"user_id": "alice",
		"game_id": "snake",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	apiResp := decodeResponse(t, resp)
	require.True(t, apiResp.Success)

	data := apiResp.Data.(map[string]interface{})
	sessionID, ok := data["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)

	// Record an action into it.
	resp = postJSON(t, fmt.Sprintf("%s/api/v1/sessions/%s/actions", server.URL, sessionID), map[string]interface{}{
		"type": "move",
		"data": map[string]interface{}{"dir": "up"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp = decodeResponse(t, resp)
	recorded := apiResp.Data.(map[string]interface{})["recorded"].(bool)
	assert.True(t, recorded)

	// Unknown session reports recorded=false, not an error.
	resp = postJSON(t, server.URL+"/api/v1/sessions/nope/actions", map[string]interface{}{
		"type": "move",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp = decodeResponse(t, resp)
	recorded = apiResp.Data.(map[string]interface{})["recorded"].(bool)
	assert.False(t, recorded)
}

func TestStartSessionValidation(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/sessions", map[string]string{"user_id": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmitScore(t *testing.T) {
	server, _ := newTestServer(t)

	// A clean submission returns a valid verdict.
	resp := postJSON(t, server.URL+"/api/v1/scores", map[string]interface{}{
		"user_id":     "alice",
		"game_id":     "snake",
		"score":       5000,
		"duration_ms": 120000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp := decodeResponse(t, resp)
	verdict := apiResp.Data.(map[string]interface{})
	assert.Equal(t, true, verdict["valid"])

	// A rejection is still HTTP 200 with an invalid verdict.
	resp = postJSON(t, server.URL+"/api/v1/scores", map[string]interface{}{
		"user_id": "alice",
		"game_id": "asteroids",
		"score":   100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp = decodeResponse(t, resp)
	verdict = apiResp.Data.(map[string]interface{})
	assert.Equal(t, false, verdict["valid"])
	assert.Equal(t, string(domain.ReasonUnknownGame), verdict["reason"])
}

func TestSubmitScoreBannedUser(t *testing.T) {
	server, backend := newTestServer(t)

	require.NoError(t, backend.CreateBan(context.Background(), domain.Ban{
		UserID:    "mallory",
		Reason:    "cheating",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	resp := postJSON(t, server.URL+"/api/v1/scores", map[string]interface{}{
		"user_id": "mallory",
		"game_id": "snake",
		"score":   100,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	apiResp := decodeResponse(t, resp)
	assert.False(t, apiResp.Success)
}

func TestBanEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/players/alice/ban")
	require.NoError(t, err)
	apiResp := decodeResponse(t, resp)
	banned := apiResp.Data.(map[string]interface{})["banned"].(bool)
	assert.False(t, banned)

	resp = postJSON(t, server.URL+"/api/v1/players/alice/ban", map[string]string{
		"reason":   "manual review",
		"duration": "24h",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/players/alice/ban")
	require.NoError(t, err)
	apiResp = decodeResponse(t, resp)
	banned = apiResp.Data.(map[string]interface{})["banned"].(bool)
	assert.True(t, banned)
}

func TestBanInvalidDuration(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/players/alice/ban", map[string]string{
		"reason":   "manual review",
		"duration": "not-a-duration",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestListFlagged(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/scores", map[string]interface{}{
		"user_id": "mallory",
		"game_id": "snake",
		"score":   5000000, // over the ceiling
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Audit writes are asynchronous.
	assert.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/api/v1/flags")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var apiResp APIResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return false
		}
		flags, ok := apiResp.Data.([]interface{})
		return ok && len(flags) == 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestLeaderboardEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	for i, user := range []string{"alice", "bob", "carol"} {
		resp := postJSON(t, server.URL+"/api/v1/scores", map[string]interface{}{
			"user_id": user,
			"game_id": "snake",
			"score":   1000 * (i + 1),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/api/v1/leaderboards/snake/top")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp := decodeResponse(t, resp)
	entries := apiResp.Data.([]interface{})
	assert.Len(t, entries, 3)

	resp, err = http.Get(server.URL + "/api/v1/leaderboards/snake/player/alice")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	apiResp = decodeResponse(t, resp)
	entry := apiResp.Data.(map[string]interface{})
	assert.Equal(t, "alice", entry["player_id"])

	resp, err = http.Get(server.URL + "/api/v1/leaderboards/snake/player/nobody")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/leaderboards/snake/stats")
	require.NoError(t, err)
	apiResp = decodeResponse(t, resp)
	stats := apiResp.Data.(map[string]interface{})
	assert.Equal(t, float64(3), stats["total_players"])
}
