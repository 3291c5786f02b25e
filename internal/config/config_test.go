package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "arcade-scores", cfg.Kafka.Topic)
	assert.Equal(t, "score-gatekeeper", cfg.Kafka.GroupID)
	assert.True(t, cfg.Sync.Enabled)

	assert.Equal(t, "memory", cfg.Validation.SessionStore)
	assert.Equal(t, 30*time.Minute, cfg.Validation.SessionTimeout)
	assert.Equal(t, 1000.0, cfg.Validation.ScorePerAction)
	assert.Equal(t, 5, cfg.Validation.MinActionFloor)
	assert.Equal(t, 10000.0, cfg.Validation.MaxScoreJump)
	assert.Equal(t, 1*time.Second, cfg.Validation.ScoreJumpWindow)
	assert.Equal(t, 3, cfg.Validation.BanStrikeThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Validation.BanDuration)
}

func TestDefaultGames(t *testing.T) {
	cfg := DefaultConfig()

	require.Contains(t, cfg.Games, "snake")
	require.Contains(t, cfg.Games, "tetris")
	require.Contains(t, cfg.Games, "pacman")
	require.Contains(t, cfg.Games, "breakout")
	require.Contains(t, cfg.Games, "space-invaders")
	require.Contains(t, cfg.Games, "pong")

	snake := cfg.Games["snake"]
	assert.Equal(t, 1_000_000.0, snake.MaxScore)
	assert.Equal(t, 10*time.Second, snake.MinDuration)
	assert.Equal(t, 100.0, snake.MaxScorePerSecond)

	pong := cfg.Games["pong"]
	assert.Equal(t, 100.0, pong.MaxScore)
	assert.Equal(t, 1.0, pong.MaxScorePerSecond)
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 9090
redis:
  addr: redis.internal:6379
validation:
  session_store: redis
  session_timeout: 15m
  ban_strike_threshold: 5
games:
  snake:
    max_score: 500000
    min_duration: 5s
    max_score_per_second: 50
  minesweeper:
    max_score: 10000
    min_duration: 30s
    max_score_per_second: 10
`
	path := writeConfigFile(t, content)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "redis", cfg.Validation.SessionStore)
	assert.Equal(t, 15*time.Minute, cfg.Validation.SessionTimeout)
	assert.Equal(t, 5, cfg.Validation.BanStrikeThreshold)

	// Unset fields still get defaults.
	assert.Equal(t, 1000.0, cfg.Validation.ScorePerAction)
	assert.Equal(t, "localhost", cfg.Postgres.Host)

	// A configured game overrides the built-in entry.
	snake := cfg.Games["snake"]
	assert.Equal(t, 500_000.0, snake.MaxScore)
	assert.Equal(t, 5*time.Second, snake.MinDuration)

	// New games can be added; built-ins not mentioned survive.
	assert.Contains(t, cfg.Games, "minesweeper")
	assert.Contains(t, cfg.Games, "tetris")
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis.prod:6380")
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	content := `
redis:
  addr: ${TEST_REDIS_ADDR}
postgres:
  password: ${TEST_PG_PASSWORD}
`
	path := writeConfigFile(t, content)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestGameConfigs(t *testing.T) {
	cfg := DefaultConfig()
	games := cfg.GameConfigs()

	require.Contains(t, games, "snake")
	assert.Equal(t, cfg.Games["snake"].MaxScore, games["snake"].MaxScore)
	assert.Equal(t, cfg.Games["snake"].MinDuration, games["snake"].MinDuration)
	assert.Len(t, games, len(cfg.Games))
}

func TestPostgresConnectionString(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "arcade",
		Password: "pw",
		Database: "scores",
	}
	assert.Equal(t,
		"postgres://arcade:pw@db.internal:5433/scores?sslmode=disable",
		pg.ConnectionString(),
	)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
