package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig          `yaml:"server"`
	Redis       RedisConfig           `yaml:"redis"`
	Postgres    PostgresConfig        `yaml:"postgres"`
	Kafka       KafkaConfig           `yaml:"kafka"`
	Sync        SyncConfig            `yaml:"sync"`
	Validation  ValidationConfig      `yaml:"validation"`
	Leaderboard LeaderboardConfig     `yaml:"leaderboard"`
	Games       map[string]GameLimits `yaml:"games"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	GroupID       string        `yaml:"group_id"`
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	BatchTimeout  time.Duration `yaml:"batch_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// SyncConfig holds the leaderboard reconciliation worker configuration
type SyncConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	Enabled   bool          `yaml:"enabled"`
}

// ValidationConfig holds the tunable knobs of the score validator. The
// heuristic constants are configuration, not protocol, so they can be
// tightened per deployment without code changes.
type ValidationConfig struct {
	// SessionStore selects the session backend: "memory" (default,
	// single instance) or "redis" (shared across instances).
	SessionStore string `yaml:"session_store"`

	// SessionTimeout is the age past which a session is expired.
	SessionTimeout time.Duration `yaml:"session_timeout"`

	// ScorePerAction is the score a single recorded action is assumed
	// to plausibly account for.
	ScorePerAction float64 `yaml:"score_per_action"`

	// MinActionFloor suppresses the action-density check when the
	// expected action count is at or below this value.
	MinActionFloor int `yaml:"min_action_floor"`

	// MaxScoreJump and ScoreJumpWindow bound how much the final score
	// may exceed the last intermediate score within the window.
	MaxScoreJump    float64       `yaml:"max_score_jump"`
	ScoreJumpWindow time.Duration `yaml:"score_jump_window"`

	// BanStrikeThreshold is the number of critical verdicts after which
	// a user is banned for BanDuration.
	BanStrikeThreshold int           `yaml:"ban_strike_threshold"`
	BanDuration        time.Duration `yaml:"ban_duration"`
}

// LeaderboardConfig holds leaderboard read limits
type LeaderboardConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// GameLimits holds the per-game validation thresholds as configured
type GameLimits struct {
	MaxScore           float64       `yaml:"max_score"`
	MinDuration        time.Duration `yaml:"min_duration"`
	MaxScorePerSecond  float64       `yaml:"max_score_per_second"`
	SuspiciousPatterns []string      `yaml:"suspicious_patterns"`
}

// ToGameConfig converts configured limits to the domain thresholds
func (g GameLimits) ToGameConfig() domain.GameConfig {
	return domain.GameConfig{
		MaxScore:           g.MaxScore,
		MinDuration:        g.MinDuration,
		MaxScorePerSecond:  g.MaxScorePerSecond,
		SuspiciousPatterns: g.SuspiciousPatterns,
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 50
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 5
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "arcade-scores"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "score-gatekeeper"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}
	if c.Kafka.RetryAttempts == 0 {
		c.Kafka.RetryAttempts = 3
	}
	if c.Kafka.RetryDelay == 0 {
		c.Kafka.RetryDelay = 1 * time.Second
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 30 * time.Minute
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 1000
	}

	// Validation defaults
	if c.Validation.SessionStore == "" {
		c.Validation.SessionStore = "memory"
	}
	if c.Validation.SessionTimeout == 0 {
		c.Validation.SessionTimeout = 30 * time.Minute
	}
	if c.Validation.ScorePerAction == 0 {
		c.Validation.ScorePerAction = 1000
	}
	if c.Validation.MinActionFloor == 0 {
		c.Validation.MinActionFloor = 5
	}
	if c.Validation.MaxScoreJump == 0 {
		c.Validation.MaxScoreJump = 10000
	}
	if c.Validation.ScoreJumpWindow == 0 {
		c.Validation.ScoreJumpWindow = 1 * time.Second
	}
	if c.Validation.BanStrikeThreshold == 0 {
		c.Validation.BanStrikeThreshold = 3
	}
	if c.Validation.BanDuration == 0 {
		c.Validation.BanDuration = 7 * 24 * time.Hour
	}

	// Leaderboard defaults
	if c.Leaderboard.DefaultLimit == 0 {
		c.Leaderboard.DefaultLimit = 100
	}
	if c.Leaderboard.MaxLimit == 0 {
		c.Leaderboard.MaxLimit = 1000
	}

	// Built-in game table. Config entries override; a game absent from
	// this table and the config file is rejected as unknown.
	if c.Games == nil {
		c.Games = make(map[string]GameLimits)
	}
	for id, limits := range defaultGames() {
		if _, ok := c.Games[id]; !ok {
			c.Games[id] = limits
		}
	}
}

// defaultGames returns the validation thresholds for the platform's
// built-in arcade games.
func defaultGames() map[string]GameLimits {
	return map[string]GameLimits{
		"snake": {
			MaxScore:           1_000_000,
			MinDuration:        10 * time.Second,
			MaxScorePerSecond:  100,
			SuspiciousPatterns: []string{"instant_max", "no_movement"},
		},
		"tetris": {
			MaxScore:           2_000_000,
			MinDuration:        30 * time.Second,
			MaxScorePerSecond:  500,
			SuspiciousPatterns: []string{"instant_max", "impossible_clear_rate"},
		},
		"pacman": {
			MaxScore:           500_000,
			MinDuration:        20 * time.Second,
			MaxScorePerSecond:  200,
			SuspiciousPatterns: []string{"ghost_clip", "instant_max"},
		},
		"breakout": {
			MaxScore:           250_000,
			MinDuration:        15 * time.Second,
			MaxScorePerSecond:  150,
			SuspiciousPatterns: []string{"paddle_teleport"},
		},
		"space-invaders": {
			MaxScore:           750_000,
			MinDuration:        20 * time.Second,
			MaxScorePerSecond:  250,
			SuspiciousPatterns: []string{"rapid_fire", "instant_max"},
		},
		"pong": {
			MaxScore:           100,
			MinDuration:        30 * time.Second,
			MaxScorePerSecond:  1,
			SuspiciousPatterns: []string{"paddle_teleport"},
		},
	}
}

// GameConfigs converts the configured game table to domain thresholds
func (c *Config) GameConfigs() map[string]domain.GameConfig {
	games := make(map[string]domain.GameConfig, len(c.Games))
	for id, limits := range c.Games {
		games[id] = limits.ToGameConfig()
	}
	return games
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Sync.Enabled = true
	return cfg
}
