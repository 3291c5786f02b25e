package anticheat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(map[string]domain.GameConfig{
		"snake": {MaxScore: 1_000_000, MinDuration: 10 * time.Second, MaxScorePerSecond: 100},
	})

	cfg, ok := registry.Get("snake")
	require.True(t, ok)
	assert.Equal(t, 1_000_000.0, cfg.MaxScore)
	assert.Equal(t, 10*time.Second, cfg.MinDuration)

	_, ok = registry.Get("asteroids")
	assert.False(t, ok)
}

func TestRegistry_CopiesInput(t *testing.T) {
	source := map[string]domain.GameConfig{
		"snake": {MaxScore: 100},
	}
	registry := NewRegistry(source)

	// Mutating the source map after construction must not be visible.
	source["snake"] = domain.GameConfig{MaxScore: 999}
	delete(source, "snake")

	cfg, ok := registry.Get("snake")
	require.True(t, ok)
	assert.Equal(t, 100.0, cfg.MaxScore)
}

func TestRegistry_GameIDs(t *testing.T) {
	registry := NewRegistry(map[string]domain.GameConfig{
		"snake": {}, "pong": {},
	})

	ids := registry.GameIDs()
	assert.ElementsMatch(t, []string{"snake", "pong"}, ids)
}
