package anticheat

import (
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Registry is the static per-game table of validation thresholds. It is
// built once at startup and read-only afterwards, so lookups need no
// locking. A missing game id is a first-class outcome, not an error.
type Registry struct {
	games map[string]domain.GameConfig
}

// NewRegistry builds a registry from the configured game table.
func NewRegistry(games map[string]domain.GameConfig) *Registry {
	table := make(map[string]domain.GameConfig, len(games))
	for id, cfg := range games {
		table[id] = cfg
	}
	return &Registry{games: table}
}

// Get returns the thresholds for a game id.
func (r *Registry) Get(gameID string) (domain.GameConfig, bool) {
	cfg, ok := r.games[gameID]
	return cfg, ok
}

// GameIDs returns the known game ids.
func (r *Registry) GameIDs() []string {
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}
