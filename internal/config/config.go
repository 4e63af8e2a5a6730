package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds the table rules an operator may tune without a rebuild.
type GameConfig struct {
	MinPlayers     int    `json:"min_players"`
	MaxPlayers     int    `json:"max_players"`
	DefaultKingdom string `json:"default_kingdom"`
	// CatalogPath points at a card catalog file; empty means the embedded base set.
	CatalogPath     string `json:"catalog_path"`
	MaxAutoAdvances int    `json:"max_auto_advances"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding bots to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

const (
	defaultMinPlayers     = 2
	defaultMaxPlayers     = 4
	defaultKingdom        = "first_game"
	defaultAutoFillDelay  = 5
	defaultMaxAutoAdvance = 24
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetPlayerLimits returns the seat bounds for a table.
func GetPlayerLimits() (int, int) {
	if cfg == nil {
		return defaultMinPlayers, defaultMaxPlayers
	}
	lo, hi := cfg.MinPlayers, cfg.MaxPlayers
	if lo < defaultMinPlayers {
		lo = defaultMinPlayers
	}
	if hi <= 0 || hi > defaultMaxPlayers {
		hi = defaultMaxPlayers
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// GetDefaultKingdom returns the preset used when a table does not pick one.
func GetDefaultKingdom() string {
	if cfg == nil || cfg.DefaultKingdom == "" {
		return defaultKingdom
	}
	return cfg.DefaultKingdom
}

// GetCatalogPath returns the configured catalog file, or "" for the embedded set.
func GetCatalogPath() string {
	if cfg == nil {
		return ""
	}
	return cfg.CatalogPath
}

// GetMaxAutoAdvances returns the cap on phases skipped for one player action.
func GetMaxAutoAdvances() int {
	if cfg == nil || cfg.MaxAutoAdvances <= 0 {
		return defaultMaxAutoAdvance
	}
	return cfg.MaxAutoAdvances
}

// GetBotAutoFillDelay returns the configured lobby auto-fill delay in seconds.
func GetBotAutoFillDelay() int {
	if cfg == nil || cfg.BotAutoFillDelaySeconds <= 0 {
		return defaultAutoFillDelay
	}
	return cfg.BotAutoFillDelaySeconds
}
