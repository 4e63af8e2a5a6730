package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// RuntimeEnv holds the settings read from the Nakama runtime environment.
type RuntimeEnv struct {
	BotsEnabled      bool   `env:"DOMINION_BOTS_ENABLED" envDefault:"false"`
	BotMinDelay      int    `env:"DOMINION_BOT_MIN_DELAY_SEC" envDefault:"1"`
	BotMaxDelay      int    `env:"DOMINION_BOT_MAX_DELAY_SEC" envDefault:"3"`
	BotAutoFillDelay int    `env:"DOMINION_BOT_AUTO_FILL_DELAY_SEC"`
	TicketSecret     string `env:"DOMINION_TICKET_SECRET"`
	ConfigPath       string `env:"DOMINION_GAME_CONFIG" envDefault:"data/game_config.json"`
	IdentitiesPath   string `env:"DOMINION_BOT_IDENTITIES" envDefault:"data/bot_identities.json"`
}

// ParseRuntimeEnv decodes the runtime env map. Missing keys take their
// defaults; the auto-fill delay falls back to the game config.
func ParseRuntimeEnv(vars map[string]string) (RuntimeEnv, error) {
	var e RuntimeEnv
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return RuntimeEnv{}, fmt.Errorf("parse runtime env: %w", err)
	}
	if e.BotMinDelay < 0 {
		e.BotMinDelay = 0
	}
	if e.BotMaxDelay < e.BotMinDelay {
		e.BotMaxDelay = e.BotMinDelay
	}
	if e.BotAutoFillDelay <= 0 {
		e.BotAutoFillDelay = GetBotAutoFillDelay()
	}
	return e, nil
}
