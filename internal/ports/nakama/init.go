package nakama

import (
	"context"
	"database/sql"

	"dominion/internal/bot"
	"dominion/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	vars, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	env, err := config.ParseRuntimeEnv(vars)
	if err != nil {
		return err
	}

	if err := config.LoadGameConfig(env.ConfigPath); err != nil {
		logger.Warn("InitModule: Using default game config: %v", err)
	}
	if err := bot.LoadIdentities(env.IdentitiesPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else if env.BotsEnabled {
		bot.ProvisionBots(ctx, NewNakamaAccountAdapter(nk), logger)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameDominion, NewMatch); err != nil {
		return err
	}

	logger.Info("Dominion Go module loaded.")
	return nil
}
