package nakama

import (
	"context"
	"database/sql"

	"pan/internal/app"
	"pan/internal/bot"
	"pan/internal/config"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

const gameConfigPath = "/nakama/data/modules/game_config.json"

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Using default game config: %v", err)
	}
	if err := bot.LoadIdentities(config.BotIdentitiesPath()); err != nil {
		logger.Warn("InitModule: Using generated bot identities: %v", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := config.TicketSecret(env)
	if secret == "" {
		// Tickets issued before a restart become invalid.
		logger.Warn("InitModule: No ticket secret configured, generating one")
		secret = uuid.NewString()
	}

	registry := app.NewRegistry(logger, config.RegistrySize(), config.RegistryTTL())
	tickets := app.NewTicketService(secret, config.SeatTicketTTL())

	if err := RegisterRPCs(initializer, newRPCHandlers(registry, tickets)); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNamePan, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(registry, tickets), nil
	}); err != nil {
		return err
	}

	logger.Info("Pan Go module loaded.")
	return nil
}
