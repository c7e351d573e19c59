// Command sim plays bot-only matches through the engine and reports who loses.
//
// Environment (a .env file is read when present):
//
//	SIM_MATCHES   number of matches to play (default 100)
//	SIM_PLAYERS   seats per match: 2, 3, 4 or 6 (default 4)
//	SIM_SEED      base seed; match i uses SIM_SEED+i (default 1)
//	SIM_LOG_LEVEL zap level (default info)
//	PAN_CONFIG    game config path (default data/game_config.json)
//	PAN_BOTS      bot identities path (default data/bot_identities.json)
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"pan/internal/app"
	"pan/internal/bot"
	"pan/internal/config"
	"pan/internal/logging"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/joho/godotenv"
)

// advanceLimit bounds Advance calls per match; each call runs up to DefaultMaxAutoTurns turns.
const advanceLimit = 200

func main() {
	_ = godotenv.Load()

	logger, err := logging.NewDevelopment(envString("SIM_LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("sim: %v", err)
		os.Exit(1)
	}
}

func run(logger runtime.Logger) error {
	if err := config.LoadGameConfig(envString("PAN_CONFIG", "data/game_config.json")); err != nil {
		logger.Warn("sim: Using default game config: %v", err)
	}
	if err := bot.LoadIdentities(envString("PAN_BOTS", "data/bot_identities.json")); err != nil {
		logger.Warn("sim: Using generated bot identities: %v", err)
	}

	matches := envInt("SIM_MATCHES", 100)
	players := envInt("SIM_PLAYERS", 4)
	seed := int64(envInt("SIM_SEED", 1))
	if !app.ValidRosterSize(players) {
		return fmt.Errorf("%w: SIM_PLAYERS=%d", app.ErrInvalidRosterSize, players)
	}

	registry := app.NewRegistry(logger, matches, time.Hour)
	losses := map[string]int{}
	seen := map[string]bool{}
	rounds := 0
	start := time.Now()

	for i := 0; i < matches; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		roster := make([]*app.Player, 0, players)
		for seat := 0; seat < players; seat++ {
			identity := bot.GetBotIdentity(seat)
			agent, err := bot.NewAgentFromIdentity(identity, rand.New(rand.NewSource(rng.Int63())))
			if err != nil {
				return fmt.Errorf("bot %s: %w", identity.UserID, err)
			}
			roster = append(roster, app.NewAutonomous(identity.UserID, identity.DisplayName, agent))
			seen[identity.UserID] = true
		}

		m, err := registry.Create(roster, app.Options{MaxLostRounds: config.MaxLostRounds(), Rng: rng})
		if err != nil {
			return err
		}
		matchLog := logger.WithField("match", m.ID())
		if _, err := m.Start(); err != nil {
			return fmt.Errorf("start %s: %w", m.ID(), err)
		}
		for n := 0; !m.IsOver() && n < advanceLimit; n++ {
			if _, err := m.Advance(); err != nil {
				return fmt.Errorf("advance %s: %w", m.ID(), err)
			}
		}
		if !m.IsOver() {
			matchLog.Warn("sim: Match did not finish after %d advances, skipping", advanceLimit)
			registry.Remove(m.ID())
			continue
		}

		snap := m.Snapshot("")
		rounds += snap.Round
		losses[m.Loser()]++
		matchLog.Debug("sim: Match %d lost by %s after %d rounds", i+1, displayName(m.Loser()), snap.Round)
		registry.Remove(m.ID())
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return losses[ids[a]] > losses[ids[b]] })

	logger.Info("sim: %d matches, %d players, %d rounds in %s", matches, players, rounds, time.Since(start).Round(time.Millisecond))
	for _, id := range ids {
		logger.WithFields(map[string]interface{}{"bot": id, "losses": losses[id]}).
			Info("sim: %-20s lost %d matches", displayName(id), losses[id])
	}
	return nil
}

func displayName(id string) string {
	if name := bot.GetBotDisplayName(id); name != "" {
		return name
	}
	return id
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
