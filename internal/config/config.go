package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GameConfig holds the tunables of the engine and its adapters.
type GameConfig struct {
	MaxLostRounds        int    `json:"max_lost_rounds"`
	DefaultRoomCapacity  int    `json:"default_room_capacity"`
	RegistrySize         int    `json:"registry_size"`
	RegistryTTLSeconds   int    `json:"registry_ttl_seconds"`
	JoinCodeLength       int    `json:"join_code_length"`
	SeatTicketTTLSeconds int    `json:"seat_ticket_ttl_seconds"`
	BotIdentitiesPath    string `json:"bot_identities_path"`

	// TicketSecret signs seat tickets. The runtime env key pan_ticket_secret overrides it.
	TicketSecret string `json:"ticket_secret"`
}

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

// MaxLostRounds returns the number of lost rounds that ends a match.
func MaxLostRounds() int {
	if cfg == nil || cfg.MaxLostRounds <= 0 {
		return 3
	}
	return cfg.MaxLostRounds
}

// DefaultRoomCapacity returns the seat count for rooms created without one.
func DefaultRoomCapacity() int {
	if cfg == nil {
		return 4
	}
	switch cfg.DefaultRoomCapacity {
	case 2, 3, 4, 6:
		return cfg.DefaultRoomCapacity
	}
	return 4
}

// RegistrySize returns the maximum number of live matches.
func RegistrySize() int {
	if cfg == nil || cfg.RegistrySize <= 0 {
		return 1024
	}
	return cfg.RegistrySize
}

// RegistryTTL returns how long an untouched match stays registered.
func RegistryTTL() time.Duration {
	if cfg == nil || cfg.RegistryTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.RegistryTTLSeconds) * time.Second
}

// JoinCodeLength returns the room code length.
func JoinCodeLength() int {
	if cfg == nil || cfg.JoinCodeLength <= 0 {
		return 8
	}
	return cfg.JoinCodeLength
}

// SeatTicketTTL returns the validity of a seat ticket.
func SeatTicketTTL() time.Duration {
	if cfg == nil || cfg.SeatTicketTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.SeatTicketTTLSeconds) * time.Second
}

// BotIdentitiesPath returns the bot name pool location.
func BotIdentitiesPath() string {
	if cfg == nil || cfg.BotIdentitiesPath == "" {
		return "/nakama/data/modules/bot_identities.json"
	}
	return cfg.BotIdentitiesPath
}

// TicketSecret returns the seat ticket signing key, preferring the runtime env value.
func TicketSecret(env map[string]string) string {
	if s := env["pan_ticket_secret"]; s != "" {
		return s
	}
	if cfg == nil {
		return ""
	}
	return cfg.TicketSecret
}
