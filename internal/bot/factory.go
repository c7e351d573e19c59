package bot

import (
	"fmt"
	"math/rand"
	"time"
)

// BotLevel selects the vote table an agent uses.
type BotLevel int

const (
	// BotLevelStandard votes with DefaultTuning.
	BotLevelStandard BotLevel = iota
)

// ParseLevel maps an identity difficulty string to a level. Empty means standard.
// "easy" and "cautious" from older pools map to the standard table.
func ParseLevel(difficulty string) (BotLevel, error) {
	switch difficulty {
	case "", "standard", "medium", "hard", "easy", "cautious":
		return BotLevelStandard, nil
	default:
		return 0, fmt.Errorf("unknown bot difficulty: %q", difficulty)
	}
}

// NewAgent creates an agent for the given level. rng may be nil to use a time-seeded default.
func NewAgent(id, name string, level BotLevel, rng *rand.Rand) (*Agent, error) {
	var tuning Tuning
	switch level {
	case BotLevelStandard:
		tuning = DefaultTuning
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Agent{ID: id, Name: name, Level: level, tuning: tuning, rng: rng}, nil
}

// NewAgentFromIdentity creates an agent named and leveled after a pool identity.
func NewAgentFromIdentity(identity BotIdentity, rng *rand.Rand) (*Agent, error) {
	level, err := ParseLevel(identity.Difficulty)
	if err != nil {
		return nil, err
	}
	return NewAgent(identity.UserID, identity.DisplayName, level, rng)
}
