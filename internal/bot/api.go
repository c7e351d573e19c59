package bot

import (
	"math/rand"

	"pan/internal/domain"
)

// Strategy names one of the candidate decision policies.
type Strategy int

const (
	StrategySafe Strategy = iota
	StrategyAggressive
	StrategySkip

	strategyCount
)

func (s Strategy) String() string {
	switch s {
	case StrategySafe:
		return "safe"
	case StrategyAggressive:
		return "aggressive"
	case StrategySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// StrategySet is a bit set of strategies.
type StrategySet uint8

// SetOf builds a set from the given strategies.
func SetOf(strategies ...Strategy) StrategySet {
	var set StrategySet
	for _, s := range strategies {
		set |= 1 << s
	}
	return set
}

// Has reports whether s is in the set.
func (set StrategySet) Has(s Strategy) bool { return set&(1<<s) != 0 }

// Policy is a stateless decision rule. ok=false means the policy declines,
// which the caller resolves to a skip.
type Policy interface {
	Choose(hand domain.Hand, pile *domain.Pile, rng *rand.Rand) (move domain.Move, ok bool)
}

// PolicyFor returns the policy implementing s.
func PolicyFor(s Strategy) Policy {
	switch s {
	case StrategySafe:
		return SafePolicy{}
	case StrategyAggressive:
		return AggressivePolicy{}
	default:
		return SkipPolicy{}
	}
}
