package bot

import (
	"math/rand"

	botinternal "pan/internal/bot/internal"
	"pan/internal/domain"
)

// Agent is the decision state of one autonomous player. The policies are stateless;
// the skip streak lives here.
type Agent struct {
	ID    string
	Name  string
	Level BotLevel

	tuning       Tuning
	rng          *rand.Rand
	skipStreak   int
	lastStrategy Strategy
}

// Decide returns the agent's move for the current pile. It never fails: a declining
// policy resolves to a skip. On an empty pile a skip is illegal, so the agent opens
// with the Safe policy.
func (a *Agent) Decide(hand domain.Hand, pile *domain.Pile) domain.Move {
	strategy := StrategySafe
	if !pile.IsEmpty() {
		snap := botinternal.Analyze(hand, pile, a.skipStreak)
		strategy = a.tuning.Tally(snap).Votes.Select(a.rng)
	}
	a.lastStrategy = strategy

	move, ok := PolicyFor(strategy).Choose(hand, pile, a.rng)
	if !ok {
		a.skipStreak++
		return domain.Skip()
	}
	a.skipStreak = 0
	return move
}

// SkipStreak returns the number of consecutive skips the agent has made.
func (a *Agent) SkipStreak() int { return a.skipStreak }

// LastStrategy returns the strategy chosen by the latest Decide.
func (a *Agent) LastStrategy() Strategy { return a.lastStrategy }

// Reset clears per-round decision state.
func (a *Agent) Reset() { a.skipStreak = 0 }
