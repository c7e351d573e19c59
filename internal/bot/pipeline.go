package bot

import (
	"math/rand"

	botinternal "pan/internal/bot/internal"
)

// Votes is the tally per strategy, indexed by Strategy.
type Votes [strategyCount]int

// SelectionContext holds the state of one strategy vote.
type SelectionContext struct {
	Snapshot botinternal.Snapshot
	Votes    Votes
	Fired    []string // names of the rules that contributed
}

// Tally evaluates every rule of the table against the snapshot.
func (t Tuning) Tally(s botinternal.Snapshot) SelectionContext {
	ctx := SelectionContext{Snapshot: s}
	for _, rule := range t.Rules {
		if !rule.When(s) {
			continue
		}
		ctx.Fired = append(ctx.Fired, rule.Name)
		for st := Strategy(0); st < strategyCount; st++ {
			if rule.Favors.Has(st) {
				ctx.Votes[st] += rule.Weight
			}
		}
	}
	return ctx
}

// Leaders returns every strategy holding the maximum vote, in enum order.
func (v Votes) Leaders() []Strategy {
	best := v[0]
	for _, n := range v[1:] {
		if n > best {
			best = n
		}
	}
	var out []Strategy
	for st := Strategy(0); st < strategyCount; st++ {
		if v[st] == best {
			out = append(out, st)
		}
	}
	return out
}

// Select picks a maximum-vote strategy; ties are broken uniformly at random.
func (v Votes) Select(rng *rand.Rand) Strategy {
	leaders := v.Leaders()
	if len(leaders) == 1 {
		return leaders[0]
	}
	return leaders[rng.Intn(len(leaders))]
}
