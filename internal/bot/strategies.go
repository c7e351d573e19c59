package bot

import (
	"math/rand"

	"pan/internal/domain"
)

// SafePolicy plays the cheapest legal card, upgraded to its full combo when one is
// held and may legally be played.
type SafePolicy struct{}

func (SafePolicy) Choose(hand domain.Hand, pile *domain.Pile, _ *rand.Rand) (domain.Move, bool) {
	card, ok := hand.LowestLegalCard(pile)
	if !ok {
		return domain.Move{}, false
	}
	if combo, ok := hand.ComboForValue(card.Value()); ok {
		move := domain.PlayCombo(combo)
		if domain.IsLegal(pile, move) {
			return move, true
		}
	}
	return domain.PlaySingle(card), true
}

// AggressivePolicy draws one rank above Jack that may go on the pile and plays a held
// card of it. Drawing a rank the hand lacks is a decline; there is no redraw.
type AggressivePolicy struct{}

func (AggressivePolicy) Choose(hand domain.Hand, pile *domain.Pile, rng *rand.Rand) (domain.Move, bool) {
	top, ok := pile.Top()
	if !ok {
		return domain.Move{}, false
	}

	var candidates []domain.Rank
	for _, r := range domain.Ranks {
		if r > domain.Jack && r.Value() >= top.Value() {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return domain.Move{}, false
	}

	rank := candidates[rng.Intn(len(candidates))]
	for _, c := range hand {
		if c.Rank == rank {
			return domain.PlaySingle(c), true
		}
	}
	return domain.Move{}, false
}

// SkipPolicy always declines.
type SkipPolicy struct{}

func (SkipPolicy) Choose(domain.Hand, *domain.Pile, *rand.Rand) (domain.Move, bool) {
	return domain.Move{}, false
}
