package internal

import (
	"pan/internal/domain"
)

// goodSkipThreshold is the lowest take-value that still counts as a cheap skip (a Queen).
const goodSkipThreshold = 4

// Snapshot is the read-only view of a hand and pile that the vote table is evaluated on.
type Snapshot struct {
	HoldsUrgent   bool // holds the last outstanding card of some rank
	HoldsInvalid  bool // holds a card below the pile top
	PileDeveloped bool // something above ten has been played
	SkipStreak    int  // consecutive skips by this player
	LastPlaySize  int  // cards put down by the latest play, 0 after a skip
	GoodSkipValue bool // skipping now hands over nothing below a Queen
	HighCardRatio bool // 3 * held high cards >= pile depth

	SkipYieldsOnlyAces bool
	SkipYieldsCombo    bool
}

// Analyze computes the snapshot for a player holding hand, facing pile.
func Analyze(hand domain.Hand, pile *domain.Pile, skipStreak int) Snapshot {
	s := Snapshot{
		HoldsUrgent:   hand.ContainsUrgentCards(pile),
		HoldsInvalid:  hand.ContainsInvalidCards(pile),
		PileDeveloped: pile.IsDeveloped(),
		SkipStreak:    skipStreak,
		LastPlaySize:  pile.LastPlaySize(),
		HighCardRatio: 3*hand.HighCards() >= pile.Len(),
	}

	worst, ok := pile.WorstSkipValue()
	s.GoodSkipValue = !ok || worst >= goodSkipThreshold

	take := pile.SkipCards()
	if len(take) == 0 {
		return s
	}

	s.SkipYieldsOnlyAces = true
	for _, c := range take {
		if c.Rank != domain.Ace {
			s.SkipYieldsOnlyAces = false
			break
		}
	}

	merged := append(append(domain.Hand{}, hand...), take...)
	for _, c := range take {
		if _, ok := merged.ComboForValue(c.Value()); ok {
			s.SkipYieldsCombo = true
			break
		}
	}
	return s
}
