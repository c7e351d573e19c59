package domain

// Hand is the unordered multiset of cards one player holds during a round.
type Hand []Card

// Contains reports whether the hand holds c.
func (h Hand) Contains(c Card) bool {
	for _, x := range h {
		if x == c {
			return true
		}
	}
	return false
}

// HasStarter reports whether the hand holds the Hearts nine.
func (h Hand) HasStarter() bool { return h.Contains(Starter) }

// CountRank returns how many held cards have rank r.
func (h Hand) CountRank(r Rank) int {
	n := 0
	for _, c := range h {
		if c.Rank == r {
			n++
		}
	}
	return n
}

// LowestLegalCard returns the cheapest single card that may be played on the pile.
// On an empty pile only the starter qualifies.
func (h Hand) LowestLegalCard(pile *Pile) (Card, bool) {
	top, ok := pile.Top()
	if !ok {
		if h.HasStarter() {
			return Starter, true
		}
		return Card{}, false
	}
	var best Card
	found := false
	for _, c := range h {
		if c.Value() < top.Value() {
			continue
		}
		if !found || c.Value() < best.Value() {
			best = c
			found = true
		}
	}
	return best, found
}

// ComboForValue returns the held combo of the given value, if one can be played as a unit.
// Ranks other than nine need all four cards. Nines form a combo from the three non-starter
// nines, or from all four with the starter moved off the first position.
func (h Hand) ComboForValue(value int) ([]Card, bool) {
	var cards []Card
	for _, c := range h {
		if c.Value() == value {
			cards = append(cards, c)
		}
	}
	if len(cards) < 3 {
		return nil, false
	}
	if value != StarterValue {
		if len(cards) != 4 {
			return nil, false
		}
		return cards, true
	}
	switch len(cards) {
	case 4:
		return OrderCombo(cards), true
	case 3:
		for _, c := range cards {
			if c.IsStarter() {
				return nil, false
			}
		}
		return cards, true
	}
	return nil, false
}

// ContainsInvalidCards reports whether any held card is strictly below the pile top.
func (h Hand) ContainsInvalidCards(pile *Pile) bool {
	top, ok := pile.Top()
	if !ok {
		return false
	}
	for _, c := range h {
		if c.Value() < top.Value() {
			return true
		}
	}
	return false
}

// ContainsUrgentCards reports whether the hand holds the last outstanding card of a rank,
// meaning every other card of that rank is already in the hand or the pile.
func (h Hand) ContainsUrgentCards(pile *Pile) bool {
	for _, c := range h {
		if h.CountRank(c.Rank)+pile.CountRank(c.Rank) == len(Suits) {
			return true
		}
	}
	return false
}

// HighCards returns how many held cards rank above Jack.
func (h Hand) HighCards() int {
	n := 0
	for _, c := range h {
		if c.Rank > Jack {
			n++
		}
	}
	return n
}

// OrderCombo returns a copy of cards in which the starter, if present, is not first.
func OrderCombo(cards []Card) []Card {
	if len(cards) < 2 || !cards[0].IsStarter() {
		return append([]Card{}, cards...)
	}
	out := make([]Card, 0, len(cards))
	out = append(out, cards[1:]...)
	return append(out, cards[0])
}
