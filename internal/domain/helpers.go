package domain

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}
	return updated
}

// HoldsAll reports whether hand contains every card of subset, counting repeats.
func HoldsAll(hand []Card, subset []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, card := range hand {
		counts[card]++
	}
	for _, card := range subset {
		if counts[card] == 0 {
			return false
		}
		counts[card]--
	}
	return true
}
