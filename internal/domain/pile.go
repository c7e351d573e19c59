package domain

// maxSkipTake is the most cards a single skip can transfer.
const maxSkipTake = 3

// Pile is the shared discard stack of a round. The top card is the last element.
// It grows by plays and shrinks only when a skipping player takes its most recent cards.
type Pile struct {
	cards    []Card
	lastPlay int // size of the most recent play; 0 at round start or after a skip
}

// NewPile returns a pile holding the given cards, oldest first.
func NewPile(cards ...Card) *Pile {
	return &Pile{cards: append([]Card{}, cards...), lastPlay: 0}
}

// Len returns the pile depth.
func (p *Pile) Len() int { return len(p.cards) }

// IsEmpty reports whether nothing has been played yet.
func (p *Pile) IsEmpty() bool { return len(p.cards) == 0 }

// Cards returns a copy of the pile, oldest first.
func (p *Pile) Cards() []Card { return append([]Card{}, p.cards...) }

// Top returns the most recently played card.
func (p *Pile) Top() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// LastPlaySize returns how many cards the latest play put on the pile.
func (p *Pile) LastPlaySize() int { return p.lastPlay }

// Push appends one play to the pile.
func (p *Pile) Push(cards ...Card) {
	p.cards = append(p.cards, cards...)
	p.lastPlay = len(cards)
}

// SkipCards returns the suffix a skip would currently transfer: nothing when the pile
// holds at most one card, else the min(3, depth-1) most recent cards.
func (p *Pile) SkipCards() []Card {
	n := p.skipCount()
	if n == 0 {
		return nil
	}
	return append([]Card{}, p.cards[len(p.cards)-n:]...)
}

// Take removes and returns SkipCards. The bottom card is never taken.
func (p *Pile) Take() []Card {
	taken := p.SkipCards()
	p.cards = p.cards[:len(p.cards)-len(taken)]
	p.lastPlay = 0
	return taken
}

func (p *Pile) skipCount() int {
	depth := len(p.cards)
	if depth <= 1 {
		return 0
	}
	if depth-1 < maxSkipTake {
		return depth - 1
	}
	return maxSkipTake
}

// WorstSkipValue returns the value of the lowest card a skip would hand over.
// ok is false when skipping carries no penalty (depth 0 or 1).
func (p *Pile) WorstSkipValue() (value int, ok bool) {
	depth := len(p.cards)
	switch {
	case depth <= 1:
		return 0, false
	case depth < 4:
		return p.cards[depth-2].Value(), true
	default:
		value = p.cards[depth-1].Value()
		for _, c := range p.cards[depth-3 : depth-1] {
			if c.Value() < value {
				value = c.Value()
			}
		}
		return value, true
	}
}

// IsDeveloped reports whether any card above ten has been played.
func (p *Pile) IsDeveloped() bool {
	for _, c := range p.cards {
		if c.Rank > Ten {
			return true
		}
	}
	return false
}

// CountRank returns how many cards of rank r lie in the pile.
func (p *Pile) CountRank(r Rank) int {
	n := 0
	for _, c := range p.cards {
		if c.Rank == r {
			n++
		}
	}
	return n
}
