package domain

import (
	"math/rand"
	"sort"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 24

// Deck is the undealt stock. It only changes through Shuffle and Deal.
type Deck struct {
	cards []Card
}

// NewDeck returns an ordered deck holding every suit/rank combination once.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return &Deck{cards: cards}
}

// Shuffle applies a uniform random permutation.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) { d.cards[i], d.cards[j] = d.cards[j], d.cards[i] })
}

// Deal removes and returns up to n cards from the front of the deck.
// On shortage it returns whatever is left.
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	if n < 0 {
		n = 0
	}
	out := append([]Card{}, d.cards[:n]...)
	d.cards = d.cards[n:]
	return out
}

// Len returns the number of undealt cards.
func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the undealt cards.
func (d *Deck) Cards() []Card { return append([]Card{}, d.cards...) }

// SortHand orders cards by ascending value, then suit, for stable presentation.
func SortHand(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cardPower(cards[i]) < cardPower(cards[j])
	})
}

func cardPower(c Card) int {
	return c.Value()*4 + int(c.Suit)
}
