package domain

import (
	"fmt"
	"strings"
)

// Suit is cosmetic: it never takes part in card comparisons.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in deck construction order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Rank is one of the six ranks used by the 24-card deck.
type Rank int

const (
	Nine Rank = iota + 1
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists every rank from lowest to highest.
var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

func (r Rank) String() string {
	switch r {
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Value is the comparison value of a rank, 1 (nine) through 6 (ace).
func (r Rank) Value() int { return int(r) }

// StarterValue is the value of the nines, the rank of the starter card.
const StarterValue = 1

// Starter is the Hearts nine, the only single card allowed to open an empty pile.
var Starter = Card{Suit: Hearts, Rank: Nine}

// Card is an immutable playing card. Cards are comparable and usable as map keys.
type Card struct {
	Suit Suit
	Rank Rank
}

// Value returns the comparison value of the card.
func (c Card) Value() int { return c.Rank.Value() }

// IsStarter reports whether c is the Hearts nine.
func (c Card) IsStarter() bool { return c == Starter }

// Less orders cards by value only; two same-rank cards are never less than each other.
func (c Card) Less(other Card) bool { return c.Value() < other.Value() }

// String renders the card as suit letter followed by rank label, e.g. "H9" or "S10".
func (c Card) String() string { return c.Suit.String() + c.Rank.String() }

// ParseCard parses the form produced by Card.String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("parse card %q: too short", s)
	}
	var card Card
	found := false
	for _, suit := range Suits {
		if suit.String() == s[:1] {
			card.Suit = suit
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("parse card %q: unknown suit", s)
	}
	for _, rank := range Ranks {
		if rank.String() == s[1:] {
			card.Rank = rank
			return card, nil
		}
	}
	return Card{}, fmt.Errorf("parse card %q: unknown rank", s)
}

// ParseCards parses a list of card strings, failing on the first bad entry.
func ParseCards(in []string) ([]Card, error) {
	out := make([]Card, 0, len(in))
	for _, s := range in {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CardStrings renders cards with Card.String.
func CardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
