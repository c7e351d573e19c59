package domain

import (
	"errors"
	"fmt"
)

// MoveKind identifies which of the three actions a move carries.
type MoveKind int

const (
	MoveSingle MoveKind = iota + 1
	MoveCombo
	MoveSkip
)

func (k MoveKind) String() string {
	switch k {
	case MoveSingle:
		return "single"
	case MoveCombo:
		return "combo"
	case MoveSkip:
		return "skip"
	default:
		return "invalid"
	}
}

// Move is one turn action: a single card, a same-rank combo, or a skip.
type Move struct {
	Kind  MoveKind
	Cards []Card
}

// PlaySingle builds a single-card move.
func PlaySingle(c Card) Move { return Move{Kind: MoveSingle, Cards: []Card{c}} }

// PlayCombo builds a combo move from cards in the order given.
func PlayCombo(cards []Card) Move {
	return Move{Kind: MoveCombo, Cards: append([]Card{}, cards...)}
}

// Skip builds the take-the-pile move.
func Skip() Move { return Move{Kind: MoveSkip} }

// IsSkip reports whether the move declines to play.
func (m Move) IsSkip() bool { return m.Kind == MoveSkip }

func (m Move) String() string {
	if m.IsSkip() {
		return "skip"
	}
	return fmt.Sprintf("%s%v", m.Kind, CardStrings(m.Cards))
}

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrEmptyPileSkip   = errors.New("cannot skip on an empty pile")
	ErrMustOpen        = errors.New("an empty pile must be opened with the starter")
	ErrTooLow          = errors.New("card is lower than the pile top")
	ErrComboSize       = errors.New("combo must hold three or four cards")
	ErrComboMixedRanks = errors.New("combo cards must share one rank")
	ErrComboDuplicate  = errors.New("combo repeats a card")
	ErrThreeNines      = errors.New("three nines may only follow the starter")
	ErrMalformedMove   = errors.New("malformed move")
)

// ValidateMove checks a move against the pile alone. It is pure: the verdict depends only
// on the move and on the pile's top card (or its absence). Errors wrap ErrIllegalMove.
func ValidateMove(pile *Pile, m Move) error {
	if err := validate(pile, m); err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	return nil
}

// IsLegal is ValidateMove reduced to a boolean.
func IsLegal(pile *Pile, m Move) bool { return ValidateMove(pile, m) == nil }

func validate(pile *Pile, m Move) error {
	top, hasTop := pile.Top()
	switch m.Kind {
	case MoveSkip:
		if len(m.Cards) != 0 {
			return ErrMalformedMove
		}
		if !hasTop {
			return ErrEmptyPileSkip
		}
		return nil

	case MoveSingle:
		if len(m.Cards) != 1 {
			return ErrMalformedMove
		}
		c := m.Cards[0]
		if !hasTop {
			if !c.IsStarter() {
				return ErrMustOpen
			}
			return nil
		}
		if c.Less(top) {
			return ErrTooLow
		}
		return nil

	case MoveCombo:
		return validateCombo(top, hasTop, m.Cards)

	default:
		return ErrMalformedMove
	}
}

func validateCombo(top Card, hasTop bool, cards []Card) error {
	if len(cards) != 3 && len(cards) != 4 {
		return ErrComboSize
	}
	if !allSameRank(cards) {
		return ErrComboMixedRanks
	}
	if hasDuplicates(cards) {
		return ErrComboDuplicate
	}
	if len(cards) == 3 {
		if !hasTop || !top.IsStarter() || cards[0].Rank != Nine {
			return ErrThreeNines
		}
		return nil
	}
	if !hasTop {
		if cards[0].Rank != Nine {
			return ErrMustOpen
		}
		return nil
	}
	if cards[0].Less(top) {
		return ErrTooLow
	}
	return nil
}

func allSameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	r := cards[0].Rank
	for _, c := range cards {
		if c.Rank != r {
			return false
		}
	}
	return true
}

func hasDuplicates(cards []Card) bool {
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			return true
		}
		seen[c] = true
	}
	return false
}
