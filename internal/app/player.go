package app

import "pan/internal/domain"

// Brain decides moves for an autonomous player. It must never return an illegal move
// for the hand and pile it is given.
type Brain interface {
	Decide(hand domain.Hand, pile *domain.Pile) domain.Move
}

// roundResetter is implemented by brains that keep per-round state.
type roundResetter interface {
	Reset()
}

// Player is a seat at the table. A nil brain means the moves come from outside.
type Player struct {
	ID         string
	Name       string
	Hand       domain.Hand
	LostRounds int

	brain Brain
}

// NewHuman returns a player whose moves are supplied by an adapter.
func NewHuman(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

// NewAutonomous returns a player driven by brain.
func NewAutonomous(id, name string, brain Brain) *Player {
	return &Player{ID: id, Name: name, brain: brain}
}

// Autonomous reports whether the player decides on its own.
func (p *Player) Autonomous() bool { return p.brain != nil }

// Decide asks the brain for a move. Humans return ErrAwaitingInput.
func (p *Player) Decide(pile *domain.Pile) (domain.Move, error) {
	if p.brain == nil {
		return domain.Move{}, ErrAwaitingInput
	}
	return p.brain.Decide(p.Hand, pile), nil
}

func (p *Player) resetRound() {
	p.Hand = nil
	if r, ok := p.brain.(roundResetter); ok {
		r.Reset()
	}
}
