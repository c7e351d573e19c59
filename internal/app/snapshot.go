package app

import "pan/internal/domain"

// PlayerView is the public state of one seat.
type PlayerView struct {
	ID         string
	Name       string
	Seat       int
	HandSize   int
	LostRounds int
	Autonomous bool
	Active     bool
	Host       bool
}

// RoundSnapshot is everything a renderer needs after a transition, as seen by one viewer.
// Only the viewer's own hand is disclosed.
type RoundSnapshot struct {
	MatchID       string
	Round         int
	Started       bool
	Pile          []domain.Card
	Hand          []domain.Card
	Players       []PlayerView // seating order
	CurrentPlayer string
	TurnOrder     []string
	DeckRemaining int
	RoundOver     bool
	RoundLoser    string
	MatchOver     bool
	MatchLoser    string
}

// Player returns the view for id.
func (s RoundSnapshot) Player(id string) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}
