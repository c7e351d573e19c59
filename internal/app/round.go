package app

import (
	"fmt"
	"math/rand"

	"pan/internal/domain"
)

// ValidRosterSize reports whether n players split the deck evenly.
func ValidRosterSize(n int) bool {
	switch n {
	case 2, 3, 4, 6:
		return true
	}
	return false
}

// Round is one deal played until a single player still holds cards.
type Round struct {
	number    int
	deck      *domain.Deck
	pile      *domain.Pile
	queue     []*Player
	turnOrder []string
	loser     *Player
}

// NewRound shuffles a fresh deck, deals it evenly to roster in seating order and
// queues the players starting with the starter holder.
func NewRound(number int, roster []*Player, rng *rand.Rand) (*Round, []Event, error) {
	if !ValidRosterSize(len(roster)) {
		return nil, nil, fmt.Errorf("%w: %d players", ErrInvalidRosterSize, len(roster))
	}

	deck := domain.NewDeck()
	deck.Shuffle(rng)
	return dealRound(number, roster, deck)
}

// dealRound deals deck evenly to roster and builds the round around it.
func dealRound(number int, roster []*Player, deck *domain.Deck) (*Round, []Event, error) {
	per := domain.DeckSize / len(roster)
	events := make([]Event, 0, len(roster)+1)
	first := -1
	for i, p := range roster {
		p.resetRound()
		hand := deck.Deal(per)
		domain.SortHand(hand)
		p.Hand = hand
		if p.Hand.HasStarter() {
			first = i
		}
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{PlayerID: p.ID, Hand: append([]domain.Card{}, hand...)},
			Recipients: []string{p.ID},
		})
	}
	if first < 0 {
		return nil, nil, ErrNoStarterHolder
	}

	r := &Round{number: number, deck: deck, pile: domain.NewPile()}
	for i := range roster {
		p := roster[(first+i)%len(roster)]
		r.queue = append(r.queue, p)
		r.turnOrder = append(r.turnOrder, p.ID)
	}

	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			Round:           number,
			TurnOrder:       r.TurnOrder(),
			FirstTurnPlayer: r.queue[0].ID,
		},
	})
	return r, events, nil
}

// Number is the 1-based index of the round within its match.
func (r *Round) Number() int { return r.number }

// CurrentPlayer returns the player to move, or nil once the round is over.
func (r *Round) CurrentPlayer() *Player {
	if r.IsOver() || len(r.queue) == 0 {
		return nil
	}
	return r.queue[0]
}

// IsOver reports whether a loser has been determined.
func (r *Round) IsOver() bool { return r.loser != nil }

// Loser returns the player left holding cards, or nil while the round runs.
func (r *Round) Loser() *Player { return r.loser }

// TurnOrder returns the initial queue order, starter holder first.
func (r *Round) TurnOrder() []string { return append([]string{}, r.turnOrder...) }

// Pile returns the live pile. Callers must not mutate it.
func (r *Round) Pile() *domain.Pile { return r.pile }

// DeckRemaining returns the number of undealt cards.
func (r *Round) DeckRemaining() int { return r.deck.Len() }

// Queue returns the ids of the players still holding cards, next to move first.
func (r *Round) Queue() []string {
	ids := make([]string, len(r.queue))
	for i, p := range r.queue {
		ids[i] = p.ID
	}
	return ids
}

// Play applies move for playerID. An illegal move leaves the round untouched and
// returns an error wrapping domain.ErrIllegalMove.
func (r *Round) Play(playerID string, move domain.Move) ([]Event, error) {
	if r.IsOver() {
		return nil, ErrRoundOver
	}
	actor := r.queue[0]
	if actor.ID != playerID {
		return nil, fmt.Errorf("%w: %w", domain.ErrIllegalMove, ErrNotYourTurn)
	}
	if err := domain.ValidateMove(r.pile, move); err != nil {
		return nil, err
	}
	if !domain.HoldsAll(actor.Hand, move.Cards) {
		return nil, fmt.Errorf("%w: %w", domain.ErrIllegalMove, ErrCardNotHeld)
	}

	var taken, played []domain.Card
	switch move.Kind {
	case domain.MoveSkip:
		taken = r.pile.Take()
		actor.Hand = append(actor.Hand, taken...)
		domain.SortHand(actor.Hand)
	default:
		played = move.Cards
		if move.Kind == domain.MoveCombo {
			played = domain.OrderCombo(played)
		}
		actor.Hand = domain.RemoveCards(actor.Hand, played)
		r.pile.Push(played...)
	}

	r.queue = r.queue[1:]
	if len(actor.Hand) > 0 {
		r.queue = append(r.queue, actor)
	}
	next := ""
	if len(r.queue) > 1 {
		next = r.queue[0].ID
	}

	events := make([]Event, 0, 3)
	if move.IsSkip() {
		events = append(events, Event{
			Kind:    EventPileTaken,
			Payload: PileTakenPayload{PlayerID: actor.ID, Cards: taken, NextTurnPlayer: next},
		})
	} else {
		events = append(events, Event{
			Kind:    EventCardsPlayed,
			Payload: CardsPlayedPayload{PlayerID: actor.ID, Cards: played, NextTurnPlayer: next},
		})
	}

	if len(actor.Hand) == 0 {
		events = append(events, Event{Kind: EventPlayerOut, Payload: PlayerOutPayload{PlayerID: actor.ID}})
	}

	if len(r.queue) == 1 {
		r.loser = r.queue[0]
		r.loser.LostRounds++
		events = append(events, Event{
			Kind:    EventRoundEnded,
			Payload: RoundEndedPayload{Round: r.number, Loser: r.loser.ID, LostRounds: r.loser.LostRounds},
		})
	}
	return events, nil
}

// cardCount returns every card accounted for by the round: hands, pile and undealt deck.
func (r *Round) cardCount(roster []*Player) int {
	n := r.pile.Len() + r.deck.Len()
	for _, p := range roster {
		n += len(p.Hand)
	}
	return n
}
