package app

import "pan/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined EventKind = "player_joined"
	EventPlayerLeft   EventKind = "player_left"
	EventRoundStarted EventKind = "round_started"
	EventHandDealt    EventKind = "hand_dealt"
	EventCardsPlayed  EventKind = "cards_played"
	EventPileTaken    EventKind = "pile_taken"
	EventPlayerOut    EventKind = "player_out"
	EventRoundEnded   EventKind = "round_ended"
	EventMatchEnded   EventKind = "match_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	PlayerID    string
	Seat        int
	Host        bool
	Reconnected bool
}

type PlayerLeftPayload struct {
	PlayerID string
}

type RoundStartedPayload struct {
	Round           int
	TurnOrder       []string
	FirstTurnPlayer string
}

type HandDealtPayload struct {
	PlayerID string
	Hand     []domain.Card
}

type CardsPlayedPayload struct {
	PlayerID       string
	Cards          []domain.Card
	NextTurnPlayer string
}

type PileTakenPayload struct {
	PlayerID       string
	Cards          []domain.Card
	NextTurnPlayer string
}

type PlayerOutPayload struct {
	PlayerID string
}

type RoundEndedPayload struct {
	Round      int
	Loser      string
	LostRounds int
}

type MatchEndedPayload struct {
	Loser      string
	LostRounds map[string]int
}
