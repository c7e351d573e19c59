package nakama

import (
	"encoding/json"
	"errors"
	"fmt"

	"pan/internal/app"
	"pan/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var errMalformedRequest = errors.New("malformed move request")

// moveRequest is the wire form of a move: exactly one of cards or skip.
type moveRequest struct {
	Cards []string `json:"cards"`
	Skip  bool     `json:"skip"`
}

func (r moveRequest) toMove() (domain.Move, error) {
	if r.Skip {
		if len(r.Cards) > 0 {
			return domain.Move{}, fmt.Errorf("%w: skip with cards", errMalformedRequest)
		}
		return domain.Skip(), nil
	}
	cards, err := domain.ParseCards(r.Cards)
	if err != nil {
		return domain.Move{}, fmt.Errorf("%w: %w", errMalformedRequest, err)
	}
	switch len(cards) {
	case 0:
		return domain.Move{}, fmt.Errorf("%w: no cards", errMalformedRequest)
	case 1:
		return domain.PlaySingle(cards[0]), nil
	default:
		return domain.PlayCombo(cards), nil
	}
}

func parseMove(data []byte) (domain.Move, error) {
	var req moveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.Move{}, fmt.Errorf("%w: %w", errMalformedRequest, err)
	}
	return req.toMove()
}

func cardsToValues(cards []domain.Card) []interface{} {
	out := make([]interface{}, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func stringsToValues(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func snapshotToMap(s app.RoundSnapshot) map[string]interface{} {
	players := make([]interface{}, len(s.Players))
	for i, p := range s.Players {
		players[i] = map[string]interface{}{
			"player_id":   p.ID,
			"name":        p.Name,
			"seat":        p.Seat,
			"hand_size":   p.HandSize,
			"lost_rounds": p.LostRounds,
			"autonomous":  p.Autonomous,
			"active":      p.Active,
			"host":        p.Host,
		}
	}
	return map[string]interface{}{
		"match_id":       s.MatchID,
		"round":          s.Round,
		"started":        s.Started,
		"pile":           cardsToValues(s.Pile),
		"hand":           cardsToValues(s.Hand),
		"players":        players,
		"current_player": s.CurrentPlayer,
		"turn_order":     stringsToValues(s.TurnOrder),
		"deck_remaining": s.DeckRemaining,
		"round_over":     s.RoundOver,
		"round_loser":    s.RoundLoser,
		"match_over":     s.MatchOver,
		"match_loser":    s.MatchLoser,
	}
}

func snapshotToStruct(s app.RoundSnapshot) (*structpb.Struct, error) {
	return structpb.NewStruct(snapshotToMap(s))
}

// eventToStruct maps an app event to its op code and payload.
func eventToStruct(ev app.Event) (int64, *structpb.Struct, error) {
	var opCode int64
	var m map[string]interface{}

	switch p := ev.Payload.(type) {
	case app.PlayerJoinedPayload:
		opCode = OpPlayerJoined
		m = map[string]interface{}{"player_id": p.PlayerID, "seat": p.Seat, "host": p.Host, "reconnected": p.Reconnected}
	case app.PlayerLeftPayload:
		opCode = OpPlayerLeft
		m = map[string]interface{}{"player_id": p.PlayerID}
	case app.RoundStartedPayload:
		opCode = OpRoundStarted
		m = map[string]interface{}{"round": p.Round, "turn_order": stringsToValues(p.TurnOrder), "first_turn_player": p.FirstTurnPlayer}
	case app.HandDealtPayload:
		opCode = OpHandDealt
		m = map[string]interface{}{"player_id": p.PlayerID, "hand": cardsToValues(p.Hand)}
	case app.CardsPlayedPayload:
		opCode = OpCardsPlayed
		m = map[string]interface{}{"player_id": p.PlayerID, "cards": cardsToValues(p.Cards), "next_turn_player": p.NextTurnPlayer}
	case app.PileTakenPayload:
		opCode = OpPileTaken
		m = map[string]interface{}{"player_id": p.PlayerID, "cards": cardsToValues(p.Cards), "next_turn_player": p.NextTurnPlayer}
	case app.PlayerOutPayload:
		opCode = OpPlayerOut
		m = map[string]interface{}{"player_id": p.PlayerID}
	case app.RoundEndedPayload:
		opCode = OpRoundEnded
		m = map[string]interface{}{"round": p.Round, "loser": p.Loser, "lost_rounds": p.LostRounds}
	case app.MatchEndedPayload:
		opCode = OpMatchEnded
		lost := make(map[string]interface{}, len(p.LostRounds))
		for id, n := range p.LostRounds {
			lost[id] = n
		}
		m = map[string]interface{}{"loser": p.Loser, "lost_rounds": lost}
	default:
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	m["kind"] = string(ev.Kind)
	s, err := structpb.NewStruct(m)
	return opCode, s, err
}

func marshalStruct(s *structpb.Struct) ([]byte, error) {
	return proto.Marshal(s)
}

// marshalJSON renders a payload for RPC responses.
func marshalJSON(s *structpb.Struct) (json.RawMessage, error) {
	b, err := protojson.Marshal(s)
	return json.RawMessage(b), err
}

func matchLabel(m *app.Match) (string, error) {
	state := "lobby"
	switch {
	case m.IsOver():
		state = "over"
	case m.Started():
		state = "playing"
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":                  "pan",
		MatchLabelKey_OpenSeats: m.Capacity() - len(m.Members()),
		"capacity":              m.Capacity(),
		"state":                 state,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
