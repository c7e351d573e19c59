package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"pan/internal/app"
	"pan/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string
}

// recordingLogger keeps formatted error lines.
type recordingLogger struct {
	noopLogger
	errors []string
}

func (l *recordingLogger) Error(format string, v ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, v...))
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent   []sentMessage
	labels []string
	kicked []string
	err    error // returned from BroadcastMessage when set
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	if md.err != nil {
		return md.err
	}
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	for _, p := range presences {
		md.kicked = append(md.kicked, p.GetUserId())
	}
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) byOp(op int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == op {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) reset() { md.sent = nil }

// mockPresence overrides only the presence fields the handler reads.
type mockPresence struct {
	runtime.Presence
	userID string
}

func (p mockPresence) GetUserId() string    { return p.userID }
func (p mockPresence) GetUsername() string  { return "user-" + p.userID }
func (p mockPresence) GetSessionId() string { return "session-" + p.userID }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (d mockMatchData) GetOpCode() int64      { return d.opCode }
func (d mockMatchData) GetData() []byte       { return d.data }
func (d mockMatchData) GetReliable() bool     { return true }
func (d mockMatchData) GetReceiveTime() int64 { return 0 }

func newTestHandler() *matchHandler {
	return newMatchHandler(app.NewRegistry(noopLogger{}, 16, time.Hour), app.NewTicketService("test-secret", time.Hour))
}

func initRoom(t *testing.T, mh *matchHandler, id string, capacity int) *MatchState {
	t.Helper()
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, id)
	state, rate, label := mh.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{"capacity": capacity})
	if state == nil {
		t.Fatalf("MatchInit returned nil state for capacity %d", capacity)
	}
	if rate != tickRate || label == "" {
		t.Fatalf("rate=%d label=%q", rate, label)
	}
	return state.(*MatchState)
}

func joinAll(t *testing.T, mh *matchHandler, d *mockDispatcher, state *MatchState, ids ...string) {
	t.Helper()
	for _, id := range ids {
		ticket, err := mh.tickets.Issue(state.Match.ID(), id)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, mockPresence{userID: id}, map[string]string{TicketMetadataKey: ticket})
		if !ok {
			t.Fatalf("join attempt for %s rejected: %s", id, reason)
		}
		mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{mockPresence{userID: id}})
	}
}

func send(mh *matchHandler, d *mockDispatcher, state *MatchState, tick int64, userID string, op int64, data []byte) interface{} {
	msg := mockMatchData{mockPresence: mockPresence{userID: userID}, opCode: op, data: data}
	return mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, tick, state, []runtime.MatchData{msg})
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return s.AsMap()
}

// legalMoveJSON picks a random legal single, or a skip when none exists.
func legalMoveJSON(t *testing.T, rng *rand.Rand, m *app.Match, playerID string) []byte {
	t.Helper()
	snap := m.Snapshot(playerID)
	pile := domain.NewPile(snap.Pile...)
	var legal []domain.Card
	for _, c := range snap.Hand {
		if domain.IsLegal(pile, domain.PlaySingle(c)) {
			legal = append(legal, c)
		}
	}
	req := moveRequest{Skip: true}
	if len(legal) > 0 {
		req = moveRequest{Cards: []string{legal[rng.Intn(len(legal))].String()}}
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestMatchInitRegistersRoom(t *testing.T) {
	mh := newTestHandler()
	state := initRoom(t, mh, "room-1", 4)

	m, err := mh.registry.Get("room-1")
	if err != nil || m != state.Match {
		t.Fatalf("room not registered: %v", err)
	}
	if m.JoinCode() == "" {
		t.Fatal("expected a join code for an empty room")
	}
	if got, err := mh.registry.ByJoinCode(m.JoinCode()); err != nil || got != m {
		t.Fatalf("ByJoinCode: %v", err)
	}

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "room-2")
	if s, _, _ := mh.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{"capacity": 5}); s != nil {
		t.Fatal("expected MatchInit to fail for 5 seats")
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	ctx := context.Background()

	other, _ := mh.tickets.Issue("room-other", "u1")
	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"NoTicket", nil},
		{"Garbage", map[string]string{TicketMetadataKey: "not-a-jwt"}},
		{"OtherRoom", map[string]string{TicketMetadataKey: other}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 0, state, mockPresence{userID: "u1"}, tt.metadata); ok {
				t.Fatal("expected rejection")
			}
		})
	}

	joinAll(t, mh, d, state, "u1", "u2")

	// Members reconnect without a ticket.
	if _, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 0, state, mockPresence{userID: "u1"}, nil); !ok {
		t.Fatalf("member rejected: %s", reason)
	}
	ticket, _ := mh.tickets.Issue("room-1", "u3")
	if _, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 0, state, mockPresence{userID: "u3"}, map[string]string{TicketMetadataKey: ticket}); ok || reason != "Match full" {
		t.Fatalf("ok=%v reason=%q, want full", ok, reason)
	}
}

func TestStartRequiresHostAndFullRoom(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	joinAll(t, mh, d, state, "u1")

	d.reset()
	send(mh, d, state, 1, "u1", OpStartMatch, nil)
	errs := d.byOp(OpGameError)
	if len(errs) != 1 || decode(t, errs[0].data)["code"] != float64(codeFailedPrecondition) {
		t.Fatalf("expected room-not-full error, got %+v", errs)
	}

	joinAll(t, mh, d, state, "u2")
	if state.Match.JoinCode() != "" {
		t.Fatal("join code should be retired once the room fills")
	}

	d.reset()
	send(mh, d, state, 2, "u2", OpStartMatch, nil)
	if len(d.byOp(OpGameError)) != 1 || state.Match.Started() {
		t.Fatal("non-host must not start the match")
	}

	d.reset()
	send(mh, d, state, 3, "u1", OpStartMatch, nil)
	if !state.Match.Started() {
		t.Fatal("host start failed")
	}

	dealt := d.byOp(OpHandDealt)
	if len(dealt) != 2 {
		t.Fatalf("got %d hand messages, want 2", len(dealt))
	}
	for _, msg := range dealt {
		payload := decode(t, msg.data)
		if len(msg.recipients) != 1 || msg.recipients[0] != payload["player_id"] {
			t.Fatalf("hand for %v sent to %v", payload["player_id"], msg.recipients)
		}
		if n := len(payload["hand"].([]interface{})); n != 12 {
			t.Fatalf("hand size %d, want 12", n)
		}
	}
	if len(d.byOp(OpRoundStarted)) != 1 || len(d.byOp(OpStateSnapshot)) != 2 {
		t.Fatalf("unexpected messages: %+v", d.sent)
	}
}

func TestPlayThroughMatchLoop(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	joinAll(t, mh, d, state, "u1", "u2")
	send(mh, d, state, 1, "u1", OpStartMatch, nil)

	current := state.Match.Snapshot("").CurrentPlayer
	waiting := "u1"
	if current == "u1" {
		waiting = "u2"
	}

	d.reset()
	send(mh, d, state, 2, waiting, OpPlayMove, []byte(`{"cards":["H9"]}`))
	errs := d.byOp(OpGameError)
	if len(errs) != 1 || errs[0].recipients[0] != waiting {
		t.Fatalf("expected an error for %s, got %+v", waiting, d.sent)
	}
	if decode(t, errs[0].data)["code"] != float64(codeInvalidArgument) {
		t.Fatalf("out of turn play code = %v", decode(t, errs[0].data)["code"])
	}

	d.reset()
	send(mh, d, state, 3, current, OpPlayMove, []byte(`{"cards":`))
	if len(d.byOp(OpGameError)) != 1 {
		t.Fatal("malformed payload should be rejected")
	}

	d.reset()
	send(mh, d, state, 4, current, OpPlayMove, []byte(`{"cards":["H9"]}`))
	played := d.byOp(OpCardsPlayed)
	if len(played) != 1 || len(played[0].recipients) != 0 {
		t.Fatalf("expected one broadcast cards_played, got %+v", d.sent)
	}
	payload := decode(t, played[0].data)
	if payload["player_id"] != current || payload["next_turn_player"] != waiting || payload["kind"] != "cards_played" {
		t.Fatalf("payload = %v", payload)
	}

	// Drive the round to its end with legal moves.
	rng := rand.New(rand.NewSource(7))
	for tick := int64(5); tick < 20000; tick++ {
		if snap := state.Match.Snapshot(""); snap.Round > 1 || snap.RoundOver {
			break
		}
		p := state.Match.Snapshot("").CurrentPlayer
		send(mh, d, state, tick, p, OpPlayMove, legalMoveJSON(t, rng, state.Match, p))
	}
	if snap := state.Match.Snapshot(""); snap.Round == 1 && !snap.RoundOver {
		t.Fatal("round did not finish")
	}
	if len(d.byOp(OpRoundEnded)) == 0 {
		t.Fatal("expected a round_ended event")
	}
}

func TestLeaveKeepsSeatAndClosesEmptyRoomAfterGrace(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	joinAll(t, mh, d, state, "u1", "u2")

	ctx := context.Background()
	got := mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 1, state, []runtime.Presence{mockPresence{userID: "u2"}})
	if got == nil {
		t.Fatal("room closed with a player still connected")
	}
	if !state.Match.IsMember("u2") || state.Match.IsActive("u2") {
		t.Fatal("leaving player should keep an inactive seat")
	}
	if len(d.byOp(OpPlayerLeft)) != 1 {
		t.Fatal("expected a player_left event")
	}

	if got := mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 2, state, []runtime.Presence{mockPresence{userID: "u1"}}); got == nil {
		t.Fatal("empty room closed without a grace period")
	}
	if send(mh, d, state, 2+emptyGraceTicks-1, "u1", OpRequestState, nil) == nil {
		t.Fatal("room closed before the grace period")
	}

	// u1 reconnects in time and keeps the seat past the old deadline.
	joinAll(t, mh, d, state, "u1")
	if !state.Match.IsActive("u1") {
		t.Fatal("reconnecting player should be active again")
	}
	if send(mh, d, state, 2+emptyGraceTicks+10, "u1", OpRequestState, nil) == nil {
		t.Fatal("room closed while a player is connected")
	}

	leaveTick := int64(3 * emptyGraceTicks)
	mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, leaveTick, state, []runtime.Presence{mockPresence{userID: "u1"}})
	if send(mh, d, state, leaveTick+emptyGraceTicks, "u1", OpRequestState, nil) != nil {
		t.Fatal("empty room should terminate after the grace period")
	}
	if _, err := mh.registry.Get("room-1"); err == nil {
		t.Fatal("terminated room still registered")
	}
}

func TestSendErrorLogsDispatchFailure(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	joinAll(t, mh, d, state, "u1")

	d.err = errors.New("socket closed")
	logger := &recordingLogger{}
	mh.sendError(state, d, logger, "u1", codeFailedPrecondition, "not your turn")

	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "socket closed") {
		t.Fatalf("errors logged = %q", logger.errors)
	}
}

func TestFinishedRoomLingersThenCloses(t *testing.T) {
	mh := newTestHandler()
	d := &mockDispatcher{}
	state := initRoom(t, mh, "room-1", 2)
	joinAll(t, mh, d, state, "u1", "u2")
	send(mh, d, state, 1, "u1", OpStartMatch, nil)

	rng := rand.New(rand.NewSource(11))
	tick := int64(2)
	for ; !state.Match.IsOver() && tick < 100000; tick++ {
		p := state.Match.Snapshot("").CurrentPlayer
		send(mh, d, state, tick, p, OpPlayMove, legalMoveJSON(t, rng, state.Match, p))
	}
	if !state.Match.IsOver() {
		t.Fatal("match did not finish")
	}
	if len(d.byOp(OpMatchEnded)) != 1 {
		t.Fatal("expected one match_ended event")
	}

	if send(mh, d, state, tick+overLingerTicks-2, "u1", OpRequestState, nil) == nil {
		t.Fatal("room closed before the linger period")
	}
	if send(mh, d, state, tick+overLingerTicks, "u1", OpRequestState, nil) != nil {
		t.Fatal("room should close after the linger period")
	}
	if _, err := mh.registry.Get("room-1"); err == nil {
		t.Fatal("closed room still registered")
	}
}
