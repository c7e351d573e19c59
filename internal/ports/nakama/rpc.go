package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pan/internal/app"
	"pan/internal/bot"
	"pan/internal/config"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

type rpcHandlers struct {
	registry *app.Registry
	tickets  *app.TicketService

	// local match id -> creating user; only the creator drives a hot-seat table.
	owners sync.Map

	// maxAutoTurns is passed to local matches; zero keeps the engine default.
	maxAutoTurns int

	mu  sync.Mutex
	rng *rand.Rand
}

// localAdvanceLimit bounds Advance calls per request; each runs up to maxAutoTurns turns.
const localAdvanceLimit = 20

var errLocalStalled = fmt.Errorf("%w: autonomous players did not hand the turn back", app.ErrInvariantViolation)

func newRPCHandlers(registry *app.Registry, tickets *app.TicketService) *rpcHandlers {
	return &rpcHandlers{
		registry: registry,
		tickets:  tickets,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, h *rpcHandlers) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:       h.rpcQuickMatch,
		RpcCreateRoom:       h.rpcCreateRoom,
		RpcJoinByCode:       h.rpcJoinByCode,
		RpcCreateLocalMatch: h.rpcCreateLocalMatch,
		RpcLocalPlay:        h.rpcLocalPlay,
		RpcLocalState:       h.rpcLocalState,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("register rpc %s: %w", id, err)
		}
	}
	return nil
}

// seed returns a fresh seed; match rngs are not safe to share across matches.
func (h *rpcHandlers) seed() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Int63()
}

func callerID(ctx context.Context) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	return userID, nil
}

// localMatch returns a local match owned by userID.
func (h *rpcHandlers) localMatch(matchID, userID string) (*app.Match, error) {
	m, err := h.registry.Get(matchID)
	if err != nil {
		h.owners.Delete(matchID)
		return nil, err
	}
	if owner, ok := h.owners.Load(matchID); !ok || owner != userID {
		return nil, app.ErrUnknownMatch
	}
	return m, nil
}

func decodePayload(payload string, v interface{}) error {
	if payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return runtime.NewError("Invalid payload", codeInvalidArgument)
	}
	return nil
}

func encodeResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}

// rpcError maps engine errors to Nakama RPC errors.
func rpcError(err error) error {
	switch errorCode(err) {
	case codeNotFound:
		return runtime.NewError("match or player not found, rejoin or restart", codeNotFound)
	case codeInternal:
		return runtime.NewError("Internal error", codeInternal)
	default:
		return runtime.NewError(err.Error(), errorCode(err))
	}
}

// RoomResponse is returned by the room RPCs.
type RoomResponse struct {
	MatchID  string `json:"match_id"`
	JoinCode string `json:"join_code,omitempty"`
	Ticket   string `json:"ticket"`
}

// rpcCreateRoom creates a room and returns its code plus the creator's seat ticket.
//
// Payload: {"capacity": 4} (optional)
func (h *rpcHandlers) rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req struct {
		Capacity int `json:"capacity"`
	}
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.Capacity == 0 {
		req.Capacity = config.DefaultRoomCapacity()
	}
	if !app.ValidRosterSize(req.Capacity) {
		return "", runtime.NewError(app.ErrInvalidCapacity.Error(), codeInvalidArgument)
	}

	matchID, err := nk.MatchCreate(ctx, MatchNamePan, map[string]interface{}{"capacity": req.Capacity})
	if err != nil {
		logger.Error("CreateRoom [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}
	m, err := h.registry.Get(matchID)
	if err != nil {
		logger.Error("CreateRoom [User:%s]: Room %s missing from registry", userID, matchID)
		return "", rpcError(err)
	}
	ticket, err := h.tickets.Issue(matchID, userID)
	if err != nil {
		logger.Error("CreateRoom [User:%s]: Failed to issue ticket: %v", userID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}

	logger.Info("CreateRoom [User:%s]: Created room %s", userID, matchID)
	return encodeResponse(RoomResponse{MatchID: matchID, JoinCode: m.JoinCode(), Ticket: ticket})
}

// rpcJoinByCode resolves a join code to a room and a seat ticket for the caller.
//
// Payload: {"join_code": "AB12CD34"}
func (h *rpcHandlers) rpcJoinByCode(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req struct {
		JoinCode string `json:"join_code"`
	}
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.JoinCode == "" {
		return "", runtime.NewError("join_code required", codeInvalidArgument)
	}

	m, err := h.registry.ByJoinCode(req.JoinCode)
	if err != nil {
		logger.Info("JoinByCode [User:%s]: Unknown code %q", userID, req.JoinCode)
		return "", runtime.NewError("room not found or already full", codeNotFound)
	}
	ticket, err := h.tickets.Issue(m.ID(), userID)
	if err != nil {
		logger.Error("JoinByCode [User:%s]: Failed to issue ticket: %v", userID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return encodeResponse(RoomResponse{MatchID: m.ID(), Ticket: ticket})
}

// LocalMatchResponse is returned by the local match RPCs.
type LocalMatchResponse struct {
	MatchID   string            `json:"match_id"`
	PlayerIDs []string          `json:"player_ids,omitempty"`
	State     json.RawMessage   `json:"state"`
	Events    []json.RawMessage `json:"events,omitempty"`
}

// rpcCreateLocalMatch starts a solo or hot-seat match against bots.
//
// Payload: {"humans": 1, "bots": 2, "names": ["Alice"]}
func (h *rpcHandlers) rpcCreateLocalMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	req := struct {
		Humans int      `json:"humans"`
		Bots   int      `json:"bots"`
		Names  []string `json:"names"`
	}{Humans: 1, Bots: 1}
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.Humans < 1 || req.Bots < 0 || !app.ValidRosterSize(req.Humans+req.Bots) {
		return "", runtime.NewError("humans + bots must be 2, 3, 4 or 6 with at least one human", codeInvalidArgument)
	}

	rng := rand.New(rand.NewSource(h.seed()))
	roster, humanIDs, err := localRoster(userID, req.Humans, req.Bots, req.Names, rng)
	if err != nil {
		logger.Error("CreateLocalMatch [User:%s]: Failed to build roster: %v", userID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	m, err := h.registry.Create(roster, app.Options{
		MaxLostRounds: config.MaxLostRounds(),
		MaxAutoTurns:  h.maxAutoTurns,
		Rng:           rng,
	})
	if err != nil {
		return "", rpcError(err)
	}
	h.owners.Store(m.ID(), userID)
	events, err := m.Start()
	if err == nil {
		var more []app.Event
		more, err = advanceLocal(m)
		events = append(events, more...)
	}
	if err != nil {
		logger.Error("CreateLocalMatch [User:%s]: Failed to start %s: %v", userID, m.ID(), err)
		return "", rpcError(err)
	}

	viewer := humanIDs[0]
	if current, human := m.AwaitingHuman(); human {
		viewer = current
	}
	logger.Info("CreateLocalMatch [User:%s]: Started %s with %d humans and %d bots", userID, m.ID(), req.Humans, req.Bots)
	return localResponse(m, viewer, humanIDs, events)
}

func localRoster(userID string, humans, bots int, names []string, rng *rand.Rand) ([]*app.Player, []string, error) {
	roster := make([]*app.Player, 0, humans+bots)
	humanIDs := make([]string, 0, humans)
	used := map[string]bool{}

	for i := 0; i < humans; i++ {
		id := userID
		if i > 0 {
			id = uuid.NewString()
		}
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		roster = append(roster, app.NewHuman(id, name))
		humanIDs = append(humanIDs, id)
		used[id] = true
	}
	for i := 0; i < bots; i++ {
		identity := bot.GetBotIdentity(i)
		if used[identity.UserID] {
			identity.UserID = fmt.Sprintf("%s-%d", identity.UserID, i)
		}
		agent, err := bot.NewAgentFromIdentity(identity, rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return nil, nil, err
		}
		roster = append(roster, app.NewAutonomous(identity.UserID, identity.DisplayName, agent))
		used[identity.UserID] = true
	}
	return roster, humanIDs, nil
}

// rpcLocalPlay applies a move for one human of a local match.
//
// Payload: {"match_id": "...", "player_id": "...", "cards": ["H9"], "skip": false}
func (h *rpcHandlers) rpcLocalPlay(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req struct {
		MatchID  string `json:"match_id"`
		PlayerID string `json:"player_id"`
		moveRequest
	}
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	move, err := req.toMove()
	if err != nil {
		return "", runtime.NewError(err.Error(), codeInvalidArgument)
	}

	m, err := h.localMatch(req.MatchID, userID)
	if err != nil {
		return "", rpcError(err)
	}
	_, events, err := m.Play(req.PlayerID, move)
	if err != nil {
		if errors.Is(err, app.ErrInvariantViolation) {
			logger.Error("LocalPlay: Match %s broken after %s by %s: %v", req.MatchID, move, req.PlayerID, err)
		}
		return "", rpcError(err)
	}
	more, err := advanceLocal(m)
	events = append(events, more...)
	if err != nil {
		logger.Error("LocalPlay: Match %s stuck after %s by %s: %v", req.MatchID, move, req.PlayerID, err)
		return "", rpcError(err)
	}
	if m.IsOver() {
		logger.Info("LocalPlay: Match %s over, loser %s", m.ID(), m.Loser())
	}

	// Hot-seat: render for whoever must move next.
	viewer := req.PlayerID
	if current, human := m.AwaitingHuman(); human {
		viewer = current
	}
	return localResponse(m, viewer, nil, events)
}

// rpcLocalState renders a local match for one player.
//
// Payload: {"match_id": "...", "player_id": "..."}
func (h *rpcHandlers) rpcLocalState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req struct {
		MatchID  string `json:"match_id"`
		PlayerID string `json:"player_id"`
	}
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	m, err := h.localMatch(req.MatchID, userID)
	if err != nil {
		return "", rpcError(err)
	}
	if !m.IsMember(req.PlayerID) {
		return "", rpcError(app.ErrUnknownPlayer)
	}
	// A request that hit the turn bound left a bot to move; finish its turns now.
	events, err := advanceLocal(m)
	if err != nil {
		logger.Error("LocalState: Match %s stuck: %v", req.MatchID, err)
		return "", rpcError(err)
	}
	return localResponse(m, req.PlayerID, nil, events)
}

// advanceLocal runs autonomous turns until a human is to move or the match ends.
func advanceLocal(m *app.Match) ([]app.Event, error) {
	var events []app.Event
	for i := 0; i <= localAdvanceLimit; i++ {
		if _, human := m.AwaitingHuman(); human || m.IsOver() {
			return events, nil
		}
		if i == localAdvanceLimit {
			break
		}
		more, err := m.Advance()
		events = append(events, more...)
		if err != nil {
			return events, err
		}
	}
	return events, errLocalStalled
}

func localResponse(m *app.Match, viewer string, humanIDs []string, events []app.Event) (string, error) {
	snap, err := snapshotToStruct(m.Snapshot(viewer))
	if err != nil {
		return "", runtime.NewError("Internal error", codeInternal)
	}
	state, err := marshalJSON(snap)
	if err != nil {
		return "", runtime.NewError("Internal error", codeInternal)
	}

	resp := LocalMatchResponse{MatchID: m.ID(), PlayerIDs: humanIDs, State: state}
	for _, ev := range events {
		if !visibleTo(ev, viewer) {
			continue
		}
		_, s, err := eventToStruct(ev)
		if err != nil {
			continue
		}
		raw, err := marshalJSON(s)
		if err != nil {
			continue
		}
		resp.Events = append(resp.Events, raw)
	}
	return encodeResponse(resp)
}

func visibleTo(ev app.Event, viewer string) bool {
	if len(ev.Recipients) == 0 {
		return true
	}
	for _, r := range ev.Recipients {
		if r == viewer {
			return true
		}
	}
	return false
}
