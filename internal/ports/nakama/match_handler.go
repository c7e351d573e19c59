package nakama

import (
	"context"
	"database/sql"
	"errors"

	"pan/internal/app"
	"pan/internal/bot"
	"pan/internal/config"
	"pan/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/structpb"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Match     *app.Match                  // Engine state of the room
	Presences map[string]runtime.Presence // Map UserId -> Presence for targeted messaging
	Tick      int64                       // Current tick of the match loop
	OverTick  int64                       // Tick at which the match ended, 0 while running
	EmptyTick int64                       // Tick at which the last presence left
}

type matchHandler struct {
	registry *app.Registry
	tickets  *app.TicketService
}

func newMatchHandler(registry *app.Registry, tickets *app.TicketService) *matchHandler {
	return &matchHandler{registry: registry, tickets: tickets}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	capacity := intParam(params, "capacity", config.DefaultRoomCapacity())
	logger.Debug("MatchInit: Initializing room %s with %d seats.", matchID, capacity)

	m, err := app.NewMatch(matchID, nil, app.Options{
		Capacity:       capacity,
		MaxLostRounds:  config.MaxLostRounds(),
		JoinCodeLength: config.JoinCodeLength(),
	})
	if err != nil {
		logger.Error("MatchInit: Failed to create room: %v", err)
		return nil, 0, ""
	}
	mh.registry.Add(m)

	label, err := matchLabel(m)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	state := &MatchState{
		Match:     m,
		Presences: make(map[string]runtime.Presence),
	}
	return state, tickRate, label
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// MatchJoinAttempt admits members (reconnection) and holders of a valid seat ticket.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	m := matchState.Match
	userID := presence.GetUserId()

	if m.IsMember(userID) {
		return state, true, ""
	}
	if bot.IsBot(userID) {
		return state, false, "Reserved user"
	}
	if m.IsOver() {
		return state, false, "Match over"
	}
	if len(m.Members()) >= m.Capacity() {
		return state, false, "Match full"
	}
	if err := mh.tickets.Verify(metadata[TicketMetadataKey], m.ID(), userID); err != nil {
		logger.Warn("MatchJoinAttempt: Rejected %s: %v", userID, err)
		return state, false, "Seat ticket required"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	m := matchState.Match

	for _, p := range presences {
		joined, events := m.Join(p.GetUserId(), app.NewHuman(p.GetUserId(), p.GetUsername()))
		if !joined {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
			if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", p.GetUserId(), err)
			}
			continue
		}
		matchState.Presences[p.GetUserId()] = p
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if snap := m.Snapshot(""); snap.Started && snap.RoundOver && !snap.MatchOver {
		events, err := m.Resume()
		switch {
		case errors.Is(err, app.ErrRoomNotFull):
			logger.Debug("MatchJoin: Round still waiting for reconnections.")
		case err != nil:
			logger.Error("MatchJoin: Failed to resume: %v", err)
		default:
			mh.broadcastEvents(matchState, dispatcher, logger, events)
		}
	}

	mh.touch(m)
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		events := matchState.Match.Leave(p.GetUserId())
		logger.Debug("MatchLeave: User %s left, seat reserved.", p.GetUserId())
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: No connected players, closing in %d ticks unless someone returns.", emptyGraceTicks)
		matchState.EmptyTick = tick
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartMatch:
			mh.handleStart(matchState, dispatcher, logger, msg)
		case OpPlayMove:
			mh.handlePlay(matchState, dispatcher, logger, msg)
		case OpRequestState:
			mh.sendSnapshot(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Match.IsOver() {
		if matchState.OverTick == 0 {
			matchState.OverTick = tick
		}
		if tick-matchState.OverTick >= overLingerTicks {
			logger.Info("MatchLoop: Closing finished room %s.", matchState.Match.ID())
			mh.registry.Remove(matchState.Match.ID())
			return nil
		}
	}
	// Rooms nobody has joined yet count as empty since tick 0.
	if len(matchState.Presences) == 0 && tick-matchState.EmptyTick >= emptyGraceTicks {
		logger.Info("MatchLoop: Terminating room %s with no connected players.", matchState.Match.ID())
		mh.registry.Remove(matchState.Match.ID())
		return nil
	}
	return matchState
}

func (mh *matchHandler) handleStart(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	m := state.Match
	senderID := msg.GetUserId()
	host := m.Host()

	logger.Info("StartMatch: Request received from %s (host=%s)", senderID, host)
	if senderID != host && (m.IsActive(host) || !m.IsActive(senderID)) {
		logger.Warn("StartMatch: User %s tried to start the match but is not host", senderID)
		mh.sendError(state, dispatcher, logger, senderID, codeFailedPrecondition, "only the host can start the match")
		return
	}

	events, err := m.Start()
	if err != nil {
		logger.Warn("StartMatch: Cannot start: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.touch(m)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handlePlay(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	move, err := parseMove(msg.GetData())
	if err != nil {
		logger.Warn("handlePlay: Bad request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidArgument, err.Error())
		return
	}

	_, events, err := state.Match.Play(senderID, move)
	if err != nil {
		if errors.Is(err, app.ErrInvariantViolation) {
			logger.Error("handlePlay: Engine invariant broken after %s by %s: %v", move, senderID, err)
		} else {
			logger.Warn("handlePlay: User %s failed to play %s: %v", senderID, move, err)
		}
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.touch(state.Match)
	mh.broadcastEvents(state, dispatcher, logger, events)
	if state.Match.IsOver() {
		mh.updateLabel(state, dispatcher, logger)
	}
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) touch(m *app.Match) {
	if _, err := mh.registry.Get(m.ID()); errors.Is(err, app.ErrUnknownMatch) {
		mh.registry.Add(m)
	}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrIllegalMove), errors.Is(err, errMalformedRequest):
		return codeInvalidArgument
	case errors.Is(err, app.ErrUnknownPlayer), errors.Is(err, app.ErrUnknownMatch):
		return codeNotFound
	case errors.Is(err, app.ErrInvariantViolation):
		return codeInternal
	default:
		return codeFailedPrecondition
	}
}

// broadcastEvents converts app events and dispatches them to their recipients.
func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, payload, err := eventToStruct(ev)
		if err != nil {
			logger.Warn("Unknown event kind: %v (%v)", ev.Kind, err)
			continue
		}
		bytes, err := marshalStruct(payload)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			// Targeted events must never fall back to a broadcast.
			if len(recipients) == 0 {
				continue
			}
		}
		if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
			logger.Error("Failed to dispatch event %v: %v", ev.Kind, err)
		}
	}
}

func (mh *matchHandler) broadcastSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID := range state.Presences {
		mh.sendSnapshot(state, dispatcher, logger, userID)
	}
}

func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	payload, err := snapshotToStruct(state.Match.Snapshot(userID))
	if err != nil {
		logger.Error("Failed to build snapshot for %s: %v", userID, err)
		return
	}
	bytes, err := marshalStruct(payload)
	if err != nil {
		logger.Error("Failed to marshal snapshot for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send snapshot to %s: %v", userID, err)
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	payload, err := structpb.NewStruct(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to build error payload: %v", err)
		return
	}
	bytes, err := marshalStruct(payload)
	if err != nil {
		logger.Error("Failed to marshal error payload: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state.Match)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds of grace", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		mh.registry.Remove(matchState.Match.ID())
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
