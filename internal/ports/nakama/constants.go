package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an open room.
	RpcQuickMatch = "quick_match"
	// RpcCreateRoom creates an authoritative room and returns its join code.
	RpcCreateRoom = "create_room"
	// RpcJoinByCode resolves a join code to a room and a seat ticket.
	RpcJoinByCode = "join_by_code"
	// RpcCreateLocalMatch starts a solo or hot-seat match against bots.
	RpcCreateLocalMatch = "create_local_match"
	// RpcLocalPlay applies a move in a local match.
	RpcLocalPlay = "local_play"
	// RpcLocalState renders a local match for one player.
	RpcLocalState = "local_state"

	// MatchNamePan is the authoritative match handler name registered with Nakama.
	MatchNamePan = "pan_room"

	// MatchLabelKey_OpenSeats is the label key holding the number of free seats.
	MatchLabelKey_OpenSeats = "open"

	// TicketMetadataKey carries the seat ticket in join metadata.
	TicketMetadataKey = "ticket"

	// tickRate is the number of match loop ticks per second.
	tickRate = 5
	// overLingerTicks keeps a finished room alive so clients can read the result.
	overLingerTicks = 30 * tickRate
	// emptyGraceTicks keeps a room with no connected players open for reconnections.
	emptyGraceTicks = 60 * tickRate
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartMatch   int64 = 1
	OpPlayMove     int64 = 2 // {"cards":["H9"]} or {"skip":true}
	OpRequestState int64 = 3

	// Server -> Client events
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpRoundStarted  int64 = 103
	OpHandDealt     int64 = 104 // send privately
	OpCardsPlayed   int64 = 105
	OpPileTaken     int64 = 106
	OpPlayerOut     int64 = 107
	OpRoundEnded    int64 = 108
	OpMatchEnded    int64 = 109
	OpStateSnapshot int64 = 110 // per viewer
	OpGameError     int64 = 111
)

// Nakama / gRPC status codes used by RPC errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)
