package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pan/internal/domain"
)

const (
	DefaultMaxLostRounds  = 3
	DefaultJoinCodeLength = 8
	// DefaultMaxAutoTurns bounds the autonomous turns run inside one call.
	DefaultMaxAutoTurns = 5000

	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Options configures a Match. Zero values pick the defaults.
type Options struct {
	// Capacity is the number of seats. Zero means the roster size (a full local table).
	Capacity       int
	MaxLostRounds  int
	JoinCodeLength int
	MaxAutoTurns   int
	Rng            *rand.Rand
}

// Match is a sequence of rounds over one roster, ending when a player has lost
// MaxLostRounds rounds. With spare capacity it acts as a room that players join by code.
// All methods are safe for concurrent use.
type Match struct {
	mu sync.RWMutex

	id       string
	players  map[string]*Player
	seating  []string
	inactive map[string]bool
	host     string

	capacity     int
	joinCode     string
	maxLost      int
	maxAutoTurns int
	rng          *rand.Rand

	started bool
	round   *Round
	rounds  int
	over    bool
	loser   string
}

// NewMatch seats roster in order. The match does not deal until Start.
func NewMatch(id string, roster []*Player, opts Options) (*Match, error) {
	if opts.Capacity == 0 {
		opts.Capacity = len(roster)
	}
	if !ValidRosterSize(opts.Capacity) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, opts.Capacity)
	}
	if len(roster) > opts.Capacity {
		return nil, fmt.Errorf("%w: %d players for %d seats", ErrInvalidRosterSize, len(roster), opts.Capacity)
	}
	if opts.MaxLostRounds <= 0 {
		opts.MaxLostRounds = DefaultMaxLostRounds
	}
	if opts.JoinCodeLength <= 0 {
		opts.JoinCodeLength = DefaultJoinCodeLength
	}
	if opts.MaxAutoTurns <= 0 {
		opts.MaxAutoTurns = DefaultMaxAutoTurns
	}
	if opts.Rng == nil {
		opts.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &Match{
		id:           id,
		players:      make(map[string]*Player, opts.Capacity),
		inactive:     make(map[string]bool),
		capacity:     opts.Capacity,
		maxLost:      opts.MaxLostRounds,
		maxAutoTurns: opts.MaxAutoTurns,
		rng:          opts.Rng,
	}
	for _, p := range roster {
		if _, dup := m.players[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
		}
		m.seat(p)
	}
	if len(m.seating) < m.capacity {
		m.joinCode = m.newJoinCode(opts.JoinCodeLength)
	}
	return m, nil
}

func (m *Match) seat(p *Player) int {
	m.players[p.ID] = p
	m.seating = append(m.seating, p.ID)
	if m.host == "" {
		m.host = p.ID
	}
	return len(m.seating)
}

func (m *Match) newJoinCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = joinCodeAlphabet[m.rng.Intn(len(joinCodeAlphabet))]
	}
	return string(b)
}

// ID returns the match id.
func (m *Match) ID() string { return m.id }

// Capacity returns the number of seats.
func (m *Match) Capacity() int { return m.capacity }

// JoinCode returns the room code, or "" once the room has filled.
func (m *Match) JoinCode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.joinCode
}

// Host returns the id of the first seated player.
func (m *Match) Host() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.host
}

// IsMember reports whether id holds a seat, active or not.
func (m *Match) IsMember(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.players[id]
	return ok
}

// IsActive reports whether id holds a seat and is connected.
func (m *Match) IsActive(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.players[id]
	return ok && !m.inactive[id]
}

// Members returns the seated player ids in seating order.
func (m *Match) Members() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.seating...)
}

// Started reports whether the first round has been dealt.
func (m *Match) Started() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// IsRoomFull reports whether every seat is taken and no member is disconnected.
func (m *Match) IsRoomFull() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRoomFullLocked()
}

func (m *Match) isRoomFullLocked() bool {
	return len(m.seating) == m.capacity && len(m.inactive) == 0
}

// IsOver reports whether some player reached the lost-round limit.
func (m *Match) IsOver() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.over
}

// Loser returns the id of the player who ended the match, or "".
func (m *Match) Loser() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loser
}

// AwaitingHuman reports whether a round is running and a human is to move.
func (m *Match) AwaitingHuman() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.over || m.round == nil || m.round.IsOver() {
		return "", false
	}
	p := m.round.CurrentPlayer()
	return p.ID, !p.Autonomous()
}

// Join seats p under id while seats remain, or re-activates a disconnected member.
// A member rejoining keeps its hand and losses; p is ignored in that case.
func (m *Match) Join(id string, p *Player) (bool, []Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[id]; ok {
		if !m.inactive[id] {
			return true, nil
		}
		delete(m.inactive, id)
		return true, []Event{{
			Kind:    EventPlayerJoined,
			Payload: PlayerJoinedPayload{PlayerID: id, Seat: m.seatOf(id), Host: id == m.host, Reconnected: true},
		}}
	}

	if p == nil || m.over || len(m.seating) >= m.capacity {
		return false, nil
	}
	p.ID = id
	seat := m.seat(p)
	if len(m.seating) == m.capacity {
		m.joinCode = ""
	}
	return true, []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: id, Seat: seat, Host: id == m.host},
	}}
}

// Leave marks a member as disconnected. The seat stays reserved for it.
func (m *Match) Leave(id string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[id]; !ok || m.inactive[id] {
		return nil
	}
	m.inactive[id] = true
	return []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: id}}}
}

func (m *Match) seatOf(id string) int {
	for i, s := range m.seating {
		if s == id {
			return i + 1
		}
	}
	return 0
}

// Start deals the first round once the room is full and runs autonomous turns
// until a human is to move.
func (m *Match) Start() ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.over:
		return nil, ErrMatchOver
	case m.started:
		return nil, ErrAlreadyStarted
	case !m.isRoomFullLocked():
		return nil, ErrRoomNotFull
	}
	events, err := m.dealLocked()
	if err != nil {
		return nil, err
	}
	m.started = true
	more, err := m.runAutonomousLocked()
	return append(events, more...), err
}

// Resume deals the next round when a finished round was left waiting for a
// disconnected member and the room is full again.
func (m *Match) Resume() ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.over:
		return nil, ErrMatchOver
	case !m.started:
		return nil, ErrNotStarted
	case !m.round.IsOver():
		return nil, nil
	case !m.isRoomFullLocked():
		return nil, ErrRoomNotFull
	}
	events, err := m.dealLocked()
	if err != nil {
		return nil, err
	}
	more, err := m.runAutonomousLocked()
	return append(events, more...), err
}

// Play applies a human move, then runs autonomous turns until a human is to move.
// The returned snapshot is rendered for playerID.
func (m *Match) Play(playerID string, move domain.Move) (RoundSnapshot, []Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[playerID]; !ok {
		return m.snapshotLocked(playerID), nil, ErrUnknownPlayer
	}
	switch {
	case m.over:
		return m.snapshotLocked(playerID), nil, ErrMatchOver
	case !m.started:
		return m.snapshotLocked(playerID), nil, ErrNotStarted
	case m.round.IsOver():
		return m.snapshotLocked(playerID), nil, ErrRoundPending
	}

	events, err := m.playLocked(playerID, move)
	if err != nil {
		return m.snapshotLocked(playerID), nil, err
	}
	more, err := m.runAutonomousLocked()
	events = append(events, more...)
	return m.snapshotLocked(playerID), events, err
}

// Advance runs autonomous turns until a human is to move, the match ends, or the
// per-call turn bound is reached. Bot-only matches call it until IsOver.
func (m *Match) Advance() ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil, ErrNotStarted
	}
	return m.runAutonomousLocked()
}

// Snapshot renders the current state for viewerID.
func (m *Match) Snapshot(viewerID string) RoundSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(viewerID)
}

func (m *Match) roster() []*Player {
	out := make([]*Player, len(m.seating))
	for i, id := range m.seating {
		out[i] = m.players[id]
	}
	return out
}

func (m *Match) dealLocked() ([]Event, error) {
	r, events, err := NewRound(m.rounds+1, m.roster(), m.rng)
	if err != nil {
		return nil, err
	}
	m.round = r
	m.rounds++
	return events, nil
}

func (m *Match) playLocked(playerID string, move domain.Move) ([]Event, error) {
	events, err := m.round.Play(playerID, move)
	if err != nil {
		return nil, err
	}
	if n := m.round.cardCount(m.roster()); n != domain.DeckSize {
		return events, fmt.Errorf("%w: %d cards in play after %s by %s", ErrInvariantViolation, n, move, playerID)
	}
	if !m.round.IsOver() {
		return events, nil
	}
	more, err := m.finishRoundLocked()
	return append(events, more...), err
}

func (m *Match) finishRoundLocked() ([]Event, error) {
	loser := m.round.Loser()
	if loser.LostRounds >= m.maxLost {
		m.over = true
		m.loser = loser.ID
		lost := make(map[string]int, len(m.players))
		for id, p := range m.players {
			lost[id] = p.LostRounds
		}
		return []Event{{Kind: EventMatchEnded, Payload: MatchEndedPayload{Loser: loser.ID, LostRounds: lost}}}, nil
	}
	if !m.isRoomFullLocked() {
		return nil, nil
	}
	return m.dealLocked()
}

func (m *Match) runAutonomousLocked() ([]Event, error) {
	var events []Event
	for turns := 0; turns < m.maxAutoTurns; turns++ {
		if m.over || m.round.IsOver() {
			return events, nil
		}
		p := m.round.CurrentPlayer()
		if !p.Autonomous() {
			return events, nil
		}
		move, err := p.Decide(m.round.Pile())
		if err != nil {
			return events, err
		}
		more, err := m.playLocked(p.ID, move)
		events = append(events, more...)
		if err != nil {
			return events, fmt.Errorf("%w: autonomous move %s by %s: %w", ErrInvariantViolation, move, p.ID, err)
		}
	}
	return events, nil
}

func (m *Match) snapshotLocked(viewerID string) RoundSnapshot {
	s := RoundSnapshot{
		MatchID:    m.id,
		Round:      m.rounds,
		Started:    m.started,
		MatchOver:  m.over,
		MatchLoser: m.loser,
		Players:    make([]PlayerView, 0, len(m.seating)),
	}
	for i, id := range m.seating {
		p := m.players[id]
		s.Players = append(s.Players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       i + 1,
			HandSize:   len(p.Hand),
			LostRounds: p.LostRounds,
			Autonomous: p.Autonomous(),
			Active:     !m.inactive[id],
			Host:       id == m.host,
		})
	}
	if viewer, ok := m.players[viewerID]; ok {
		s.Hand = append([]domain.Card{}, viewer.Hand...)
	}
	if m.round == nil {
		return s
	}
	s.Pile = m.round.Pile().Cards()
	s.TurnOrder = m.round.TurnOrder()
	s.DeckRemaining = m.round.DeckRemaining()
	s.RoundOver = m.round.IsOver()
	if cur := m.round.CurrentPlayer(); cur != nil {
		s.CurrentPlayer = cur.ID
	}
	if l := m.round.Loser(); l != nil {
		s.RoundLoser = l.ID
	}
	return s
}
