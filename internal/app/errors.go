package app

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMatch       = errors.New("match not found")
	ErrUnknownPlayer      = errors.New("player not found")
	ErrDuplicatePlayer    = errors.New("player id already seated")
	ErrInvalidRosterSize  = errors.New("roster size must divide the deck evenly")
	ErrInvalidCapacity    = errors.New("capacity must be 2, 3, 4 or 6")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrCardNotHeld        = errors.New("card not in hand")
	ErrAwaitingInput      = errors.New("human player decides externally")
	ErrRoundOver          = errors.New("round is over")
	ErrRoundPending       = errors.New("waiting for players to reconnect")
	ErrNotStarted         = errors.New("match not started")
	ErrAlreadyStarted     = errors.New("match already started")
	ErrRoomNotFull        = errors.New("room is not full")
	ErrMatchOver          = errors.New("match is over")
	ErrInvariantViolation = errors.New("engine invariant violated")

	ErrNoStarterHolder = fmt.Errorf("%w: nobody holds the starter", ErrInvariantViolation)
)
