package game

import "errors"

// Common errors. The snake_case strings are part of the API contract: they
// open the "detail" field of error responses, followed by ": <context>" where
// a call site wraps them.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoundNotFound     = errors.New("round not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPairNotFound      = errors.New("no pair found for player in this round")
	ErrResultNotReady    = errors.New("result not available yet")
	ErrMessageNotFound   = errors.New("no message found")
	ErrIndicatorNotFound = errors.New("no indicator assigned")

	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrInvalidState           = errors.New("invalid_state")
	ErrInvalidPlayerCount     = errors.New("invalid_player_count")
	ErrAlreadySent            = errors.New("already_sent")
	ErrNotAllowed             = errors.New("not_allowed")
	ErrAlreadyAssigned        = errors.New("already_assigned")

	ErrRoomNotAccepting = errors.New("room is not accepting players")
	ErrMaxRoundsReached = errors.New("all rounds completed")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrInvalidNickname  = errors.New("nickname must be 1-50 characters")
	ErrInvalidMessage   = errors.New("message must be 1-100 characters")
	ErrNotParticipant   = errors.New("player is not a participant in this round")
	ErrHostCannotPlay   = errors.New("host does not participate in rounds")
)

// IsNotFound reports whether err maps to a missing resource (HTTP 404).
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrRoomNotFound,
		ErrRoundNotFound,
		ErrPlayerNotFound,
		ErrPairNotFound,
		ErrResultNotReady,
		ErrMessageNotFound,
		ErrIndicatorNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err maps to a client mistake (HTTP 400).
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidStateTransition,
		ErrInvalidState,
		ErrInvalidPlayerCount,
		ErrAlreadySent,
		ErrNotAllowed,
		ErrAlreadyAssigned,
		ErrRoomNotAccepting,
		ErrMaxRoundsReached,
		ErrInvalidChoice,
		ErrInvalidNickname,
		ErrInvalidMessage,
		ErrNotParticipant,
		ErrHostCannotPlay,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
