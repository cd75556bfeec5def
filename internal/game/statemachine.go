package game

import (
	"fmt"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// Legal status transitions, data first. Anything absent is rejected.
var roomTransitions = map[string][]string{
	models.RoomWaiting:  {models.RoomPlaying},
	models.RoomPlaying:  {models.RoomFinished},
	models.RoomFinished: {},
}

var roundTransitions = map[string][]string{
	models.RoundWaitingActions: {models.RoundReadyToPublish, models.RoundCompleted},
	models.RoundReadyToPublish: {models.RoundCompleted},
	models.RoundCompleted:      {},
}

// CanRoomTransition reports whether a room may move from one status to another.
func CanRoomTransition(from, to string) bool {
	return contains(roomTransitions[from], to)
}

// CanRoundTransition reports whether a round may move from one status to another.
func CanRoundTransition(from, to string) bool {
	return contains(roundTransitions[from], to)
}

// CheckRoomTransition returns ErrInvalidStateTransition unless from -> to is legal.
func CheckRoomTransition(from, to string) error {
	if !CanRoomTransition(from, to) {
		return fmt.Errorf("%w: room cannot go from %s to %s", ErrInvalidStateTransition, from, to)
	}
	return nil
}

// CheckRoundTransition returns ErrInvalidStateTransition unless from -> to is legal.
func CheckRoundTransition(from, to string) error {
	if !CanRoundTransition(from, to) {
		return fmt.Errorf("%w: round cannot go from %s to %s", ErrInvalidStateTransition, from, to)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
