package game

import "github.com/YC815/chicken-game-backend/internal/models"

// MaxRounds is the fixed length of a game.
const MaxRounds = 10

// PhaseForRound returns the display phase a round starts in: rounds 5-6 allow
// messages, everything else is a normal round. The INDICATOR phase is applied
// later as a display hint once indicators have been assigned.
func PhaseForRound(roundNumber int) string {
	if IsMessageRound(roundNumber) {
		return models.PhaseMessage
	}
	return models.PhaseNormal
}

// IsMessageRound reports whether players may exchange messages in roundNumber.
func IsMessageRound(roundNumber int) bool {
	return roundNumber == 5 || roundNumber == 6
}
