package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YC815/chicken-game-backend/internal/models"
)

func TestPhaseForRound(t *testing.T) {
	for n := 1; n <= MaxRounds; n++ {
		want := models.PhaseNormal
		if n == 5 || n == 6 {
			want = models.PhaseMessage
		}
		assert.Equal(t, want, PhaseForRound(n), "round %d", n)
	}
}

func TestIsMessageRound(t *testing.T) {
	assert.False(t, IsMessageRound(4))
	assert.True(t, IsMessageRound(5))
	assert.True(t, IsMessageRound(6))
	assert.False(t, IsMessageRound(7))
}
