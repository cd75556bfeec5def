package game

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/chicken-game-backend/internal/models"
)

func makePlayers(n int) []models.Player {
	players := make([]models.Player, n)
	for i := range players {
		players[i] = models.Player{ID: uuid.New()}
	}
	return players
}

func TestPairUpRejectsBadCounts(t *testing.T) {
	_, err := pairUp(makePlayers(0))
	assert.True(t, errors.Is(err, ErrInvalidPlayerCount))

	_, err = pairUp(makePlayers(1))
	assert.True(t, errors.Is(err, ErrInvalidPlayerCount))

	_, err = pairUp(makePlayers(5))
	assert.True(t, errors.Is(err, ErrInvalidPlayerCount))
}

func TestPairUpCoversEveryPlayerOnce(t *testing.T) {
	for _, n := range []int{2, 4, 6, 60} {
		players := makePlayers(n)
		want := map[uuid.UUID]bool{}
		for _, p := range players {
			want[p.ID] = true
		}

		matched, err := pairUp(players)
		require.NoError(t, err)
		require.Len(t, matched, n/2)

		seen := map[uuid.UUID]int{}
		for _, m := range matched {
			seen[m[0]]++
			seen[m[1]]++
			assert.NotEqual(t, m[0], m[1], "player paired with itself")
		}
		for id := range want {
			assert.Equal(t, 1, seen[id], "player %s appears %d times", id, seen[id])
		}
	}
}

func TestDealSymbolsBalanced(t *testing.T) {
	for _, n := range []int{1, 6, 7, 13, 60} {
		dealt := dealSymbols(n, indicatorSymbols)
		require.Len(t, dealt, n)

		counts := map[string]int{}
		for _, s := range dealt {
			assert.Contains(t, indicatorSymbols, s)
			counts[s]++
		}

		k := len(indicatorSymbols)
		floor, ceil := n/k, (n+k-1)/k
		for s, c := range counts {
			assert.GreaterOrEqual(t, c, floor, "symbol %s undercounted for n=%d", s, n)
			assert.LessOrEqual(t, c, ceil, "symbol %s overcounted for n=%d", s, n)
		}
	}
}
