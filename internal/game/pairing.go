package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// pairUp validates the player set and returns a uniformly shuffled pairing
// of consecutive elements. Rejects odd or too-small rooms.
func pairUp(players []models.Player) ([][2]uuid.UUID, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidPlayerCount, len(players))
	}
	if len(players)%2 != 0 {
		return nil, fmt.Errorf("%w: player count must be even, got %d", ErrInvalidPlayerCount, len(players))
	}

	rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})

	matched := make([][2]uuid.UUID, 0, len(players)/2)
	for i := 0; i < len(players); i += 2 {
		matched = append(matched, [2]uuid.UUID{players[i].ID, players[i+1].ID})
	}
	return matched, nil
}

// createPairsForRound builds Round 1's pairing and persists it. Runs inside
// the caller's transaction.
func createPairsForRound(ctx context.Context, tx *sqlx.Tx, roomID, roundID uuid.UUID) ([]models.Pair, error) {
	players, err := listNonHostPlayers(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	matched, err := pairUp(players)
	if err != nil {
		return nil, err
	}

	pairs := make([]models.Pair, 0, len(matched))
	for _, m := range matched {
		pair := models.Pair{
			ID:        uuid.New(),
			RoomID:    roomID,
			RoundID:   roundID,
			Player1ID: m[0],
			Player2ID: m[1],
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pairs (id, room_id, round_id, player1_id, player2_id) VALUES ($1, $2, $3, $4, $5)`,
			pair.ID, pair.RoomID, pair.RoundID, pair.Player1ID, pair.Player2ID); err != nil {
			return nil, fmt.Errorf("insert pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// copyPairsFromRound replicates an earlier round's pairing into a new round.
// Opponents stay fixed for the whole game so reputation can build up across
// messages and indicators.
func copyPairsFromRound(ctx context.Context, tx *sqlx.Tx, roomID, sourceRoundID, targetRoundID uuid.UUID) ([]models.Pair, error) {
	source, err := listPairs(ctx, tx, sourceRoundID)
	if err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return nil, fmt.Errorf("%w: source round has no pairs", ErrPairNotFound)
	}

	pairs := make([]models.Pair, 0, len(source))
	for _, p := range source {
		cloned := models.Pair{
			ID:        uuid.New(),
			RoomID:    roomID,
			RoundID:   targetRoundID,
			Player1ID: p.Player1ID,
			Player2ID: p.Player2ID,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pairs (id, room_id, round_id, player1_id, player2_id) VALUES ($1, $2, $3, $4, $5)`,
			cloned.ID, cloned.RoomID, cloned.RoundID, cloned.Player1ID, cloned.Player2ID); err != nil {
			return nil, fmt.Errorf("copy pair: %w", err)
		}
		pairs = append(pairs, cloned)
	}

	return pairs, nil
}
