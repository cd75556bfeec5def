package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// indicatorSymbols is the closed whitelist identity symbols are drawn from.
var indicatorSymbols = []string{"🦊", "🐻", "🐰", "🦉", "🐸", "🐯"}

// IndicatorService assigns each non-host player an identity emoji once, after
// round 6, revealing in-game identity groups for the closing rounds.
type IndicatorService struct {
	db *sqlx.DB
}

func NewIndicatorService(db *sqlx.DB) *IndicatorService {
	return &IndicatorService{db: db}
}

// AssignIndicators draws symbols for every non-host player in one atomic
// batch. Players are shuffled and symbols dealt round-robin, so per-symbol
// counts differ by at most one. Rounds from 7 on flip to the INDICATOR
// display phase.
func (s *IndicatorService) AssignIndicators(ctx context.Context, roomID uuid.UUID) error {
	return runTx(ctx, s.db, func(tx *sqlx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.CurrentRound < 6 {
			return fmt.Errorf("%w: indicators can only be assigned after round 6", ErrInvalidState)
		}

		assigned, err := indicatorsAssigned(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if assigned {
			return fmt.Errorf("%w: indicators already assigned", ErrAlreadyAssigned)
		}

		players, err := listNonHostPlayers(ctx, tx, roomID)
		if err != nil {
			return err
		}
		rand.Shuffle(len(players), func(i, j int) {
			players[i], players[j] = players[j], players[i]
		})

		dealt := dealSymbols(len(players), indicatorSymbols)
		for i, player := range players {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO indicators (id, room_id, player_id, symbol) VALUES ($1, $2, $3, $4)`,
				uuid.New(), roomID, player.ID, dealt[i]); err != nil {
				return fmt.Errorf("insert indicator: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rounds SET phase = $1 WHERE room_id = $2 AND round_number >= 7`,
			models.PhaseIndicator, roomID); err != nil {
			return fmt.Errorf("update round phases: %w", err)
		}

		log.Printf("[INDICATOR] Assigned %d indicators in room %s", len(players), roomID)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
}

// GetIndicator returns the player's assigned symbol or ErrIndicatorNotFound.
func (s *IndicatorService) GetIndicator(ctx context.Context, roomID, playerID uuid.UUID) (string, error) {
	var symbol string
	err := s.db.GetContext(ctx, &symbol,
		`SELECT symbol FROM indicators WHERE room_id = $1 AND player_id = $2`, roomID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrIndicatorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get indicator: %w", err)
	}
	return symbol, nil
}

// dealSymbols returns n symbols dealt round-robin from a shuffled copy of the
// whitelist, so per-symbol counts never differ by more than one.
func dealSymbols(n int, whitelist []string) []string {
	symbols := make([]string, len(whitelist))
	copy(symbols, whitelist)
	rand.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	dealt := make([]string, n)
	for i := range dealt {
		dealt[i] = symbols[i%len(symbols)]
	}
	return dealt
}

// indicatorsAssigned reports whether the room's one-shot assignment has run.
func indicatorsAssigned(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID) (bool, error) {
	var count int
	if err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM indicators WHERE room_id = $1`, roomID); err != nil {
		return false, fmt.Errorf("count indicators: %w", err)
	}
	return count > 0, nil
}
