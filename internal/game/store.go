package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// runTx wraps fn in a transaction, rolling back on error or panic.
func runTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Row lookups shared by the managers. The get/list/count helpers accept
// sqlx.ExtContext so they compose with either a *sqlx.DB (plain reads) or a
// *sqlx.Tx (inside a locked transaction); the lock helpers take a *sqlx.Tx.

func getRoomByID(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := sqlx.GetContext(ctx, q, &room, `SELECT * FROM rooms WHERE id = $1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

func getRoomByCode(ctx context.Context, q sqlx.ExtContext, code string) (*models.Room, error) {
	var room models.Room
	err := sqlx.GetContext(ctx, q, &room, `SELECT * FROM rooms WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room by code: %w", err)
	}
	return &room, nil
}

// lockRoom takes the row-level lock that serializes every mutating room
// operation. Must run inside a transaction.
func lockRoom(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := tx.GetContext(ctx, &room, `SELECT * FROM rooms WHERE id = $1 FOR UPDATE`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}
	return &room, nil
}

func getRoundByNumber(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID, roundNumber int) (*models.Round, error) {
	var round models.Round
	err := sqlx.GetContext(ctx, q, &round,
		`SELECT * FROM rounds WHERE room_id = $1 AND round_number = $2`, roomID, roundNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}
	return &round, nil
}

// lockRoundByNumber serializes SubmitAction, PublishRound and SkipRound for a
// round. Must run inside a transaction.
func lockRoundByNumber(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID, roundNumber int) (*models.Round, error) {
	var round models.Round
	err := tx.GetContext(ctx, &round,
		`SELECT * FROM rounds WHERE room_id = $1 AND round_number = $2 FOR UPDATE`, roomID, roundNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock round: %w", err)
	}
	return &round, nil
}

func getPlayer(ctx context.Context, q sqlx.ExtContext, playerID uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := sqlx.GetContext(ctx, q, &player, `SELECT * FROM players WHERE id = $1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return &player, nil
}

func listPlayers(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID) ([]models.Player, error) {
	var players []models.Player
	err := sqlx.SelectContext(ctx, q, &players,
		`SELECT * FROM players WHERE room_id = $1 ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func listNonHostPlayers(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID) ([]models.Player, error) {
	var players []models.Player
	err := sqlx.SelectContext(ctx, q, &players,
		`SELECT * FROM players WHERE room_id = $1 AND is_host = FALSE ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list non-host players: %w", err)
	}
	return players, nil
}

func countNonHostPlayers(ctx context.Context, q sqlx.ExtContext, roomID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM players WHERE room_id = $1 AND is_host = FALSE`, roomID)
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

func listPairs(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID) ([]models.Pair, error) {
	var pairs []models.Pair
	err := sqlx.SelectContext(ctx, q, &pairs, `SELECT * FROM pairs WHERE round_id = $1`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	return pairs, nil
}

func getPairForPlayer(ctx context.Context, q sqlx.ExtContext, roundID, playerID uuid.UUID) (*models.Pair, error) {
	var pair models.Pair
	err := sqlx.GetContext(ctx, q, &pair,
		`SELECT * FROM pairs WHERE round_id = $1 AND (player1_id = $2 OR player2_id = $2)`,
		roundID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPairNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pair: %w", err)
	}
	return &pair, nil
}

// opponentOf returns the other player of a pair.
func opponentOf(pair *models.Pair, playerID uuid.UUID) uuid.UUID {
	if pair.Player1ID == playerID {
		return pair.Player2ID
	}
	return pair.Player1ID
}

func getAction(ctx context.Context, q sqlx.ExtContext, roundID, playerID uuid.UUID) (*models.Action, error) {
	var action models.Action
	err := sqlx.GetContext(ctx, q, &action,
		`SELECT * FROM actions WHERE round_id = $1 AND player_id = $2`, roundID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}
	return &action, nil
}

func listActions(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID) ([]models.Action, error) {
	var actions []models.Action
	err := sqlx.SelectContext(ctx, q, &actions, `SELECT * FROM actions WHERE round_id = $1`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

func countActions(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(*) FROM actions WHERE round_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}
