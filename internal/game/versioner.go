package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// bumpStateVersion is the single entry point for advancing a room's
// state_version. It runs inside the caller's transaction so the bump commits
// together with the mutation it announces, and it refreshes updated_at as a
// side effect. Returns the new version.
func bumpStateVersion(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID) (int64, error) {
	var version int64
	err := tx.QueryRowxContext(ctx,
		`UPDATE rooms SET state_version = state_version + 1, updated_at = NOW() WHERE id = $1 RETURNING state_version`,
		roomID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("bump state version: %w", err)
	}
	return version, nil
}
