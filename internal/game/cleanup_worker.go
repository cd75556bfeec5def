package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/config"
	"github.com/YC815/chicken-game-backend/internal/models"
)

// StartCleanupWorker runs the periodic retention sweep until ctx is
// cancelled. Finished rooms are kept for a day; rooms nobody touched for a
// couple of hours are abandoned sessions and get dropped too.
func StartCleanupWorker(ctx context.Context, db *sqlx.DB, cfg *config.Config) {
	interval := time.Duration(cfg.CleanupIntervalHours) * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[CLEANUP] Starting cleanup worker (sweep every %v)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[CLEANUP] Worker stopped")
			return
		case <-ticker.C:
			RunCleanup(ctx, db, cfg)
		}
	}
}

// RunCleanup performs both retention sweeps once and logs the counts.
func RunCleanup(ctx context.Context, db *sqlx.DB, cfg *config.Config) {
	finished, err := CleanupFinishedRooms(ctx, db, time.Duration(cfg.FinishedRetentionHours)*time.Hour)
	if err != nil {
		log.Printf("[CLEANUP] Finished-room sweep failed: %v", err)
	}
	idle, err := CleanupIdleRooms(ctx, db, time.Duration(cfg.IdleRetentionHours)*time.Hour)
	if err != nil {
		log.Printf("[CLEANUP] Idle-room sweep failed: %v", err)
	}
	log.Printf("[CLEANUP] Sweep done: %d finished rooms, %d idle rooms removed", finished, idle)
}

// CleanupFinishedRooms deletes FINISHED rooms untouched for longer than
// maxAge. The schema cascades to all descendant rows.
func CleanupFinishedRooms(ctx context.Context, db *sqlx.DB, maxAge time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM rooms WHERE status = $1 AND updated_at < NOW() - $2::interval`,
		models.RoomFinished, pgInterval(maxAge))
	if err != nil {
		return 0, fmt.Errorf("delete finished rooms: %w", err)
	}
	return res.RowsAffected()
}

// CleanupIdleRooms deletes WAITING or PLAYING rooms untouched for longer than
// maxAge: abandoned lobbies and stalled sessions.
func CleanupIdleRooms(ctx context.Context, db *sqlx.DB, maxAge time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM rooms WHERE status IN ($1, $2) AND updated_at < NOW() - $3::interval`,
		models.RoomWaiting, models.RoomPlaying, pgInterval(maxAge))
	if err != nil {
		return 0, fmt.Errorf("delete idle rooms: %w", err)
	}
	return res.RowsAffected()
}

func pgInterval(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
