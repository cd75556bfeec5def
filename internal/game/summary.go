package game

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PlayerSummary is a player's final ranking entry.
type PlayerSummary struct {
	DisplayName string `db:"display_name" json:"display_name"`
	TotalPayoff int    `db:"total_payoff" json:"total_payoff"`
}

// GameStats aggregates the room's strategy mix across all rounds.
type GameStats struct {
	AccelerateRatio float64 `json:"accelerate_ratio"`
	TurnRatio       float64 `json:"turn_ratio"`
}

// GameSummary is the end-of-game scoreboard.
type GameSummary struct {
	Players []PlayerSummary `json:"players"`
	Stats   GameStats       `json:"stats"`
}

// SummaryBuilder assembles the end-of-game scoreboard.
type SummaryBuilder struct {
	db *sqlx.DB
}

func NewSummaryBuilder(db *sqlx.DB) *SummaryBuilder {
	return &SummaryBuilder{db: db}
}

// Build ranks non-host players by total payoff (highest first) and computes
// the room-wide accelerate/turn split.
func (b *SummaryBuilder) Build(ctx context.Context, roomID uuid.UUID) (*GameSummary, error) {
	db := b.db
	if _, err := getRoomByID(ctx, db, roomID); err != nil {
		return nil, err
	}

	players := []PlayerSummary{}
	err := db.SelectContext(ctx, &players, `
		SELECT p.display_name,
		       COALESCE(SUM(a.payoff), 0) AS total_payoff
		FROM players p
		LEFT JOIN actions a ON a.player_id = p.id
		WHERE p.room_id = $1 AND p.is_host = FALSE
		GROUP BY p.id, p.display_name`, roomID)
	if err != nil {
		return nil, fmt.Errorf("summarize players: %w", err)
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].TotalPayoff > players[j].TotalPayoff
	})

	var totalActions, accelerateCount int
	if err := db.GetContext(ctx, &totalActions,
		`SELECT COUNT(*) FROM actions WHERE room_id = $1`, roomID); err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}
	if err := db.GetContext(ctx, &accelerateCount,
		`SELECT COUNT(*) FROM actions WHERE room_id = $1 AND choice = 'ACCELERATE'`, roomID); err != nil {
		return nil, fmt.Errorf("count accelerations: %w", err)
	}

	stats := GameStats{}
	if totalActions > 0 {
		stats.AccelerateRatio = round2(float64(accelerateCount) / float64(totalActions))
		stats.TurnRatio = round2(1 - float64(accelerateCount)/float64(totalActions))
	}

	return &GameSummary{Players: players, Stats: stats}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
