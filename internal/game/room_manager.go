package game

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// RoomManager owns the room lifecycle: create, join, start, next, end, delete.
type RoomManager struct {
	db *sqlx.DB
}

func NewRoomManager(db *sqlx.DB) *RoomManager {
	return &RoomManager{db: db}
}

// maxCodeAttempts bounds the retry loop on room code collisions. With a
// 36^6 code space a second collision in a row already means something is
// badly wrong with the database.
const maxCodeAttempts = 5

// CreateRoom creates a WAITING room plus its host player. The host is stored
// as a regular Player row so membership queries stay uniform, but it never
// participates in pairing.
func (m *RoomManager) CreateRoom(ctx context.Context) (*models.Room, *models.Player, error) {
	var room *models.Room
	var host *models.Player

	err := runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		for attempt := 0; ; attempt++ {
			code := generateRoomCode()
			roomID := uuid.New()
			// ON CONFLICT keeps a collision from aborting the transaction;
			// zero rows affected means the code is taken.
			res, err := tx.ExecContext(ctx,
				`INSERT INTO rooms (id, code, status, current_round, state_version, created_at, updated_at)
				 VALUES ($1, $2, $3, 0, 1, NOW(), NOW())
				 ON CONFLICT (code) DO NOTHING`,
				roomID, code, models.RoomWaiting)
			if err != nil {
				return fmt.Errorf("insert room: %w", err)
			}
			inserted, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("insert room: %w", err)
			}
			if inserted == 0 {
				if attempt+1 >= maxCodeAttempts {
					return fmt.Errorf("room code collisions exhausted retries")
				}
				log.Printf("[ROOM] Code collision on %s, regenerating", code)
				continue
			}

			hostID := uuid.New()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO players (id, room_id, nickname, display_name, is_host, joined_at)
				 VALUES ($1, $2, 'Host', 'Host', TRUE, NOW())`,
				hostID, roomID); err != nil {
				return fmt.Errorf("insert host: %w", err)
			}

			var err2 error
			if room, err2 = getRoomByID(ctx, tx, roomID); err2 != nil {
				return err2
			}
			if host, err2 = getPlayer(ctx, tx, hostID); err2 != nil {
				return err2
			}
			return nil
		}
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[ROOM] Created room %s (code=%s, host=%s)", room.ID, room.Code, host.ID)
	return room, host, nil
}

// Join adds a player to a WAITING room looked up by code. display_name is the
// nickname verbatim; auto-generated names are deliberately not a thing here.
func (m *RoomManager) Join(ctx context.Context, code, nickname string) (*models.Player, *models.Room, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len([]rune(nickname)) > 50 {
		return nil, nil, ErrInvalidNickname
	}

	var player *models.Player
	var room *models.Room

	err := runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		found, err := getRoomByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		// Re-read under the room lock so Join serializes with StartGame.
		room, err = lockRoom(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomWaiting {
			return fmt.Errorf("%w: room %s is %s", ErrRoomNotAccepting, room.Code, room.Status)
		}

		playerID := uuid.New()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (id, room_id, nickname, display_name, is_host, joined_at)
			 VALUES ($1, $2, $3, $4, FALSE, NOW())`,
			playerID, room.ID, nickname, nickname); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}

		if _, err := bumpStateVersion(ctx, tx, room.ID); err != nil {
			return err
		}

		player, err = getPlayer(ctx, tx, playerID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[ROOM] Player %s (%s) joined room %s", player.ID, player.Nickname, room.ID)
	return player, room, nil
}

// StartGame moves a room WAITING -> PLAYING and atomically creates Round 1
// with its pairing, so clients never observe a playing room without a round.
func (m *RoomManager) StartGame(ctx context.Context, roomID uuid.UUID) error {
	err := runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if err := CheckRoomTransition(room.Status, models.RoomPlaying); err != nil {
			return err
		}

		count, err := countNonHostPlayers(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if count < 2 {
			return fmt.Errorf("%w: need at least 2 players to start, got %d", ErrInvalidPlayerCount, count)
		}
		if count%2 != 0 {
			return fmt.Errorf("%w: player count must be even, got %d", ErrInvalidPlayerCount, count)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rooms SET status = $1, current_round = 1 WHERE id = $2`,
			models.RoomPlaying, roomID); err != nil {
			return fmt.Errorf("update room: %w", err)
		}

		roundID := uuid.New()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (id, room_id, round_number, phase, status, started_at)
			 VALUES ($1, $2, 1, $3, $4, NOW())`,
			roundID, roomID, PhaseForRound(1), models.RoundWaitingActions); err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		pairs, err := createPairsForRound(ctx, tx, roomID, roundID)
		if err != nil {
			return err
		}
		log.Printf("[ROOM] Room %s started with %d players, %d pairs", roomID, count, len(pairs))

		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
	return err
}

// NextRound creates round N+1 with Round 1's pairing replicated into it.
// Calling it again right after a successful advance is a no-op that reports
// the already-created round number.
func (m *RoomManager) NextRound(ctx context.Context, roomID uuid.UUID) (int, error) {
	var roundNumber int

	err := runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomPlaying {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, room.Status)
		}
		if room.CurrentRound == 0 {
			return fmt.Errorf("%w: game has no rounds yet", ErrInvalidState)
		}

		current, err := getRoundByNumber(ctx, tx, roomID, room.CurrentRound)
		if err != nil {
			return err
		}

		// Duplicate call detection: the freshly created round has no actions
		// and its predecessor is completed.
		if current.Status == models.RoundWaitingActions && room.CurrentRound >= 2 {
			submitted, err := countActions(ctx, tx, current.ID)
			if err != nil {
				return err
			}
			if submitted == 0 {
				prev, err := getRoundByNumber(ctx, tx, roomID, room.CurrentRound-1)
				if err == nil && prev.Status == models.RoundCompleted {
					roundNumber = room.CurrentRound
					log.Printf("[ROOM] NextRound repeat for room %s, already at round %d", roomID, roundNumber)
					return nil
				}
			}
		}

		if current.Status != models.RoundCompleted {
			return fmt.Errorf("%w: round %d is %s", ErrInvalidState, room.CurrentRound, current.Status)
		}
		if room.CurrentRound >= MaxRounds {
			return ErrMaxRoundsReached
		}

		roundNumber = room.CurrentRound + 1
		phase := PhaseForRound(roundNumber)
		if roundNumber >= 7 {
			assigned, err := indicatorsAssigned(ctx, tx, roomID)
			if err != nil {
				return err
			}
			if assigned {
				phase = models.PhaseIndicator
			}
		}

		roundID := uuid.New()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (id, room_id, round_number, phase, status, started_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			roundID, roomID, roundNumber, phase, models.RoundWaitingActions); err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		first, err := getRoundByNumber(ctx, tx, roomID, 1)
		if err != nil {
			return err
		}
		if _, err := copyPairsFromRound(ctx, tx, roomID, first.ID, roundID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rooms SET current_round = $1 WHERE id = $2`, roundNumber, roomID); err != nil {
			return fmt.Errorf("update current_round: %w", err)
		}

		log.Printf("[ROOM] Room %s advanced to round %d (phase=%s)", roomID, roundNumber, phase)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return roundNumber, nil
}

// EndGame moves a room PLAYING -> FINISHED.
func (m *RoomManager) EndGame(ctx context.Context, roomID uuid.UUID) error {
	return runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if err := CheckRoomTransition(room.Status, models.RoomFinished); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE rooms SET status = $1 WHERE id = $2`, models.RoomFinished, roomID); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		log.Printf("[ROOM] Room %s finished", roomID)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
}

// DeleteRoom removes the room; the schema cascades to every descendant row.
func (m *RoomManager) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if affected == 0 {
		return ErrRoomNotFound
	}
	log.Printf("[ROOM] Room %s deleted", roomID)
	return nil
}

// GetRoomByID fetches a room or ErrRoomNotFound.
func (m *RoomManager) GetRoomByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	return getRoomByID(ctx, m.db, roomID)
}

// GetRoomByCode fetches a room by its short join code.
func (m *RoomManager) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return getRoomByCode(ctx, m.db, code)
}

// PlayerCount returns the number of non-host players in a room.
func (m *RoomManager) PlayerCount(ctx context.Context, roomID uuid.UUID) (int, error) {
	return countNonHostPlayers(ctx, m.db, roomID)
}

// RoomListItem is one row of the admin room listing.
type RoomListItem struct {
	RoomID       uuid.UUID `db:"id" json:"room_id"`
	Code         string    `db:"code" json:"code"`
	Status       string    `db:"status" json:"status"`
	CurrentRound int       `db:"current_round" json:"current_round"`
	PlayerCount  int       `db:"player_count" json:"player_count"`
	CreatedAt    string    `db:"created_at" json:"created_at"`
	UpdatedAt    string    `db:"updated_at" json:"updated_at"`
}

// ListRooms returns rooms most recently updated first, with an optional
// status filter.
func (m *RoomManager) ListRooms(ctx context.Context, status string, limit, offset int) ([]RoomListItem, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE r.status = $1"
		args = append(args, status)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM rooms r %s`, where)
	if err := m.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT r.id, r.code, r.status, r.current_round,
		       (SELECT COUNT(*) FROM players p WHERE p.room_id = r.id AND p.is_host = FALSE) AS player_count,
		       to_char(r.created_at, 'YYYY-MM-DD"T"HH24:MI:SS') AS created_at,
		       to_char(r.updated_at, 'YYYY-MM-DD"T"HH24:MI:SS') AS updated_at
		FROM rooms r %s
		ORDER BY r.updated_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rooms := []RoomListItem{}
	if err := m.db.SelectContext(ctx, &rooms, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	return rooms, total, nil
}
