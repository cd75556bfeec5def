package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// RoundManager is the concurrency core: action submission, finalization,
// publication and skip. Every mutation happens under the round's row lock so
// finalization runs in exactly one transaction no matter how many submitters
// race — there is no "last player triggers the calculation" special case,
// any submitter attempts it and the lock plus the status guard make it
// happen once.
type RoundManager struct {
	db *sqlx.DB
}

func NewRoundManager(db *sqlx.DB) *RoundManager {
	return &RoundManager{db: db}
}

// SubmitAction records a player's choice for a round. Idempotent: repeats
// return success without a version bump, and on conflicting repeats the
// stored choice wins. When the submission completes the round's action set,
// finalization runs inside the same transaction.
func (m *RoundManager) SubmitAction(ctx context.Context, roomID uuid.UUID, roundNumber int, playerID uuid.UUID, choice string) error {
	if !models.ValidChoice(choice) {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	return runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		room, err := getRoomByID(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomPlaying {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, room.Status)
		}

		round, err := lockRoundByNumber(ctx, tx, roomID, roundNumber)
		if err != nil {
			return err
		}
		if round.Status != models.RoundWaitingActions && round.Status != models.RoundReadyToPublish {
			return fmt.Errorf("%w: round is %s", ErrInvalidState, round.Status)
		}

		player, err := getPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if player.RoomID != roomID {
			return ErrPlayerNotFound
		}
		if player.IsHost {
			return ErrHostCannotPlay
		}
		if _, err := getPairForPlayer(ctx, tx, round.ID, playerID); err != nil {
			if errors.Is(err, ErrPairNotFound) {
				return ErrNotParticipant
			}
			return err
		}

		existing, err := getAction(ctx, tx, round.ID, playerID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Duplicate retry. The stored choice wins either way; no state
			// change, no version bump.
			log.Printf("[ROUND] Duplicate submission by %s in round %d (stored=%s, got=%s)",
				playerID, roundNumber, existing.Choice, choice)
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO actions (id, room_id, round_id, player_id, choice, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			uuid.New(), roomID, round.ID, playerID, choice)
		if isUniqueViolation(err) {
			// Another transaction landed the row first; same as a repeat.
			log.Printf("[ROUND] Submission race for %s in round %d, keeping stored action", playerID, roundNumber)
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert action: %w", err)
		}

		if _, err := bumpStateVersion(ctx, tx, roomID); err != nil {
			return err
		}

		// Any submitter attempts finalization; the action-count check inside
		// makes the attempt a no-op until the action set is complete, and the
		// status guard keeps it from running twice.
		return m.tryFinalizeLocked(ctx, tx, round)
	})
}

// tryFinalizeLocked computes and persists payoffs for every pair, then moves
// the round to ready_to_publish. Caller must hold the round lock. Idempotent:
// returns nil without effect unless the round is waiting_actions with a
// complete action set. Shares the caller's version bump.
func (m *RoundManager) tryFinalizeLocked(ctx context.Context, tx *sqlx.Tx, round *models.Round) error {
	if round.Status != models.RoundWaitingActions {
		return nil
	}

	submitted, err := countActions(ctx, tx, round.ID)
	if err != nil {
		return err
	}
	total, err := countNonHostPlayers(ctx, tx, round.RoomID)
	if err != nil {
		return err
	}
	if submitted < total {
		return nil
	}

	if err := m.computePayoffsLocked(ctx, tx, round); err != nil {
		return err
	}

	if err := CheckRoundTransition(round.Status, models.RoundReadyToPublish); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rounds SET status = $1 WHERE id = $2`, models.RoundReadyToPublish, round.ID); err != nil {
		return fmt.Errorf("update round status: %w", err)
	}

	log.Printf("[ROUND] Round %d of room %s finalized, waiting for publish", round.RoundNumber, round.RoomID)
	return nil
}

// computePayoffsLocked writes both payoffs for every pair from the pair's
// joint choice. Caller must hold the round lock and have verified that every
// participant has an action.
func (m *RoundManager) computePayoffsLocked(ctx context.Context, tx *sqlx.Tx, round *models.Round) error {
	pairs, err := listPairs(ctx, tx, round.ID)
	if err != nil {
		return err
	}
	actions, err := listActions(ctx, tx, round.ID)
	if err != nil {
		return err
	}

	byPlayer := make(map[uuid.UUID]models.Action, len(actions))
	for _, a := range actions {
		byPlayer[a.PlayerID] = a
	}

	for _, pair := range pairs {
		a1, ok1 := byPlayer[pair.Player1ID]
		a2, ok2 := byPlayer[pair.Player2ID]
		if !ok1 || !ok2 {
			return fmt.Errorf("finalize round %s: pair %s missing actions", round.ID, pair.ID)
		}

		p1, p2 := Payoffs(a1.Choice, a2.Choice)
		if _, err := tx.ExecContext(ctx,
			`UPDATE actions SET payoff = $1 WHERE id = $2`, p1, a1.ID); err != nil {
			return fmt.Errorf("store payoff: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE actions SET payoff = $1 WHERE id = $2`, p2, a2.ID); err != nil {
			return fmt.Errorf("store payoff: %w", err)
		}
	}

	return nil
}

// PublishRound reveals a finalized round: ready_to_publish -> completed.
// Idempotent: publishing a completed round returns success without effect.
func (m *RoundManager) PublishRound(ctx context.Context, roomID uuid.UUID, roundNumber int) error {
	return runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		if _, err := getRoomByID(ctx, tx, roomID); err != nil {
			return err
		}
		round, err := lockRoundByNumber(ctx, tx, roomID, roundNumber)
		if err != nil {
			return err
		}

		if round.Status == models.RoundCompleted {
			log.Printf("[ROUND] Round %d of room %s already published", roundNumber, roomID)
			return nil
		}
		if round.Status != models.RoundReadyToPublish {
			return fmt.Errorf("%w: cannot publish round in status %s", ErrInvalidState, round.Status)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rounds SET status = $1, ended_at = NOW() WHERE id = $2`,
			models.RoundCompleted, round.ID); err != nil {
			return fmt.Errorf("update round: %w", err)
		}

		log.Printf("[ROUND] Round %d of room %s published", roundNumber, roomID)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
}

// SkipRound is the host's emergency exit: fill in TURN for everyone who has
// not submitted, finalize, and complete the round in one transaction.
func (m *RoundManager) SkipRound(ctx context.Context, roomID uuid.UUID, roundNumber int) error {
	return runTx(ctx, m.db, func(tx *sqlx.Tx) error {
		if _, err := getRoomByID(ctx, tx, roomID); err != nil {
			return err
		}
		round, err := lockRoundByNumber(ctx, tx, roomID, roundNumber)
		if err != nil {
			return err
		}
		if round.Status != models.RoundWaitingActions && round.Status != models.RoundReadyToPublish {
			return fmt.Errorf("%w: cannot skip round in status %s", ErrInvalidState, round.Status)
		}

		if round.Status == models.RoundWaitingActions {
			pairs, err := listPairs(ctx, tx, round.ID)
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				for _, pid := range []uuid.UUID{pair.Player1ID, pair.Player2ID} {
					existing, err := getAction(ctx, tx, round.ID, pid)
					if err != nil {
						return err
					}
					if existing != nil {
						continue
					}
					log.Printf("[ROUND] Auto-submitting TURN for player %s in round %d", pid, roundNumber)
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO actions (id, room_id, round_id, player_id, choice, created_at)
						 VALUES ($1, $2, $3, $4, $5, NOW())`,
						uuid.New(), roomID, round.ID, pid, models.ChoiceTurn); err != nil {
						return fmt.Errorf("insert default action: %w", err)
					}
				}
			}

			// All actions exist now; payoffs for the round get written here.
			if err := m.computePayoffsLocked(ctx, tx, round); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rounds SET status = $1, ended_at = NOW() WHERE id = $2`,
			models.RoundCompleted, round.ID); err != nil {
			return fmt.Errorf("update round: %w", err)
		}

		log.Printf("[ROUND] Round %d of room %s skipped and published", roundNumber, roomID)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
}

// GetCurrentRound returns the room's active round, or ErrRoundNotFound before
// the game starts.
func (m *RoundManager) GetCurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error) {
	room, err := getRoomByID(ctx, m.db, roomID)
	if err != nil {
		return nil, err
	}
	if room.CurrentRound == 0 {
		return nil, fmt.Errorf("%w: no active round", ErrRoundNotFound)
	}
	return getRoundByNumber(ctx, m.db, roomID, room.CurrentRound)
}

// Opponent resolves a player's fixed opponent for a round.
func (m *RoundManager) Opponent(ctx context.Context, roomID uuid.UUID, roundNumber int, playerID uuid.UUID) (*models.Player, error) {
	round, err := getRoundByNumber(ctx, m.db, roomID, roundNumber)
	if err != nil {
		return nil, err
	}
	pair, err := getPairForPlayer(ctx, m.db, round.ID, playerID)
	if err != nil {
		return nil, err
	}
	return getPlayer(ctx, m.db, opponentOf(pair, playerID))
}

// RoundResult is a player's personalized view of a finished round.
type RoundResult struct {
	OpponentDisplayName string `json:"opponent_display_name"`
	YourChoice          string `json:"your_choice"`
	OpponentChoice      string `json:"opponent_choice"`
	YourPayoff          int    `json:"your_payoff"`
	OpponentPayoff      int    `json:"opponent_payoff"`
}

// Result returns a player's outcome for a round once payoffs exist;
// ErrResultNotReady before finalization.
func (m *RoundManager) Result(ctx context.Context, roomID uuid.UUID, roundNumber int, playerID uuid.UUID) (*RoundResult, error) {
	round, err := getRoundByNumber(ctx, m.db, roomID, roundNumber)
	if err != nil {
		return nil, err
	}

	action, err := getAction(ctx, m.db, round.ID, playerID)
	if err != nil {
		return nil, err
	}
	if action == nil || !action.Payoff.Valid {
		return nil, ErrResultNotReady
	}

	pair, err := getPairForPlayer(ctx, m.db, round.ID, playerID)
	if err != nil {
		return nil, err
	}
	opponentID := opponentOf(pair, playerID)
	opponent, err := getPlayer(ctx, m.db, opponentID)
	if err != nil {
		return nil, err
	}
	opponentAction, err := getAction(ctx, m.db, round.ID, opponentID)
	if err != nil {
		return nil, err
	}
	if opponentAction == nil || !opponentAction.Payoff.Valid {
		return nil, ErrResultNotReady
	}

	return &RoundResult{
		OpponentDisplayName: opponent.DisplayName,
		YourChoice:          action.Choice,
		OpponentChoice:      opponentAction.Choice,
		YourPayoff:          int(action.Payoff.Int64),
		OpponentPayoff:      int(opponentAction.Payoff.Int64),
	}, nil
}
