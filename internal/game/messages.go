package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// MessageService handles the one-shot notes paired players may exchange in
// rounds 5 and 6. The receiver is always the sender's fixed opponent.
type MessageService struct {
	db *sqlx.DB
}

func NewMessageService(db *sqlx.DB) *MessageService {
	return &MessageService{db: db}
}

// SendMessage stores a note from sender to their opponent. One message per
// sender per round; repeats are rejected with already_sent.
func (s *MessageService) SendMessage(ctx context.Context, roomID uuid.UUID, roundNumber int, senderID uuid.UUID, content string) error {
	if !IsMessageRound(roundNumber) {
		return fmt.Errorf("%w: messages are only allowed in rounds 5-6, got round %d", ErrNotAllowed, roundNumber)
	}
	content = strings.TrimSpace(content)
	if content == "" || len([]rune(content)) > 100 {
		return ErrInvalidMessage
	}

	return runTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := getRoomByID(ctx, tx, roomID); err != nil {
			return err
		}
		round, err := getRoundByNumber(ctx, tx, roomID, roundNumber)
		if err != nil {
			return err
		}

		sender, err := getPlayer(ctx, tx, senderID)
		if err != nil {
			return err
		}
		if sender.RoomID != roomID {
			return ErrPlayerNotFound
		}
		if sender.IsHost {
			return ErrHostCannotPlay
		}

		pair, err := getPairForPlayer(ctx, tx, round.ID, senderID)
		if err != nil {
			return err
		}
		receiverID := opponentOf(pair, senderID)

		var existing int
		if err := tx.GetContext(ctx, &existing,
			`SELECT COUNT(*) FROM messages WHERE round_id = $1 AND sender_id = $2`,
			round.ID, senderID); err != nil {
			return fmt.Errorf("check message: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: message already sent in this round", ErrAlreadySent)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, room_id, round_id, sender_id, receiver_id, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			uuid.New(), roomID, round.ID, senderID, receiverID, content)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: message already sent in this round", ErrAlreadySent)
		}
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		log.Printf("[MESSAGE] Player %s messaged %s in round %d of room %s", senderID, receiverID, roundNumber, roomID)
		_, err = bumpStateVersion(ctx, tx, roomID)
		return err
	})
}

// GetMessage returns the most recent message addressed to player in the given
// round, or ErrMessageNotFound.
func (s *MessageService) GetMessage(ctx context.Context, roomID uuid.UUID, roundNumber int, playerID uuid.UUID) (*models.Message, error) {
	round, err := getRoundByNumber(ctx, s.db, roomID, roundNumber)
	if err != nil {
		return nil, err
	}

	var message models.Message
	err = s.db.GetContext(ctx, &message,
		`SELECT * FROM messages WHERE round_id = $1 AND receiver_id = $2 ORDER BY created_at DESC LIMIT 1`,
		round.ID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &message, nil
}
