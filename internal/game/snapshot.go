package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/models"
)

// StateResponse is the versioned poll payload. Data is nil when the client is
// already up to date.
type StateResponse struct {
	Version   int64         `json:"version"`
	HasUpdate bool          `json:"has_update"`
	Data      *StatePayload `json:"data,omitempty"`
}

// StatePayload is the full personalized snapshot of a room.
type StatePayload struct {
	Room               RoomStatus    `json:"room"`
	Players            []PlayerState `json:"players"`
	Round              *RoundState   `json:"round"`
	Message            *MessageState `json:"message"`
	IndicatorSymbol    *string       `json:"indicator_symbol"`
	IndicatorsAssigned bool          `json:"indicators_assigned"`
}

// RoomStatus is the public summary of a room, also served on GET /rooms/{code}.
type RoomStatus struct {
	RoomID       uuid.UUID `json:"room_id"`
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	CurrentRound int       `json:"current_round"`
	PlayerCount  int       `json:"player_count"`
}

type PlayerState struct {
	PlayerID    uuid.UUID `json:"player_id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
}

// PlayerSubmission tells the projector who is still thinking.
type PlayerSubmission struct {
	PlayerID    uuid.UUID `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Submitted   bool      `json:"submitted"`
}

type RoundState struct {
	RoundNumber       int                `json:"round_number"`
	Phase             string             `json:"phase"`
	Status            string             `json:"status"`
	SubmittedActions  int                `json:"submitted_actions"`
	TotalPlayers      int                `json:"total_players"`
	PlayerSubmissions []PlayerSubmission `json:"player_submissions"`

	// Personalized fields; the opponent's side is revealed only once the
	// round is completed.
	YourChoice          *string `json:"your_choice,omitempty"`
	OpponentChoice      *string `json:"opponent_choice,omitempty"`
	OpponentDisplayName *string `json:"opponent_display_name,omitempty"`
	YourPayoff          *int    `json:"your_payoff,omitempty"`
	OpponentPayoff      *int    `json:"opponent_payoff,omitempty"`
}

type MessageState struct {
	RoundNumber     int       `json:"round_number"`
	Content         string    `json:"content"`
	FromPlayerID    uuid.UUID `json:"from_player_id"`
	FromDisplayName string    `json:"from_display_name"`
}

// SnapshotBuilder assembles the /state payload inside a read-only transaction
// so pollers see a consistent view without blocking writers.
type SnapshotBuilder struct {
	db *sqlx.DB
}

func NewSnapshotBuilder(db *sqlx.DB) *SnapshotBuilder {
	return &SnapshotBuilder{db: db}
}

// Build returns {version, has_update:false} when clientVersion is current,
// otherwise the full snapshot, personalized when playerID is non-nil.
func (b *SnapshotBuilder) Build(ctx context.Context, roomID uuid.UUID, clientVersion int64, playerID *uuid.UUID) (*StateResponse, error) {
	tx, err := b.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	room, err := getRoomByID(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	if clientVersion >= room.StateVersion {
		return &StateResponse{Version: room.StateVersion, HasUpdate: false}, nil
	}

	players, err := listPlayers(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	payload := &StatePayload{
		Players: make([]PlayerState, 0, len(players)),
	}
	playerCount := 0
	displayNames := make(map[uuid.UUID]string, len(players))
	for _, p := range players {
		if !p.IsHost {
			playerCount++
		}
		displayNames[p.ID] = p.DisplayName
		payload.Players = append(payload.Players, PlayerState{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			IsHost:      p.IsHost,
		})
	}
	payload.Room = RoomStatus{
		RoomID:       room.ID,
		Code:         room.Code,
		Status:       room.Status,
		CurrentRound: room.CurrentRound,
		PlayerCount:  playerCount,
	}

	if payload.IndicatorsAssigned, err = indicatorsAssigned(ctx, tx, roomID); err != nil {
		return nil, err
	}

	if room.CurrentRound > 0 {
		round, err := getRoundByNumber(ctx, tx, roomID, room.CurrentRound)
		if err != nil && !errors.Is(err, ErrRoundNotFound) {
			return nil, err
		}
		if err == nil {
			if payload.Round, err = b.buildRoundState(ctx, tx, players, round, playerID); err != nil {
				return nil, err
			}
			if playerID != nil && round.Phase == models.PhaseMessage {
				if payload.Message, err = b.buildMessageState(ctx, tx, displayNames, round, *playerID); err != nil {
					return nil, err
				}
			}
		}
	}

	if playerID != nil {
		var symbol string
		err := tx.GetContext(ctx, &symbol,
			`SELECT symbol FROM indicators WHERE room_id = $1 AND player_id = $2`, roomID, *playerID)
		if err == nil {
			payload.IndicatorSymbol = &symbol
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get indicator: %w", err)
		}
	}

	return &StateResponse{
		Version:   room.StateVersion,
		HasUpdate: true,
		Data:      payload,
	}, nil
}

func (b *SnapshotBuilder) buildRoundState(ctx context.Context, tx *sqlx.Tx, players []models.Player, round *models.Round, playerID *uuid.UUID) (*RoundState, error) {
	actions, err := listActions(ctx, tx, round.ID)
	if err != nil {
		return nil, err
	}
	byPlayer := make(map[uuid.UUID]models.Action, len(actions))
	for _, a := range actions {
		byPlayer[a.PlayerID] = a
	}

	pairs, err := listPairs(ctx, tx, round.ID)
	if err != nil {
		return nil, err
	}
	participants := make(map[uuid.UUID]bool, len(pairs)*2)
	for _, p := range pairs {
		participants[p.Player1ID] = true
		participants[p.Player2ID] = true
	}

	state := &RoundState{
		RoundNumber:       round.RoundNumber,
		Phase:             round.Phase,
		Status:            round.Status,
		SubmittedActions:  len(actions),
		TotalPlayers:      len(participants),
		PlayerSubmissions: make([]PlayerSubmission, 0, len(participants)),
	}

	for _, p := range players {
		if p.IsHost || !participants[p.ID] {
			continue
		}
		_, submitted := byPlayer[p.ID]
		state.PlayerSubmissions = append(state.PlayerSubmissions, PlayerSubmission{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Submitted:   submitted,
		})
	}

	if playerID == nil {
		return state, nil
	}

	if own, ok := byPlayer[*playerID]; ok {
		state.YourChoice = &own.Choice
	}

	if round.Status != models.RoundCompleted {
		return state, nil
	}

	pair, err := getPairForPlayer(ctx, tx, round.ID, *playerID)
	if err != nil {
		if errors.Is(err, ErrPairNotFound) {
			return state, nil
		}
		return nil, err
	}
	opponentID := opponentOf(pair, *playerID)
	opponent, err := getPlayer(ctx, tx, opponentID)
	if err != nil {
		return nil, err
	}
	state.OpponentDisplayName = &opponent.DisplayName

	if own, ok := byPlayer[*playerID]; ok && own.Payoff.Valid {
		payoff := int(own.Payoff.Int64)
		state.YourPayoff = &payoff
	}
	if theirs, ok := byPlayer[opponentID]; ok {
		state.OpponentChoice = &theirs.Choice
		if theirs.Payoff.Valid {
			payoff := int(theirs.Payoff.Int64)
			state.OpponentPayoff = &payoff
		}
	}

	return state, nil
}

func (b *SnapshotBuilder) buildMessageState(ctx context.Context, tx *sqlx.Tx, displayNames map[uuid.UUID]string, round *models.Round, playerID uuid.UUID) (*MessageState, error) {
	var message models.Message
	err := tx.GetContext(ctx, &message,
		`SELECT * FROM messages WHERE round_id = $1 AND receiver_id = $2 ORDER BY created_at DESC LIMIT 1`,
		round.ID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}

	name, ok := displayNames[message.SenderID]
	if !ok {
		name = "Unknown"
	}
	return &MessageState{
		RoundNumber:     round.RoundNumber,
		Content:         message.Content,
		FromPlayerID:    message.SenderID,
		FromDisplayName: name,
	}, nil
}
