package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Room lifecycle states
const (
	RoomWaiting  = "WAITING"
	RoomPlaying  = "PLAYING"
	RoomFinished = "FINISHED"
)

// Round lifecycle states
const (
	RoundWaitingActions = "waiting_actions"
	RoundReadyToPublish = "ready_to_publish"
	RoundCompleted      = "completed"
)

// Round display phases
const (
	PhaseNormal    = "NORMAL"
	PhaseMessage   = "MESSAGE"
	PhaseIndicator = "INDICATOR"
)

// Player choices
const (
	ChoiceTurn       = "TURN"
	ChoiceAccelerate = "ACCELERATE"
)

// Room is a game session hosted from a projector. state_version is a
// per-room monotonic counter bumped on every change visible through /state.
type Room struct {
	ID           uuid.UUID `db:"id" json:"room_id"`
	Code         string    `db:"code" json:"code"`
	Status       string    `db:"status" json:"status"`
	CurrentRound int       `db:"current_round" json:"current_round"`
	StateVersion int64     `db:"state_version" json:"state_version"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Player is a member of a room. Exactly one player per room has IsHost set;
// the host never participates in pairing or payoffs.
type Player struct {
	ID          uuid.UUID `db:"id" json:"player_id"`
	RoomID      uuid.UUID `db:"room_id" json:"room_id"`
	Nickname    string    `db:"nickname" json:"nickname"`
	DisplayName string    `db:"display_name" json:"display_name"`
	IsHost      bool      `db:"is_host" json:"is_host"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// Round is one of the ten rounds of a room.
type Round struct {
	ID          uuid.UUID    `db:"id" json:"round_id"`
	RoomID      uuid.UUID    `db:"room_id" json:"room_id"`
	RoundNumber int          `db:"round_number" json:"round_number"`
	Phase       string       `db:"phase" json:"phase"`
	Status      string       `db:"status" json:"status"`
	StartedAt   time.Time    `db:"started_at" json:"started_at"`
	EndedAt     sql.NullTime `db:"ended_at" json:"ended_at,omitempty"`
}

// Pair schedules two non-host players against each other for one round.
// Ordering within the pair carries no meaning.
type Pair struct {
	ID        uuid.UUID `db:"id" json:"pair_id"`
	RoomID    uuid.UUID `db:"room_id" json:"room_id"`
	RoundID   uuid.UUID `db:"round_id" json:"round_id"`
	Player1ID uuid.UUID `db:"player1_id" json:"player1_id"`
	Player2ID uuid.UUID `db:"player2_id" json:"player2_id"`
}

// Action is a player's submitted choice for a round. Payoff stays NULL until
// the round is finalized and is never overwritten afterwards.
type Action struct {
	ID        uuid.UUID     `db:"id" json:"action_id"`
	RoomID    uuid.UUID     `db:"room_id" json:"room_id"`
	RoundID   uuid.UUID     `db:"round_id" json:"round_id"`
	PlayerID  uuid.UUID     `db:"player_id" json:"player_id"`
	Choice    string        `db:"choice" json:"choice"`
	Payoff    sql.NullInt64 `db:"payoff" json:"payoff,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Message is a one-shot note between paired players, allowed in rounds 5-6.
type Message struct {
	ID         uuid.UUID `db:"id" json:"message_id"`
	RoomID     uuid.UUID `db:"room_id" json:"room_id"`
	RoundID    uuid.UUID `db:"round_id" json:"round_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Indicator is the emoji identity symbol assigned to a player after round 6.
type Indicator struct {
	ID       uuid.UUID `db:"id" json:"indicator_id"`
	RoomID   uuid.UUID `db:"room_id" json:"room_id"`
	PlayerID uuid.UUID `db:"player_id" json:"player_id"`
	Symbol   string    `db:"symbol" json:"symbol"`
}

// ValidChoice reports whether s is one of the two playable choices.
func ValidChoice(s string) bool {
	return s == ChoiceTurn || s == ChoiceAccelerate
}

// ValidRoomStatus reports whether s is a known room status.
func ValidRoomStatus(s string) bool {
	return s == RoomWaiting || s == RoomPlaying || s == RoomFinished
}
