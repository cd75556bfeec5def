package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/chicken-game-backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func roomRow(id uuid.UUID, status string, currentRound int, version int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "status", "current_round", "state_version", "created_at", "updated_at"}).
		AddRow(id.String(), "ABC123", status, currentRound, version, testNow, testNow)
}

func roundRow(id, roomID uuid.UUID, number int, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "round_number", "phase", "status", "started_at", "ended_at"}).
		AddRow(id.String(), roomID.String(), number, models.PhaseNormal, status, testNow, nil)
}

func playerRow(id, roomID uuid.UUID, name string, isHost bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "nickname", "display_name", "is_host", "joined_at"}).
		AddRow(id.String(), roomID.String(), name, name, isHost, testNow)
}

func pairRow(id, roomID, roundID, p1, p2 uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "round_id", "player1_id", "player2_id"}).
		AddRow(id.String(), roomID.String(), roundID.String(), p1.String(), p2.String())
}

func actionRow(id, roomID, roundID, playerID uuid.UUID, choice string, payoff interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "round_id", "player_id", "choice", "payoff", "created_at"}).
		AddRow(id.String(), roomID.String(), roundID.String(), playerID.String(), choice, payoff, testNow)
}

func TestSubmitActionRejectsInvalidChoice(t *testing.T) {
	db, _ := newMockDB(t)
	m := NewRoundManager(db)

	err := m.SubmitAction(context.Background(), uuid.New(), 1, uuid.New(), "SWERVE")
	assert.True(t, errors.Is(err, ErrInvalidChoice))
}

func TestSubmitActionRequiresPlayingRoom(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomWaiting, 0, 1))
	mock.ExpectRollback()

	err := m.SubmitAction(context.Background(), roomID, 1, uuid.New(), models.ChoiceTurn)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitActionDuplicateIsNoOp(t *testing.T) {
	// A repeated submission commits without inserting, bumping the version,
	// or touching the stored choice - even when the retry disagrees.
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()
	playerID := uuid.New()
	opponentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 1, 4))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundWaitingActions))
	mock.ExpectQuery(`SELECT \* FROM players WHERE id = \$1`).
		WithArgs(playerID).
		WillReturnRows(playerRow(playerID, roomID, "Alice", false))
	mock.ExpectQuery(`SELECT \* FROM pairs WHERE round_id = \$1`).
		WithArgs(roundID, playerID).
		WillReturnRows(pairRow(uuid.New(), roomID, roundID, playerID, opponentID))
	mock.ExpectQuery(`SELECT \* FROM actions WHERE round_id = \$1 AND player_id = \$2`).
		WithArgs(roundID, playerID).
		WillReturnRows(actionRow(uuid.New(), roomID, roundID, playerID, models.ChoiceAccelerate, nil))
	mock.ExpectCommit()

	err := m.SubmitAction(context.Background(), roomID, 1, playerID, models.ChoiceTurn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitActionRejectsNonParticipant(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()
	playerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 1, 4))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundWaitingActions))
	mock.ExpectQuery(`SELECT \* FROM players WHERE id = \$1`).
		WithArgs(playerID).
		WillReturnRows(playerRow(playerID, roomID, "Late", false))
	mock.ExpectQuery(`SELECT \* FROM pairs WHERE round_id = \$1`).
		WithArgs(roundID, playerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "round_id", "player1_id", "player2_id"}))
	mock.ExpectRollback()

	err := m.SubmitAction(context.Background(), roomID, 1, playerID, models.ChoiceTurn)
	assert.True(t, errors.Is(err, ErrNotParticipant))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishRoundIdempotentWhenCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 2, 9))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 2).
		WillReturnRows(roundRow(roundID, roomID, 2, models.RoundCompleted))
	mock.ExpectCommit()

	err := m.PublishRound(context.Background(), roomID, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishRoundRejectsWaitingActions(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 1, 4))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundWaitingActions))
	mock.ExpectRollback()

	err := m.PublishRound(context.Background(), roomID, 1)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishRoundCompletesReadyRound(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 1, 5))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundReadyToPublish))
	mock.ExpectExec(`UPDATE rounds SET status = \$1, ended_at = NOW\(\) WHERE id = \$2`).
		WithArgs(models.RoundCompleted, roundID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE rooms SET state_version = state_version \+ 1`).
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"state_version"}).AddRow(6))
	mock.ExpectCommit()

	err := m.PublishRound(context.Background(), roomID, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSkipRoundRejectsCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 3, 12))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(roomID, 3).
		WillReturnRows(roundRow(roundID, roomID, 3, models.RoundCompleted))
	mock.ExpectRollback()

	err := m.SkipRound(context.Background(), roomID, 3)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultNotReadyBeforeFinalization(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()
	playerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundWaitingActions))
	mock.ExpectQuery(`SELECT \* FROM actions WHERE round_id = \$1 AND player_id = \$2`).
		WithArgs(roundID, playerID).
		WillReturnRows(actionRow(uuid.New(), roomID, roundID, playerID, models.ChoiceTurn, nil))

	_, err := m.Result(context.Background(), roomID, 1, playerID)
	assert.True(t, errors.Is(err, ErrResultNotReady))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultReturnsBothSides(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoundManager(db)

	roomID := uuid.New()
	roundID := uuid.New()
	playerID := uuid.New()
	opponentID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(roundID, roomID, 1, models.RoundCompleted))
	mock.ExpectQuery(`SELECT \* FROM actions WHERE round_id = \$1 AND player_id = \$2`).
		WithArgs(roundID, playerID).
		WillReturnRows(actionRow(uuid.New(), roomID, roundID, playerID, models.ChoiceAccelerate, 10))
	mock.ExpectQuery(`SELECT \* FROM pairs WHERE round_id = \$1`).
		WithArgs(roundID, playerID).
		WillReturnRows(pairRow(uuid.New(), roomID, roundID, playerID, opponentID))
	mock.ExpectQuery(`SELECT \* FROM players WHERE id = \$1`).
		WithArgs(opponentID).
		WillReturnRows(playerRow(opponentID, roomID, "Bob", false))
	mock.ExpectQuery(`SELECT \* FROM actions WHERE round_id = \$1 AND player_id = \$2`).
		WithArgs(roundID, opponentID).
		WillReturnRows(actionRow(uuid.New(), roomID, roundID, opponentID, models.ChoiceTurn, -3))

	result, err := m.Result(context.Background(), roomID, 1, playerID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", result.OpponentDisplayName)
	assert.Equal(t, models.ChoiceAccelerate, result.YourChoice)
	assert.Equal(t, models.ChoiceTurn, result.OpponentChoice)
	assert.Equal(t, 10, result.YourPayoff)
	assert.Equal(t, -3, result.OpponentPayoff)
	assert.NoError(t, mock.ExpectationsWereMet())
}
