package game

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/chicken-game-backend/internal/models"
)

func TestJoinRejectsBadNickname(t *testing.T) {
	db, _ := newMockDB(t)
	m := NewRoomManager(db)

	_, _, err := m.Join(context.Background(), "ABC123", "   ")
	assert.True(t, errors.Is(err, ErrInvalidNickname))

	long := make([]rune, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, _, err = m.Join(context.Background(), "ABC123", string(long))
	assert.True(t, errors.Is(err, ErrInvalidNickname))
}

func TestJoinRejectsStartedRoom(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 3, 20))
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 3, 20))
	mock.ExpectRollback()

	_, _, err := m.Join(context.Background(), "ABC123", "Alice")
	assert.True(t, errors.Is(err, ErrRoomNotAccepting))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGameRejectsOddPlayerCount(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomWaiting, 0, 3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM players WHERE room_id = \$1 AND is_host = FALSE`).
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := m.StartGame(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrInvalidPlayerCount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGameRejectsNonWaitingRoom(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 2, 8))
	mock.ExpectRollback()

	err := m.StartGame(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextRoundIdempotentAfterAdvance(t *testing.T) {
	// A duplicate NextRound right after a successful advance reports the
	// already-created round without creating anything or bumping the version.
	db, mock := newMockDB(t)
	m := NewRoomManager(db)

	roomID := uuid.New()
	round3 := uuid.New()
	round2 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 3, 17))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 3).
		WillReturnRows(roundRow(round3, roomID, 3, models.RoundWaitingActions))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM actions WHERE round_id = \$1`).
		WithArgs(round3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 2).
		WillReturnRows(roundRow(round2, roomID, 2, models.RoundCompleted))
	mock.ExpectCommit()

	n, err := m.NextRound(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextRoundRejectsUnfinishedRound(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)

	roomID := uuid.New()
	round1 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 1, 5))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 1).
		WillReturnRows(roundRow(round1, roomID, 1, models.RoundReadyToPublish))
	mock.ExpectRollback()

	_, err := m.NextRound(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextRoundRejectsAfterLastRound(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)

	roomID := uuid.New()
	round10 := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomPlaying, 10, 60))
	mock.ExpectQuery(`SELECT \* FROM rounds WHERE room_id = \$1 AND round_number = \$2`).
		WithArgs(roomID, 10).
		WillReturnRows(roundRow(round10, roomID, 10, models.RoundCompleted))
	mock.ExpectRollback()

	_, err := m.NextRound(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrMaxRoundsReached))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndGameRejectsWaitingRoom(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)
	roomID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM rooms WHERE id = \$1 FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(roomRow(roomID, models.RoomWaiting, 0, 2))
	mock.ExpectRollback()

	err := m.EndGame(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewRoomManager(db)
	roomID := uuid.New()

	mock.ExpectExec(`DELETE FROM rooms WHERE id = \$1`).
		WithArgs(roomID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := m.DeleteRoom(context.Background(), roomID)
	assert.True(t, errors.Is(err, ErrRoomNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
