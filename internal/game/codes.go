package game

import (
	"crypto/rand"
	"math/big"
)

const roomCodeLength = 6

// generateRoomCode returns a random room code like "K7QX2A". Uniqueness is
// not checked here; CreateRoom retries on collision against the DB constraint.
func generateRoomCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, roomCodeLength)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}
