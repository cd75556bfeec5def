package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YC815/chicken-game-backend/internal/game"
)

// JoinRoom adds a player to a waiting room looked up by code
func JoinRoom(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Nickname string `json:"nickname" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "nickname is required"})
			return
		}

		// The join code arrives in the :room_id slot (see routes.go).
		player, room, err := rooms.Join(c.Request.Context(), c.Param("room_id"), req.Nickname)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"player_id":    player.ID,
			"room_id":      room.ID,
			"display_name": player.DisplayName,
		})
	}
}
