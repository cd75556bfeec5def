package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YC815/chicken-game-backend/internal/game"
	"github.com/YC815/chicken-game-backend/internal/models"
)

// CreateRoom creates a room with its host player (Host endpoint)
func CreateRoom(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, host, err := rooms.CreateRoom(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"room_id":        room.ID,
			"code":           room.Code,
			"host_player_id": host.ID,
		})
	}
}

// ListRooms lists rooms with optional status filter and pagination (admin/debug)
func ListRooms(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := strings.ToUpper(c.Query("status"))
		if status != "" && !models.ValidRoomStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid status: " + c.Query("status")})
			return
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 || v > 200 {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be between 1 and 200"})
				return
			}
			limit = v
		}
		offset := 0
		if raw := c.Query("offset"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "offset must be >= 0"})
				return
			}
			offset = v
		}

		list, total, err := rooms.ListRooms(c.Request.Context(), status, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"rooms":  list,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// GetRoomStatus returns the public room summary looked up by join code.
// The code arrives in the :room_id slot (see routes.go).
func GetRoomStatus(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := rooms.GetRoomByCode(c.Request.Context(), c.Param("room_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		count, err := rooms.PlayerCount(c.Request.Context(), room.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"room_id":       room.ID,
			"code":          room.Code,
			"status":        room.Status,
			"current_round": room.CurrentRound,
			"player_count":  count,
		})
	}
}

// DeleteRoom removes a room and everything it owns
func DeleteRoom(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		if err := rooms.DeleteRoom(c.Request.Context(), roomID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "room_id": roomID})
	}
}

// StartGame begins play and creates round 1 (Host endpoint)
func StartGame(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		if err := rooms.StartGame(c.Request.Context(), roomID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// NextRound advances the room to the next round (Host endpoint)
func NextRound(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, err := rooms.NextRound(c.Request.Context(), roomID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "round_number": roundNumber})
	}
}

// EndGame finishes the room (Host endpoint)
func EndGame(rooms *game.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		if err := rooms.EndGame(c.Request.Context(), roomID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// GetSummary returns the end-of-game scoreboard and strategy stats
func GetSummary(summaries *game.SummaryBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		summary, err := summaries.Build(c.Request.Context(), roomID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// GetState is the short-polling endpoint: returns has_update=false when the
// client's version is current, otherwise the full personalized snapshot
func GetState(snapshots *game.SnapshotBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}

		var clientVersion int64
		if raw := c.Query("version"); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid version"})
				return
			}
			clientVersion = v
		}

		var playerID *uuid.UUID
		if c.Query("player_id") != "" {
			id, ok := queryUUID(c, "player_id")
			if !ok {
				return
			}
			playerID = &id
		}

		state, err := snapshots.Build(c.Request.Context(), roomID, clientVersion, playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, state)
	}
}
