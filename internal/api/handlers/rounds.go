package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YC815/chicken-game-backend/internal/game"
)

// pathRound parses the round_number path parameter.
func pathRound(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("round_number"))
	if err != nil || n < 1 || n > game.MaxRounds {
		c.JSON(http.StatusNotFound, gin.H{"detail": "round not found"})
		return 0, false
	}
	return n, true
}

// GetCurrentRound returns the room's active round
func GetCurrentRound(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		round, err := rounds.GetCurrentRound(c.Request.Context(), roomID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"round_number": round.RoundNumber,
			"phase":        round.Phase,
			"status":       round.Status,
		})
	}
}

// GetPair returns a player's opponent for a round
func GetPair(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}
		playerID, ok := queryUUID(c, "player_id")
		if !ok {
			return
		}

		opponent, err := rounds.Opponent(c.Request.Context(), roomID, roundNumber, playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"opponent_id":           opponent.ID,
			"opponent_display_name": opponent.DisplayName,
		})
	}
}

// SubmitAction records a player's choice; idempotent on repeats
func SubmitAction(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}

		var req struct {
			PlayerID uuid.UUID `json:"player_id" binding:"required"`
			Choice   string    `json:"choice" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "player_id and choice are required"})
			return
		}

		if err := rounds.SubmitAction(c.Request.Context(), roomID, roundNumber, req.PlayerID, req.Choice); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// PublishRound reveals a finalized round (Host endpoint)
func PublishRound(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}

		if err := rounds.PublishRound(c.Request.Context(), roomID, roundNumber); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// SkipRound force-completes a round with TURN defaults (Host endpoint)
func SkipRound(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}

		if err := rounds.SkipRound(c.Request.Context(), roomID, roundNumber); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// GetResult returns a player's personalized round outcome
func GetResult(rounds *game.RoundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}
		playerID, ok := queryUUID(c, "player_id")
		if !ok {
			return
		}

		result, err := rounds.Result(c.Request.Context(), roomID, roundNumber, playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// SendMessage sends a one-shot note to the player's opponent (rounds 5-6)
func SendMessage(messages *game.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}

		var req struct {
			SenderID uuid.UUID `json:"sender_id" binding:"required"`
			Content  string    `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "sender_id and content are required"})
			return
		}

		if err := messages.SendMessage(c.Request.Context(), roomID, roundNumber, req.SenderID, req.Content); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// GetMessage returns the note the player's opponent sent this round
func GetMessage(messages *game.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		roundNumber, ok := pathRound(c)
		if !ok {
			return
		}
		playerID, ok := queryUUID(c, "player_id")
		if !ok {
			return
		}

		message, err := messages.GetMessage(c.Request.Context(), roomID, roundNumber, playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"content":       message.Content,
			"from_opponent": true,
		})
	}
}

// AssignIndicators deals identity emojis to all non-host players (Host endpoint)
func AssignIndicators(indicators *game.IndicatorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}

		if err := indicators.AssignIndicators(c.Request.Context(), roomID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// GetIndicator returns the player's assigned identity symbol
func GetIndicator(indicators *game.IndicatorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathUUID(c, "room_id")
		if !ok {
			return
		}
		playerID, ok := queryUUID(c, "player_id")
		if !ok {
			return
		}

		symbol, err := indicators.GetIndicator(c.Request.Context(), roomID, playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"symbol": symbol})
	}
}
