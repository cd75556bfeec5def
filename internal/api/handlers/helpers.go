package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YC815/chicken-game-backend/internal/game"
)

// respondError translates a manager error into the JSON error contract:
// validation/state errors are 400, missing resources 404, the rest 500.
func respondError(c *gin.Context, err error) {
	switch {
	case game.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case game.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
	}
}

// pathUUID parses a UUID path parameter, writing a 404 on malformed input
// (an unparseable id can never name a resource).
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": name + " not found"})
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses a required UUID query parameter with a 400 on bad input.
func queryUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": name + " is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
