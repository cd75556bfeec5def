package api

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/YC815/chicken-game-backend/internal/api/handlers"
	"github.com/YC815/chicken-game-backend/internal/config"
	"github.com/YC815/chicken-game-backend/internal/game"
)

// SetupRoutes configures all API routes. Room routes addressed by join code
// and by UUID share the :room_id wildcard slot because gin requires one
// parameter name per path position; code-typed handlers read it as the code.
func SetupRoutes(router *gin.Engine, db *sqlx.DB, cfg *config.Config) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			// Aggressive no-cache for development; polling clients must never
			// see a stale snapshot out of a browser cache.
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	roomManager := game.NewRoomManager(db)
	roundManager := game.NewRoundManager(db)
	messageService := game.NewMessageService(db)
	indicatorService := game.NewIndicatorService(db)
	snapshotBuilder := game.NewSnapshotBuilder(db)
	summaryBuilder := game.NewSummaryBuilder(db)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.POST("", handlers.CreateRoom(roomManager))
			rooms.GET("", handlers.ListRooms(roomManager))

			rooms.GET("/:room_id", handlers.GetRoomStatus(roomManager))
			rooms.DELETE("/:room_id", handlers.DeleteRoom(roomManager))
			rooms.POST("/:room_id/join", handlers.JoinRoom(roomManager))

			rooms.POST("/:room_id/start", handlers.StartGame(roomManager))
			rooms.POST("/:room_id/rounds/next", handlers.NextRound(roomManager))
			rooms.POST("/:room_id/end", handlers.EndGame(roomManager))
			rooms.GET("/:room_id/summary", handlers.GetSummary(summaryBuilder))
			rooms.GET("/:room_id/state", handlers.GetState(snapshotBuilder))

			rooms.GET("/:room_id/rounds/current", handlers.GetCurrentRound(roundManager))
			rooms.GET("/:room_id/rounds/:round_number/pair", handlers.GetPair(roundManager))
			rooms.POST("/:room_id/rounds/:round_number/action", handlers.SubmitAction(roundManager))
			rooms.POST("/:room_id/rounds/:round_number/publish", handlers.PublishRound(roundManager))
			rooms.POST("/:room_id/rounds/:round_number/skip", handlers.SkipRound(roundManager))
			rooms.GET("/:room_id/rounds/:round_number/result", handlers.GetResult(roundManager))
			rooms.POST("/:room_id/rounds/:round_number/message", handlers.SendMessage(messageService))
			rooms.GET("/:room_id/rounds/:round_number/message", handlers.GetMessage(messageService))

			rooms.POST("/:room_id/indicators/assign", handlers.AssignIndicators(indicatorService))
			rooms.GET("/:room_id/indicator", handlers.GetIndicator(indicatorService))
		}
	}
}
