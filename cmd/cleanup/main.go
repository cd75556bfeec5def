package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/YC815/chicken-game-backend/internal/config"
	"github.com/YC815/chicken-game-backend/internal/database"
	"github.com/YC815/chicken-game-backend/internal/game"
)

// One-shot retention sweep for operators: runs both cleanup passes once and
// exits. The server runs the same sweeps on a timer.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	game.RunCleanup(context.Background(), db, cfg)
}
