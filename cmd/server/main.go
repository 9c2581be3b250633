package main

import (
	"log"

	"github.com/mfelden/tripwatch-backend-go/internal/api"
	"github.com/mfelden/tripwatch-backend-go/internal/config"
	"github.com/mfelden/tripwatch-backend-go/internal/database"
	"github.com/mfelden/tripwatch-backend-go/internal/detection"
	"github.com/mfelden/tripwatch-backend-go/internal/handler"
	"github.com/mfelden/tripwatch-backend-go/internal/repository"
	"github.com/mfelden/tripwatch-backend-go/internal/service"
	"github.com/mfelden/tripwatch-backend-go/internal/stream"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	tripRepo := repository.NewTripRepository(db)
	tripService := service.NewTripService(tripRepo)

	engine := detection.NewEngine(detection.DefaultConfig(), tripRepo)
	engine.Start()
	defer engine.Stop()

	hub := stream.NewHub()
	engine.Subscribe(hub.Broadcast)

	router := api.SetupRouter(cfg, api.Handlers{
		Engine: handler.NewEngineHandler(engine),
		Trip:   handler.NewTripHandler(tripService),
		Stream: handler.NewStreamHandler(hub),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
