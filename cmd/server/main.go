package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/internal/auth"
	"github.com/freeeve/towerline/internal/bot"
	"github.com/freeeve/towerline/internal/config"
	"github.com/freeeve/towerline/internal/handler"
	"github.com/freeeve/towerline/internal/logger"
	"github.com/freeeve/towerline/internal/middleware"
	"github.com/freeeve/towerline/internal/repository/postgres"
	redisrepo "github.com/freeeve/towerline/internal/repository/redis"
	"github.com/freeeve/towerline/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Str("preset", cfg.TuningPreset).Msg("Config loaded")

	tuning, err := bot.ResolveTuning(cfg.TuningPreset, cfg.TuningPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid planner tuning")
	}

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	planner := bot.NewPlanner(tuning)
	turnSvc := service.NewTurnService(planner, postgres.NewTurnRepo(db), redisClient, cfg.SetupTTL)
	hub := handler.NewHub()
	turnSvc.SetBroadcaster(hub)
	turnHandler := handler.NewTurnHandler(turnSvc)
	watchHandler := handler.NewWatchHandler(hub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	mux.HandleFunc("GET /healthz", handler.Health)

	api := http.NewServeMux()
	api.HandleFunc("POST /matches/{id}/turns", turnHandler.DecideTurn)
	api.HandleFunc("GET /matches/{id}/turns", turnHandler.ListTurns)
	api.HandleFunc("DELETE /matches/{id}", turnHandler.EndMatch)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// Watch (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/matches/{id}/watch", watchHandler.Watch)

	root := middleware.Chain(mux,
		middleware.MaxBody(cfg.MaxBodyBytes),
		middleware.Logger,
		middleware.CORS("*"),
		middleware.JSON,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("player", planner.Name()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
