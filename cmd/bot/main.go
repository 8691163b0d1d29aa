package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/internal/bot"
	"github.com/freeeve/towerline/internal/config"
)

func main() {
	cfg := config.Load()
	url := flag.String("url", cfg.EngineURL, "engine websocket URL")
	token := flag.String("token", cfg.EngineToken, "bearer token for the engine")
	name := flag.String("name", cfg.AgentName, "agent name announced to the engine")
	preset := flag.String("preset", cfg.TuningPreset, "tuning preset (standard, classic)")
	tuningPath := flag.String("tuning", cfg.TuningPath, "YAML tuning file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	tuning, err := bot.ResolveTuning(*preset, *tuningPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid planner tuning")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	client := bot.NewClient(*name, *url, *token)
	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	err = client.Connect(dialCtx)
	dialCancel()
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("Engine connection failed")
	}
	defer client.Close()

	orch := bot.NewOrchestrator(client, bot.NewPlanner(tuning))
	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Agent failed")
	}
	log.Info().Msg("Agent finished")
}
