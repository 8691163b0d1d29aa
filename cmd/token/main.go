// Command token mints a bearer token for an engine client.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/internal/auth"
	"github.com/freeeve/towerline/internal/config"
	"github.com/freeeve/towerline/internal/logger"
)

func main() {
	logger.Init()
	client := flag.String("client", "", "client ID to embed in the token")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	if *client == "" {
		fmt.Fprintln(os.Stderr, "usage: token -client <id> [-ttl 720h]")
		os.Exit(2)
	}

	cfg := config.Load()
	tok, err := auth.NewJWTManager(cfg.JWTSecret).GenerateToken(*client, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Token generation failed")
	}
	fmt.Println(tok)
}
