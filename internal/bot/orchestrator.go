package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/pkg/grid"
)

// Orchestrator plays every match the engine sends over one client
// connection: each turn event is decoded, decided, and answered with a build
// message.
type Orchestrator struct {
	client *Client
	player Player
	setups map[string]*Setup
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(client *Client, player Player) *Orchestrator {
	return &Orchestrator{
		client: client,
		player: player,
		setups: make(map[string]*Setup),
	}
}

// Run consumes engine events until the context is cancelled or the
// connection closes.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("agent", o.client.Name()).Str("player", o.player.Name()).Msg("Waiting for turns")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping agent")
			return ctx.Err()
		case event, ok := <-o.client.Events():
			if !ok {
				log.Info().Msg("Engine connection closed")
				return nil
			}
			switch event.Type {
			case EventTurn:
				if err := o.playTurn(event); err != nil {
					log.Error().Err(err).Str("matchId", event.MatchID).Msg("Turn failed")
				}
			case EventMatchEnded:
				delete(o.setups, event.MatchID)
				log.Info().Str("matchId", event.MatchID).Msg("Match ended")
			default:
				log.Debug().Str("type", event.Type).Msg("Ignoring event")
			}
		}
	}
}

// playTurn decides one turn. A turn that cannot be decided is still
// answered, with no actions, so the engine does not wait on it. A snapshot
// too broken to carry a turn number gets no reply.
func (o *Orchestrator) playTurn(event Event) error {
	snap, err := grid.DecodeSnapshot(event.Data)
	if err != nil {
		turn, ok := peekTurn(event.Data)
		if !ok {
			return err
		}
		if sendErr := o.client.SendBuild(event.MatchID, turn, nil); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return fmt.Errorf("turn %d: %w", turn, err)
	}

	report, err := o.player.DecideTurn(&TurnContext{
		MatchID: event.MatchID,
		Turn:    snap.Turn,
		Team:    snap.Team,
		Money:   snap.Money,
		Grid:    snap.Grid,
		Setup:   o.setups[event.MatchID],
	})
	if err != nil {
		if sendErr := o.client.SendBuild(event.MatchID, snap.Turn, nil); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return fmt.Errorf("decide turn %d: %w", snap.Turn, err)
	}
	o.setups[event.MatchID] = report.Setup

	if err := o.client.SendBuild(event.MatchID, snap.Turn, report.Actions); err != nil {
		return fmt.Errorf("send build: %w", err)
	}
	return nil
}

// peekTurn reads just the turn number from a snapshot that failed validation.
func peekTurn(data []byte) (int, bool) {
	var head struct {
		Turn *int `json:"turn"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Turn == nil || *head.Turn < 0 {
		return 0, false
	}
	return *head.Turn, true
}
