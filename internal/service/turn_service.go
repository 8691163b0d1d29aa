package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freeeve/towerline/internal/bot"
	"github.com/freeeve/towerline/internal/logger"
	"github.com/freeeve/towerline/internal/model"
	"github.com/freeeve/towerline/internal/repository"
	"github.com/freeeve/towerline/pkg/grid"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrInvalidSnapshot = grid.ErrInvalidSnapshot
	ErrInvariant       = bot.ErrInvariant
)

// TurnService decides turns on behalf of remote engines. The per-match setup
// lives in the setup cache so any replica can serve any turn; every decision
// is written to the turn log.
type TurnService struct {
	player   bot.Player
	turnRepo repository.TurnRepository
	setups   repository.SetupCache
	setupTTL time.Duration
	events   Broadcaster
}

// NewTurnService creates a TurnService.
func NewTurnService(player bot.Player, turnRepo repository.TurnRepository, setups repository.SetupCache, setupTTL time.Duration) *TurnService {
	return &TurnService{player: player, turnRepo: turnRepo, setups: setups, setupTTL: setupTTL, events: NoopBroadcaster{}}
}

// SetBroadcaster sets the sink for turn_decided and match_ended events.
func (s *TurnService) SetBroadcaster(b Broadcaster) {
	s.events = b
}

// DecideTurn decodes a raw snapshot, plans the turn, and logs the result.
func (s *TurnService) DecideTurn(ctx context.Context, matchID string, snapshot []byte) (*model.TurnRecord, error) {
	snap, err := grid.DecodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	lg := logger.ForTurn(matchID, string(snap.Team), snap.Turn)

	cached := s.loadSetup(ctx, matchID, snap.Team)
	report, err := s.player.DecideTurn(&bot.TurnContext{
		MatchID: matchID,
		Turn:    snap.Turn,
		Team:    snap.Team,
		Money:   snap.Money,
		Grid:    snap.Grid,
		Setup:   cached,
	})
	if err != nil {
		return nil, fmt.Errorf("decide turn: %w", err)
	}

	if report.Setup != nil && report.Setup != cached {
		if err := s.storeSetup(ctx, matchID, report.Setup); err != nil {
			lg.Warn().Err(err).Msg("Failed to cache setup")
		}
	}

	rec := recordFromReport(matchID, report)
	if err := s.turnRepo.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.events.BroadcastMatchEvent(matchID, EventTurnDecided, rec)
	return rec, nil
}

// ListTurns returns the logged turns of a match.
func (s *TurnService) ListTurns(ctx context.Context, matchID string) ([]model.TurnRecord, error) {
	recs, err := s.turnRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrMatchNotFound
	}
	return recs, nil
}

// EndMatch drops the match's cached setups and its turn log.
func (s *TurnService) EndMatch(ctx context.Context, matchID string) error {
	if err := s.setups.DeleteSetups(ctx, matchID); err != nil {
		return fmt.Errorf("delete setups: %w", err)
	}
	if err := s.turnRepo.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	s.events.BroadcastMatchEvent(matchID, EventMatchEnded, nil)
	return nil
}

// loadSetup returns the cached setup, or nil on a miss. Cache failures only
// cost a recomputation, so they are logged and swallowed.
func (s *TurnService) loadSetup(ctx context.Context, matchID string, team grid.Team) *bot.Setup {
	data, err := s.setups.GetSetup(ctx, matchID, string(team))
	if err != nil {
		log := logger.ForRequest(ctx)
		log.Warn().Err(err).Str("matchId", matchID).Msg("Setup cache read failed")
		return nil
	}
	if data == nil {
		return nil
	}
	setup, err := bot.DecodeSetup(data)
	if err != nil {
		log := logger.ForRequest(ctx)
		log.Warn().Err(err).Str("matchId", matchID).Msg("Discarding undecodable setup")
		return nil
	}
	return setup
}

func (s *TurnService) storeSetup(ctx context.Context, matchID string, setup *bot.Setup) error {
	data, err := bot.EncodeSetup(setup)
	if err != nil {
		return err
	}
	return s.setups.SetSetup(ctx, matchID, string(setup.Team), data, s.setupTTL)
}

func recordFromReport(matchID string, r *bot.TurnReport) *model.TurnRecord {
	rec := &model.TurnRecord{
		MatchID:     matchID,
		Team:        string(r.Team),
		Turn:        r.Turn,
		MoneyBefore: r.MoneyBefore,
		Spent:       r.Spent,
		MoneyLeft:   r.MoneyLeft,
		Candidates:  r.Candidates,
		Fallback:    r.Fallback,
		Actions:     make([]model.BuildAction, 0, len(r.Actions)),
	}
	if r.Target != nil {
		rec.Target = &model.Coord{X: r.Target.X, Y: r.Target.Y}
	}
	for _, a := range r.Actions {
		rec.Actions = append(rec.Actions, model.BuildAction{
			Type: a.Type.String(),
			X:    a.At.X,
			Y:    a.At.Y,
			Cost: a.Cost,
		})
	}
	return rec
}
