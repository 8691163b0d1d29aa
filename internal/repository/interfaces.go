package repository

import (
	"context"
	"time"

	"github.com/freeeve/towerline/internal/model"
)

// TurnRepository stores the log of decided turns.
type TurnRepository interface {
	Save(ctx context.Context, rec *model.TurnRecord) error
	ListByMatch(ctx context.Context, matchID string) ([]model.TurnRecord, error)
	DeleteMatch(ctx context.Context, matchID string) error
}

// SetupCache holds each match's encoded per-team setup (Redis).
type SetupCache interface {
	GetSetup(ctx context.Context, matchID, team string) ([]byte, error)
	SetSetup(ctx context.Context, matchID, team string, data []byte, ttl time.Duration) error
	DeleteSetups(ctx context.Context, matchID string) error
}
