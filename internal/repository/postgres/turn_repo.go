package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/towerline/internal/model"
)

// TurnRepo handles the turn log.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// Save inserts a decided turn, replacing an earlier decision for the same
// match, team and turn. It fills in ID and CreatedAt.
func (r *TurnRepo) Save(ctx context.Context, rec *model.TurnRecord) error {
	actions := rec.Actions
	if actions == nil {
		actions = []model.BuildAction{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	var tx, ty sql.NullInt64
	if rec.Target != nil {
		tx = sql.NullInt64{Int64: int64(rec.Target.X), Valid: true}
		ty = sql.NullInt64{Int64: int64(rec.Target.Y), Valid: true}
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO turns (match_id, team, turn, money_before, spent, money_left, target_x, target_y, candidates, fallback, actions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (match_id, team, turn) DO UPDATE SET
		   money_before = EXCLUDED.money_before,
		   spent = EXCLUDED.spent,
		   money_left = EXCLUDED.money_left,
		   target_x = EXCLUDED.target_x,
		   target_y = EXCLUDED.target_y,
		   candidates = EXCLUDED.candidates,
		   fallback = EXCLUDED.fallback,
		   actions = EXCLUDED.actions,
		   created_at = now()
		 RETURNING id, created_at`,
		rec.MatchID, rec.Team, rec.Turn, rec.MoneyBefore, rec.Spent, rec.MoneyLeft, tx, ty, rec.Candidates, rec.Fallback, actionsJSON,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// ListByMatch returns every logged turn of a match, ordered by turn then team.
func (r *TurnRepo) ListByMatch(ctx context.Context, matchID string) ([]model.TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, match_id, team, turn, money_before, spent, money_left, target_x, target_y, candidates, fallback, actions, created_at
		 FROM turns WHERE match_id = $1
		 ORDER BY turn, team`, matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var recs []model.TurnRecord
	for rows.Next() {
		var rec model.TurnRecord
		var tx, ty sql.NullInt64
		var actionsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.MatchID, &rec.Team, &rec.Turn, &rec.MoneyBefore, &rec.Spent, &rec.MoneyLeft,
			&tx, &ty, &rec.Candidates, &rec.Fallback, &actionsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if tx.Valid && ty.Valid {
			rec.Target = &model.Coord{X: int(tx.Int64), Y: int(ty.Int64)}
		}
		if err := json.Unmarshal(actionsJSON, &rec.Actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteMatch removes the whole log of a match.
func (r *TurnRepo) DeleteMatch(ctx context.Context, matchID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM turns WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete match turns: %w", err)
	}
	return nil
}
