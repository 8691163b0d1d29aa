package bot

import (
	"encoding/json"
	"errors"

	"github.com/freeeve/towerline/pkg/grid"
)

var (
	// ErrInvariant marks an internal inconsistency that aborts the turn.
	ErrInvariant = errors.New("planner invariant violated")
	// ErrInsufficientFunds is returned by a Builder that refuses a build it
	// cannot charge for.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Player decides one turn at a time. The hosting engine (or the service
// acting for it) calls DecideTurn once per turn with a fresh context.
type Player interface {
	Name() string
	DecideTurn(tc *TurnContext) (*TurnReport, error)
}

// Builder forwards a build to the hosting engine. A non-nil error means the
// engine refused it and nothing changed.
type Builder interface {
	Build(t grid.StructureType, p grid.Point) error
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(t grid.StructureType, p grid.Point) error

func (f BuilderFunc) Build(t grid.StructureType, p grid.Point) error { return f(t, p) }

// TurnContext is everything one decision pass needs. It is built fresh for
// every turn and discarded afterwards.
type TurnContext struct {
	MatchID string
	Turn    int
	Team    grid.Team
	Money   float64
	Grid    *grid.Grid

	// Setup is the cached per-match setup. When nil, or computed for a
	// different board, the planner derives it from Grid.
	Setup *Setup
	// Builder receives each build as it is committed. Nil means the actions
	// are only reported.
	Builder Builder
}

// Action is one committed build.
type Action struct {
	Type grid.StructureType
	At   grid.Point
	Cost float64
}

type actionJSON struct {
	Type string  `json:"type"`
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Cost float64 `json:"cost"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionJSON{Type: a.Type.String(), X: a.At.X, Y: a.At.Y, Cost: a.Cost})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w actionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := grid.ParseStructureType(w.Type)
	if err != nil {
		return err
	}
	*a = Action{Type: t, At: grid.Point{X: w.X, Y: w.Y}, Cost: w.Cost}
	return nil
}

// TurnReport summarizes a decided turn.
type TurnReport struct {
	Turn        int         `json:"turn"`
	Team        grid.Team   `json:"team"`
	Actions     []Action    `json:"actions"`
	MoneyBefore float64     `json:"money_before"`
	Spent       float64     `json:"spent"`
	MoneyLeft   float64     `json:"money_left"`
	Target      *grid.Point `json:"target,omitempty"` // top-ranked cell, nil when nothing was eligible
	Candidates  int         `json:"candidates"`
	Fallback    bool        `json:"fallback"` // the defensive connector pass ran instead of a target
	Setup       *Setup      `json:"-"`
}
