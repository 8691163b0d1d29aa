package bot

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/freeeve/towerline/internal/logger"
	"github.com/freeeve/towerline/pkg/grid"
)

// Planner is the greedy single-turn build planner. It roads a path toward the
// best-ranked cell, places a tower there, sweeps for further towers, and
// falls back to fortifying captured population when nothing is worth taking.
type Planner struct {
	tuning Tuning
	costs  grid.Costs
	scorer *Scorer
}

// NewPlanner creates a planner running with the given tuning.
func NewPlanner(t Tuning) *Planner {
	costs := t.Costs.Table()
	return &Planner{
		tuning: t,
		costs:  costs,
		scorer: &Scorer{Tuning: t, Costs: costs},
	}
}

func (p *Planner) Name() string {
	if p.tuning.Preset == "" {
		return "planner"
	}
	return "planner-" + p.tuning.Preset
}

// Tuning returns the planner's tuning.
func (p *Planner) Tuning() Tuning { return p.tuning }

// DecideTurn runs one full decision pass. Every build is validated locally,
// handed to the Builder, and committed before the next decision is made.
func (p *Planner) DecideTurn(tc *TurnContext) (*TurnReport, error) {
	if tc == nil || tc.Grid == nil {
		return nil, fmt.Errorf("%w: turn context without a grid", ErrInvariant)
	}
	if tc.Money < 0 || math.IsNaN(tc.Money) {
		return nil, fmt.Errorf("%w: starting money %v", ErrInvariant, tc.Money)
	}
	lg := logger.ForTurn(tc.MatchID, string(tc.Team), tc.Turn)

	setup := tc.Setup
	if !setup.Matches(tc.Grid, tc.Team) {
		setup = NewSetup(tc.Grid, tc.Team)
	}

	net := grid.Rebuild(tc.Grid, tc.Team)
	cov := NewCoverage(net)
	dist, prev := grid.ShortestPaths(tc.Grid, net.OwnCells(), net.Empty)

	cands := p.scorer.Rank(ScoreInput{
		Network:     net,
		NetworkDist: dist,
		Setup:       setup,
		Coverage:    cov,
		Turn:        tc.Turn,
	})

	ex := &execution{
		net:     net,
		cov:     cov,
		costs:   p.costs,
		builder: tc.Builder,
		money:   tc.Money,
		actions: []Action{},
		log:     lg,
	}
	report := &TurnReport{
		Turn:        tc.Turn,
		Team:        tc.Team,
		MoneyBefore: tc.Money,
		Candidates:  len(cands),
		Setup:       setup,
	}

	if len(cands) == 0 {
		if p.tuning.Fallback {
			report.Fallback = true
			if err := ex.fortify(dist, math.Inf(1)); err != nil {
				return nil, err
			}
		}
	} else {
		target := cands[0].At
		report.Target = &target
		if err := p.buildTowards(ex, dist, prev, target, tc.Turn); err != nil {
			return nil, err
		}
		if err := ex.sweepTowers(); err != nil {
			return nil, err
		}
		if p.tuning.Fallback && tc.Turn >= p.tuning.LateGameTurn {
			if err := ex.fortify(dist, p.tuning.LateFortifyCap); err != nil {
				return nil, err
			}
		}
	}

	report.Actions = ex.actions
	report.Spent = ex.spent
	report.MoneyLeft = ex.money

	ev := lg.Info().Int("actions", len(ex.actions)).Float64("spent", ex.spent).Float64("moneyLeft", ex.money)
	if report.Target != nil {
		ev = ev.Str("target", report.Target.String())
	}
	ev.Bool("fallback", report.Fallback).Msg("Turn decided")
	return report, nil
}

// buildTowards roads the predecessor chain from the network out to target
// and finishes with a tower on target. Past the opening, roads are only laid
// while the purse still covers the target's tower.
func (p *Planner) buildTowards(ex *execution, dist *grid.DistanceField, prev *grid.PredecessorField, target grid.Point, turn int) error {
	path, ok := prev.PathTo(dist, target)
	if !ok {
		return fmt.Errorf("%w: no predecessor chain to %s", ErrInvariant, target)
	}
	gate := 0.0
	if !p.tuning.early(turn) {
		gate = grid.BuildCost(ex.net.Grid(), p.costs, grid.Tower, target)
	}
	for _, cell := range path {
		if cell == target {
			if _, err := ex.try(grid.Tower, cell); err != nil {
				return err
			}
			continue
		}
		if ex.money < gate {
			continue
		}
		if _, err := ex.try(grid.Road, cell); err != nil {
			return err
		}
	}
	return nil
}

// execution is the mutable state of one decision pass.
type execution struct {
	net     *grid.Network
	cov     *Coverage
	costs   grid.Costs
	builder Builder
	money   float64
	spent   float64
	actions []Action
	log     zerolog.Logger
}

// try validates, forwards and commits a single build. It reports whether the
// build happened; a skipped build is not an error.
func (ex *execution) try(t grid.StructureType, p grid.Point) (bool, error) {
	if err := grid.ValidateBuild(ex.net, ex.costs, ex.money, t, p); err != nil {
		ex.log.Debug().Err(err).Msg("Build skipped")
		return false, nil
	}
	if t == grid.Tower && ex.cov.FootprintSum(p) == 0 {
		ex.log.Debug().Str("at", p.String()).Msg("Tower skipped, nothing left to capture")
		return false, nil
	}
	cost := grid.BuildCost(ex.net.Grid(), ex.costs, t, p)
	if ex.builder != nil {
		if err := ex.builder.Build(t, p); err != nil {
			ex.log.Debug().Err(err).Str("type", t.String()).Str("at", p.String()).Msg("Build refused by engine")
			return false, nil
		}
	}

	ex.money -= cost
	ex.spent += cost
	if ex.money < 0 {
		return false, fmt.Errorf("%w: money went negative (%.2f) after %s at %s", ErrInvariant, ex.money, t, p)
	}
	ex.net.Commit(p, t)
	if t == grid.Tower {
		ex.cov.Capture(p)
	}
	ex.actions = append(ex.actions, Action{Type: t, At: p, Cost: cost})
	ex.log.Debug().Str("type", t.String()).Str("at", p.String()).Float64("cost", cost).Float64("moneyLeft", ex.money).Msg("Build committed")
	return true, nil
}

// sweepTowers repeatedly places a tower on the legal cell with the most
// uncaptured population, re-ranking after every build, until no legal cell
// would capture anything. Cells the engine refuses are not offered again.
func (ex *execution) sweepTowers() error {
	g := ex.net.Grid()
	refused := make(map[grid.Point]bool)
	for {
		best, bestPop, found := grid.Point{}, 0, false
		for _, p := range g.Points() {
			if refused[p] || grid.ValidateBuild(ex.net, ex.costs, ex.money, grid.Tower, p) != nil {
				continue
			}
			pop := ex.cov.FootprintSum(p)
			if pop > bestPop {
				best, bestPop, found = p, pop, true
			}
		}
		if !found {
			return nil
		}
		built, err := ex.try(grid.Tower, best)
		if err != nil {
			return err
		}
		if !built {
			refused[best] = true
		}
	}
}

// fortify roads empty, network-reachable cells whose footprint touches
// population this team already captures, nearest first, without letting the
// pass spend more than limit.
func (ex *execution) fortify(dist *grid.DistanceField, limit float64) error {
	if limit <= 0 {
		return nil
	}
	g := ex.net.Grid()
	var cells []grid.Point
	for _, p := range g.Points() {
		if ex.net.Empty(p) && dist.Reachable(p) && ex.cov.NearCaptured(p) {
			cells = append(cells, p)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		di, dj := dist.At(cells[i]), dist.At(cells[j])
		if di != dj {
			return di < dj
		}
		return cells[i].Less(cells[j])
	})

	var used float64
	for _, p := range cells {
		cost := grid.BuildCost(g, ex.costs, grid.Road, p)
		if used+cost > limit {
			continue
		}
		built, err := ex.try(grid.Road, p)
		if err != nil {
			return err
		}
		if built {
			used += cost
		}
	}
	return nil
}
