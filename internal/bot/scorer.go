package bot

import (
	"math"
	"sort"

	"github.com/freeeve/towerline/pkg/grid"
)

// Candidate is an empty cell worth placing a tower on, with the three signals
// that make up its composite score.
type Candidate struct {
	At         grid.Point
	Score      float64
	Population float64 // footprint population / (13 × norm)
	Cost       float64 // 1 − normalized connection cost
	Position   float64
}

// ScoreInput is the per-turn state the scorer reads.
type ScoreInput struct {
	Network     *grid.Network
	NetworkDist *grid.DistanceField
	Setup       *Setup
	Coverage    *Coverage
	Turn        int
}

// Scorer ranks build sites by composite desirability.
type Scorer struct {
	Tuning Tuning
	Costs  grid.CostTable
}

// Rank returns every eligible cell ordered best first. A cell is eligible
// when it is empty, reachable from the network, and its footprint still holds
// uncaptured population. Equal scores fall back to the population standing on
// the cell itself, then to ascending coordinates.
func (s *Scorer) Rank(in ScoreInput) []Candidate {
	g := in.Network.Grid()
	norm := float64(len(grid.TowerFootprint)) * s.Tuning.PopulationNorm
	roadCost := s.Costs.BaseCost(grid.Road)
	towerCost := s.Costs.BaseCost(grid.Tower)

	var out []Candidate
	var costs []float64
	maxCost := 0.0
	for _, p := range g.Points() {
		if !in.Network.Empty(p) || !in.NetworkDist.Reachable(p) {
			continue
		}
		pop := float64(in.Coverage.FootprintSum(p)) / norm
		if pop <= 0 {
			continue
		}
		cost := in.NetworkDist.At(p)*roadCost + g.At(p).Passability*towerCost
		maxCost = math.Max(maxCost, cost)
		out = append(out, Candidate{At: p, Population: pop})
		costs = append(costs, cost)
	}

	span := float64(g.Width + g.Height)
	early := s.Tuning.early(in.Turn)
	for i := range out {
		c := &out[i]
		c.Cost = 1
		if maxCost > 0 {
			c.Cost = 1 - costs[i]/maxCost
		}
		if early {
			c.Position = s.openingPosition(in.Setup, c.At, span)
		} else {
			c.Position = 1 - in.NetworkDist.At(c.At)/span
		}
		c.Score = s.Tuning.PopulationWeight*c.Population +
			s.Tuning.CostWeight*c.Cost +
			s.Tuning.PositionWeight*c.Position
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		pa, pb := g.At(a.At).Population, g.At(b.At).Population
		if pa != pb {
			return pa > pb
		}
		return a.At.Less(b.At)
	})
	return out
}

func (s *Scorer) openingPosition(setup *Setup, p grid.Point, span float64) float64 {
	own := setup.OwnGeneratorDist.At(p)
	enemy := setup.EnemyGeneratorDist.At(p)
	if math.IsInf(own, 1) || math.IsInf(enemy, 1) {
		return 0
	}
	gap := enemy - s.Tuning.EnemyDistanceScale*own
	if s.Tuning.PositionMode == PositionBalance {
		gap = math.Abs(gap)
	}
	return 1 - gap/span
}
