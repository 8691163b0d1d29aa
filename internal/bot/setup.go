package bot

import "github.com/freeeve/towerline/pkg/grid"

// Setup is the per-match data computed once from the opening snapshot:
// where each side's generators stand and how far every cell is from them.
// Generators never move, so it stays valid for the whole match.
type Setup struct {
	Team   grid.Team
	Width  int
	Height int

	OwnGenerators   []grid.Point
	EnemyGenerators []grid.Point

	OwnGeneratorDist   *grid.DistanceField
	EnemyGeneratorDist *grid.DistanceField
}

// NewSetup computes the setup for team from any snapshot of the match.
// Traversal only avoids generator cells, which makes the result the same
// whether it is computed at turn zero or recomputed later from a board that
// already carries roads and towers.
func NewSetup(g *grid.Grid, team grid.Team) *Setup {
	notGenerator := func(p grid.Point) bool {
		s := g.At(p).Structure
		return s == nil || s.Type != grid.Generator
	}
	own := g.Generators(team, true)
	enemy := g.Generators(team, false)
	return &Setup{
		Team:               team,
		Width:              g.Width,
		Height:             g.Height,
		OwnGenerators:      own,
		EnemyGenerators:    enemy,
		OwnGeneratorDist:   grid.Distances(g, own, notGenerator),
		EnemyGeneratorDist: grid.Distances(g, enemy, notGenerator),
	}
}

// Matches reports whether the setup was computed for this board and team.
func (s *Setup) Matches(g *grid.Grid, team grid.Team) bool {
	return s != nil && s.Team == team && s.Width == g.Width && s.Height == g.Height &&
		s.OwnGeneratorDist != nil && s.EnemyGeneratorDist != nil
}
