package grid

import "fmt"

// TowerFootprint is the 13-cell capture neighborhood of a tower, as offsets
// from the tower's own cell.
var TowerFootprint = [13]Point{
	{-2, 0}, {-1, -1}, {-1, 0}, {-1, 1},
	{0, -2}, {0, -1}, {0, 0}, {0, 1}, {0, 2},
	{1, -1}, {1, 0}, {1, 1}, {2, 0},
}

// Footprint returns the in-bounds cells captured by a tower at center.
func (g *Grid) Footprint(center Point) []Point {
	out := make([]Point, 0, len(TowerFootprint))
	for _, d := range TowerFootprint {
		if p := center.Add(d); g.InBounds(p) {
			out = append(out, p)
		}
	}
	return out
}

// CostTable exposes the base cost of each buildable structure type. The
// actual price of a build is the base cost times the cell's passability.
type CostTable interface {
	BaseCost(t StructureType) float64
}

// Costs is a CostTable backed by a map. Missing types cost nothing.
type Costs map[StructureType]float64

func (c Costs) BaseCost(t StructureType) float64 { return c[t] }

// DefaultCosts matches the hosting engine's standard structure prices.
var DefaultCosts = Costs{Road: 10, Tower: 250}

// BuildCost is the money charged for building t on p.
func BuildCost(g *Grid, costs CostTable, t StructureType, p Point) float64 {
	return costs.BaseCost(t) * g.At(p).Passability
}

// BuildError describes why a build request is illegal.
type BuildError struct {
	Type    StructureType
	At      Point
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot build %s at %s: %s", e.Type, e.At, e.Message)
}

// ValidateBuild checks the build legality rule: the cell is on the grid and
// empty, the money covers the passability-scaled cost, and at least one
// 4-neighbor holds a structure owned by the building team. Returns nil when
// the build is legal.
func ValidateBuild(n *Network, costs CostTable, money float64, t StructureType, p Point) error {
	g := n.Grid()
	if t == Generator {
		return &BuildError{t, p, "generators cannot be built"}
	}
	if !g.InBounds(p) {
		return &BuildError{t, p, "out of bounds"}
	}
	if !n.Empty(p) {
		return &BuildError{t, p, "cell is occupied"}
	}
	if cost := BuildCost(g, costs, t, p); money < cost {
		return &BuildError{t, p, fmt.Sprintf("costs %.2f, only %.2f available", cost, money)}
	}
	if !n.AdjacentToOwn(p) {
		return &BuildError{t, p, "not adjacent to the network"}
	}
	return nil
}
