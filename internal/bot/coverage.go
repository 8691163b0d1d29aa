package bot

import "github.com/freeeve/towerline/pkg/grid"

// Coverage tracks how much population is still capturable on each cell
// during one turn. It starts from the snapshot's population with every own
// tower's footprint already zeroed, and every tower committed this turn
// zeroes its own footprint immediately.
type Coverage struct {
	g         *grid.Grid
	remaining []int
}

// NewCoverage derives this turn's coverage from the network's grid.
func NewCoverage(n *grid.Network) *Coverage {
	g := n.Grid()
	c := &Coverage{g: g, remaining: make([]int, g.Size())}
	for i := range c.remaining {
		c.remaining[i] = g.At(g.PointAt(i)).Population
	}
	for _, p := range n.Cells(grid.Own, grid.KindTower) {
		c.Capture(p)
	}
	return c
}

// Remaining returns the uncaptured population on p.
func (c *Coverage) Remaining(p grid.Point) int {
	if !c.g.InBounds(p) {
		return 0
	}
	return c.remaining[c.g.Index(p)]
}

// FootprintSum is the population a tower at center would capture now.
func (c *Coverage) FootprintSum(center grid.Point) int {
	total := 0
	for _, p := range c.g.Footprint(center) {
		total += c.remaining[c.g.Index(p)]
	}
	return total
}

// Capture zeroes the footprint of a tower at center.
func (c *Coverage) Capture(center grid.Point) {
	for _, p := range c.g.Footprint(center) {
		c.remaining[c.g.Index(p)] = 0
	}
}

// Captured reports whether p holds population this team already covers.
func (c *Coverage) Captured(p grid.Point) bool {
	return c.g.InBounds(p) && c.g.At(p).Population > 0 && c.remaining[c.g.Index(p)] == 0
}

// NearCaptured reports whether any cell of the footprint around center is Captured.
func (c *Coverage) NearCaptured(center grid.Point) bool {
	for _, p := range c.g.Footprint(center) {
		if c.Captured(p) {
			return true
		}
	}
	return false
}
