// Package grid models one turn of the territorial-control board: a weighted
// W×H grid of cells, the structures standing on it, the shortest-path engine
// that measures distances over empty cells, and the per-team network
// classification rebuilt from each snapshot.
package grid

import "fmt"

// Team identifies the owner of a structure.
type Team string

const NoTeam Team = ""

// StructureType is the kind of structure occupying a cell.
type StructureType int

const (
	Generator StructureType = iota
	Road
	Tower
)

func (t StructureType) String() string {
	switch t {
	case Generator:
		return "generator"
	case Road:
		return "road"
	case Tower:
		return "tower"
	}
	return fmt.Sprintf("structure(%d)", int(t))
}

// ParseStructureType converts a wire name into a StructureType.
func ParseStructureType(s string) (StructureType, error) {
	switch s {
	case "generator":
		return Generator, nil
	case "road":
		return Road, nil
	case "tower":
		return Tower, nil
	}
	return 0, fmt.Errorf("unknown structure type %q", s)
}

// Structure is a building owned by one team.
type Structure struct {
	Team Team
	Type StructureType
}

// Point is a cell coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(d Point) Point { return Point{p.X + d.X, p.Y + d.Y} }

// Less orders points by x, then y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Cardinal lists the four moves of the 4-connected grid.
var Cardinal = [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Cell is a single square of the board.
type Cell struct {
	Passability float64 // traversal weight and build cost multiplier, always > 0
	Population  int
	Structure   *Structure
}

// Grid is an immutable per-turn snapshot of the board. Cells are stored
// row-major (index y*Width+x).
type Grid struct {
	Width  int
	Height int
	cells  []Cell
}

// New returns a Width×Height grid of empty cells with passability 1.
func New(width, height int) *Grid {
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i].Passability = 1
	}
	return &Grid{Width: width, Height: height, cells: cells}
}

// Size is the number of cells.
func (g *Grid) Size() int { return g.Width * g.Height }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// Index returns the dense index of an in-bounds point.
func (g *Grid) Index(p Point) int { return p.Y*g.Width + p.X }

// PointAt is the inverse of Index.
func (g *Grid) PointAt(i int) Point { return Point{i % g.Width, i / g.Width} }

// At returns the cell at p. It panics on out-of-bounds points, like a slice.
func (g *Grid) At(p Point) *Cell { return &g.cells[g.Index(p)] }

// Empty reports whether p is on the grid and holds no structure.
func (g *Grid) Empty(p Point) bool {
	return g.InBounds(p) && g.cells[g.Index(p)].Structure == nil
}

// SetPassability sets the traversal weight of a cell.
func (g *Grid) SetPassability(p Point, w float64) { g.At(p).Passability = w }

// SetPopulation sets the claimable population of a cell.
func (g *Grid) SetPopulation(p Point, pop int) { g.At(p).Population = pop }

// Place puts a structure on a cell, replacing whatever stood there.
func (g *Grid) Place(p Point, s Structure) {
	st := s
	g.At(p).Structure = &st
}

// Points returns every cell coordinate in x-major order.
func (g *Grid) Points() []Point {
	pts := make([]Point, 0, g.Size())
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			pts = append(pts, Point{x, y})
		}
	}
	return pts
}

// Generators returns the generator locations owned by team (own == true) or
// by any other team (own == false), in x-major order.
func (g *Grid) Generators(team Team, own bool) []Point {
	var out []Point
	for _, p := range g.Points() {
		s := g.At(p).Structure
		if s == nil || s.Type != Generator {
			continue
		}
		if (s.Team == team) == own {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, cells: make([]Cell, len(g.cells))}
	copy(c.cells, g.cells)
	for i := range c.cells {
		if s := c.cells[i].Structure; s != nil {
			st := *s
			c.cells[i].Structure = &st
		}
	}
	return c
}
