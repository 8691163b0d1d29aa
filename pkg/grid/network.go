package grid

// Ownership tags a cell relative to the team the network was built for.
type Ownership uint8

const (
	Unowned Ownership = iota
	Own
	Opponent
)

// Kind tags the structure type standing on a cell, with KindEmpty for none.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindRoad
	KindTower
	KindGenerator
)

func kindOf(t StructureType) Kind {
	switch t {
	case Road:
		return KindRoad
	case Tower:
		return KindTower
	default:
		return KindGenerator
	}
}

// Network is the per-turn classification of every cell into ownership and
// structure kind, from the point of view of one team. It starts as a pure
// function of a snapshot; the planner then commits its own builds into it so
// legality checks later in the same turn see them.
type Network struct {
	grid  *Grid
	team  Team
	owner []Ownership
	kind  []Kind
}

// Rebuild classifies every cell of g for team in a single pass.
func Rebuild(g *Grid, team Team) *Network {
	n := &Network{
		grid:  g,
		team:  team,
		owner: make([]Ownership, g.Size()),
		kind:  make([]Kind, g.Size()),
	}
	for i, c := range g.cells {
		if c.Structure == nil {
			continue
		}
		if c.Structure.Team == team {
			n.owner[i] = Own
		} else {
			n.owner[i] = Opponent
		}
		n.kind[i] = kindOf(c.Structure.Type)
	}
	return n
}

func (n *Network) Grid() *Grid { return n.grid }
func (n *Network) Team() Team  { return n.team }

// Owner returns the ownership tag of p; off-grid points are Unowned.
func (n *Network) Owner(p Point) Ownership {
	if !n.grid.InBounds(p) {
		return Unowned
	}
	return n.owner[n.grid.Index(p)]
}

// Kind returns the structure kind on p; off-grid points are KindEmpty.
func (n *Network) Kind(p Point) Kind {
	if !n.grid.InBounds(p) {
		return KindEmpty
	}
	return n.kind[n.grid.Index(p)]
}

// Empty reports whether p is on the grid and no structure stands on it.
func (n *Network) Empty(p Point) bool {
	return n.grid.InBounds(p) && n.kind[n.grid.Index(p)] == KindEmpty
}

// AdjacentToOwn reports whether any 4-neighbor of p holds an own structure.
func (n *Network) AdjacentToOwn(p Point) bool {
	for _, d := range Cardinal {
		if n.Owner(p.Add(d)) == Own {
			return true
		}
	}
	return false
}

// Commit records a structure this team has just built on p.
func (n *Network) Commit(p Point, t StructureType) {
	i := n.grid.Index(p)
	n.owner[i] = Own
	n.kind[i] = kindOf(t)
}

// OwnCells returns every cell holding an own structure, in x-major order.
func (n *Network) OwnCells() []Point {
	var out []Point
	for _, p := range n.grid.Points() {
		if n.Owner(p) == Own {
			out = append(out, p)
		}
	}
	return out
}

// Cells returns every cell matching the given ownership and kind, in x-major order.
func (n *Network) Cells(o Ownership, k Kind) []Point {
	var out []Point
	for _, p := range n.grid.Points() {
		if n.Owner(p) == o && n.Kind(p) == k {
			out = append(out, p)
		}
	}
	return out
}
