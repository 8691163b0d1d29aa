package grid

import (
	"container/heap"
	"math"
)

// Infinity is the distance of a cell no source can reach.
var Infinity = math.Inf(1)

// DistanceField maps every cell to its minimal cumulative passability cost
// from the nearest source.
type DistanceField struct {
	Width  int
	Height int
	Dist   []float64 // row-major, Infinity when unreachable
}

// NewDistanceField returns a field with every cell unreachable.
func NewDistanceField(width, height int) *DistanceField {
	d := make([]float64, width*height)
	for i := range d {
		d[i] = Infinity
	}
	return &DistanceField{Width: width, Height: height, Dist: d}
}

// At returns the distance of p, or Infinity for off-grid points.
func (f *DistanceField) At(p Point) float64 {
	if p.X < 0 || p.Y < 0 || p.X >= f.Width || p.Y >= f.Height {
		return Infinity
	}
	return f.Dist[p.Y*f.Width+p.X]
}

// Reachable reports whether p has a finite distance.
func (f *DistanceField) Reachable(p Point) bool {
	return !math.IsInf(f.At(p), 1)
}

// PredecessorField maps each reachable, non-source cell to the adjacent cell
// one step closer to its nearest source.
type PredecessorField struct {
	width  int
	height int
	prev   []int // dense index of the predecessor, -1 when absent
}

// Prev returns the predecessor of p, if any.
func (f *PredecessorField) Prev(p Point) (Point, bool) {
	if p.X < 0 || p.Y < 0 || p.X >= f.width || p.Y >= f.height {
		return Point{}, false
	}
	i := f.prev[p.Y*f.width+p.X]
	if i < 0 {
		return Point{}, false
	}
	return Point{i % f.width, i / f.width}, true
}

// PathTo reconstructs the chain from the source side to target, both ends
// included. It returns false if target is unreachable in dist or the chain
// does not terminate within W×H steps.
func (f *PredecessorField) PathTo(dist *DistanceField, target Point) ([]Point, bool) {
	if !dist.Reachable(target) {
		return nil, false
	}
	limit := f.width * f.height
	path := []Point{target}
	cur := target
	for {
		p, ok := f.Prev(cur)
		if !ok {
			break
		}
		if len(path) >= limit {
			return nil, false
		}
		path = append(path, p)
		cur = p
	}
	if dist.At(cur) != 0 {
		return nil, false
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// pqItem is one tentative distance in the Dijkstra frontier.
type pqItem struct {
	dist float64
	p    Point
}

// frontier is a min-heap ordered by distance, then x, then y, so equal
// distances always settle in the same order.
type frontier []pqItem

func (h frontier) Len() int { return len(h) }
func (h frontier) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].p.Less(h[j].p)
}
func (h frontier) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *frontier) Push(x any)   { *h = append(*h, x.(pqItem)) }
func (h *frontier) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Distances runs multi-source Dijkstra over g. Entering a cell costs that
// cell's passability; only cells for which open returns true are entered.
// Sources start at distance 0 whether or not they are open; off-grid sources
// are ignored.
func Distances(g *Grid, sources []Point, open func(Point) bool) *DistanceField {
	d, _ := dijkstra(g, sources, open, false)
	return d
}

// ShortestPaths is Distances with predecessor tracking for path reconstruction.
func ShortestPaths(g *Grid, sources []Point, open func(Point) bool) (*DistanceField, *PredecessorField) {
	return dijkstra(g, sources, open, true)
}

func dijkstra(g *Grid, sources []Point, open func(Point) bool, trackPrev bool) (*DistanceField, *PredecessorField) {
	dist := NewDistanceField(g.Width, g.Height)
	var prev *PredecessorField
	if trackPrev {
		prev = &PredecessorField{width: g.Width, height: g.Height, prev: make([]int, g.Size())}
		for i := range prev.prev {
			prev.prev[i] = -1
		}
	}

	visited := make([]bool, g.Size())
	h := &frontier{}
	for _, s := range sources {
		if !g.InBounds(s) {
			continue
		}
		dist.Dist[g.Index(s)] = 0
		heap.Push(h, pqItem{0, s})
	}

	for h.Len() > 0 {
		cur := heap.Pop(h).(pqItem)
		ci := g.Index(cur.p)
		if visited[ci] {
			continue
		}
		visited[ci] = true
		for _, d := range Cardinal {
			np := cur.p.Add(d)
			if !g.InBounds(np) || !open(np) {
				continue
			}
			ni := g.Index(np)
			nd := dist.Dist[ci] + g.cells[ni].Passability
			if nd < dist.Dist[ni] {
				dist.Dist[ni] = nd
				if trackPrev {
					prev.prev[ni] = ci
				}
				heap.Push(h, pqItem{nd, np})
			}
		}
	}
	return dist, prev
}
