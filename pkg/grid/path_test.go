package grid

import (
	"math/rand"
	"testing"
)

// randomGrid builds a grid with integer passabilities and roughly 15% of the
// cells blocked by opponent roads.
func randomGrid(rng *rand.Rand, w, h int) *Grid {
	g := New(w, h)
	for _, p := range g.Points() {
		g.SetPassability(p, float64(1+rng.Intn(5)))
		if rng.Float64() < 0.15 {
			g.Place(p, Structure{Team: "blue", Type: Road})
		}
	}
	return g
}

// bellmanFord is the brute-force reference: relax every edge until nothing changes.
func bellmanFord(g *Grid, sources []Point, open func(Point) bool) []float64 {
	dist := make([]float64, g.Size())
	for i := range dist {
		dist[i] = Infinity
	}
	for _, s := range sources {
		dist[g.Index(s)] = 0
	}
	for changed := true; changed; {
		changed = false
		for _, p := range g.Points() {
			if dist[g.Index(p)] == Infinity {
				continue
			}
			for _, d := range Cardinal {
				np := p.Add(d)
				if !g.InBounds(np) || !open(np) {
					continue
				}
				nd := dist[g.Index(p)] + g.At(np).Passability
				if nd < dist[g.Index(np)] {
					dist[g.Index(np)] = nd
					changed = true
				}
			}
		}
	}
	return dist
}

func pickSources(rng *rand.Rand, g *Grid, n int) []Point {
	var out []Point
	for i := 0; i < n; i++ {
		out = append(out, Point{rng.Intn(g.Width), rng.Intn(g.Height)})
	}
	return out
}

func TestDistances_MatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 40; trial++ {
		w, h := 3+rng.Intn(10), 3+rng.Intn(10)
		g := randomGrid(rng, w, h)
		sources := pickSources(rng, g, 1+rng.Intn(3))

		got := Distances(g, sources, g.Empty)
		want := bellmanFord(g, sources, g.Empty)
		for _, p := range g.Points() {
			if got.At(p) != want[g.Index(p)] {
				t.Fatalf("trial %d: dist%s = %v, want %v", trial, p, got.At(p), want[g.Index(p)])
			}
		}
	}
}

func TestShortestPaths_PredecessorChains(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		w, h := 2+rng.Intn(12), 2+rng.Intn(12)
		g := randomGrid(rng, w, h)
		sources := pickSources(rng, g, 1+rng.Intn(4))
		isSource := make(map[Point]bool)
		for _, s := range sources {
			isSource[s] = true
		}

		dist, prev := ShortestPaths(g, sources, g.Empty)
		for _, p := range g.Points() {
			path, ok := prev.PathTo(dist, p)
			if !dist.Reachable(p) {
				if ok {
					t.Fatalf("trial %d: unreachable %s produced a path", trial, p)
				}
				continue
			}
			if !ok {
				t.Fatalf("trial %d: reachable %s has no path", trial, p)
			}
			if len(path) > g.Size() {
				t.Fatalf("trial %d: chain for %s has %d cells", trial, p, len(path))
			}
			if !isSource[path[0]] {
				t.Fatalf("trial %d: chain for %s starts at non-source %s", trial, p, path[0])
			}
			if path[len(path)-1] != p {
				t.Fatalf("trial %d: chain for %s ends at %s", trial, p, path[len(path)-1])
			}
			var sum float64
			for i := 1; i < len(path); i++ {
				a, b := path[i-1], path[i]
				if abs(a.X-b.X)+abs(a.Y-b.Y) != 1 {
					t.Fatalf("trial %d: chain step %s -> %s is not a 4-move", trial, a, b)
				}
				if !g.Empty(b) {
					t.Fatalf("trial %d: chain enters occupied cell %s", trial, b)
				}
				sum += g.At(b).Passability
			}
			if sum != dist.At(p) {
				t.Fatalf("trial %d: chain weight for %s = %v, dist = %v", trial, p, sum, dist.At(p))
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestDistances_NoSources(t *testing.T) {
	g := New(4, 3)
	dist, prev := ShortestPaths(g, nil, g.Empty)
	for _, p := range g.Points() {
		if dist.Reachable(p) {
			t.Errorf("%s should be unreachable with no sources", p)
		}
		if _, ok := prev.Prev(p); ok {
			t.Errorf("%s should have no predecessor", p)
		}
	}
}

func TestDistances_WeightsEnteringCell(t *testing.T) {
	g := New(3, 1)
	g.SetPassability(Point{1, 0}, 4)
	g.SetPassability(Point{2, 0}, 2.5)
	g.Place(Point{0, 0}, Structure{Team: "red", Type: Generator})

	dist := Distances(g, []Point{{0, 0}}, g.Empty)
	if dist.At(Point{0, 0}) != 0 {
		t.Errorf("source distance = %v, want 0", dist.At(Point{0, 0}))
	}
	if dist.At(Point{1, 0}) != 4 {
		t.Errorf("dist(1,0) = %v, want 4", dist.At(Point{1, 0}))
	}
	if dist.At(Point{2, 0}) != 6.5 {
		t.Errorf("dist(2,0) = %v, want 6.5", dist.At(Point{2, 0}))
	}
}

func TestDistances_BlockedCellsUnreachable(t *testing.T) {
	g := New(3, 3)
	g.Place(Point{0, 0}, Structure{Team: "red", Type: Generator})
	g.Place(Point{1, 0}, Structure{Team: "blue", Type: Road})
	g.Place(Point{0, 1}, Structure{Team: "blue", Type: Road})

	dist := Distances(g, []Point{{0, 0}}, g.Empty)
	for _, p := range g.Points() {
		if p == (Point{0, 0}) {
			continue
		}
		if dist.Reachable(p) {
			t.Errorf("%s should be walled off, got %v", p, dist.At(p))
		}
	}
}

func TestShortestPaths_DeterministicTieBreak(t *testing.T) {
	g := New(6, 6)
	src := []Point{{0, 0}, {5, 5}}
	_, first := ShortestPaths(g, src, g.Empty)
	for i := 0; i < 5; i++ {
		_, again := ShortestPaths(g, src, g.Empty)
		for _, p := range g.Points() {
			a, aok := first.Prev(p)
			b, bok := again.Prev(p)
			if a != b || aok != bok {
				t.Fatalf("run %d: predecessor of %s changed from %s to %s", i, p, a, b)
			}
		}
	}
}

func TestPathTo_Source(t *testing.T) {
	g := New(2, 2)
	dist, prev := ShortestPaths(g, []Point{{1, 1}}, g.Empty)
	path, ok := prev.PathTo(dist, Point{1, 1})
	if !ok || len(path) != 1 || path[0] != (Point{1, 1}) {
		t.Fatalf("path to source = %v, %v", path, ok)
	}
}
