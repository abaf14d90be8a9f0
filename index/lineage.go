package index

import "math"

// Lineage is a parent graph of items.
type Lineage struct {
	parents map[uint64][2]uint64
}

// NewLineage returns an empty graph.
func NewLineage() *Lineage {
	return &Lineage{parents: make(map[uint64][2]uint64)}
}

// Add records the parents of item. Zero parents mark a root.
func (l *Lineage) Add(item, left, right uint64) {
	l.parents[item] = [2]uint64{left, right}
}

// ancestors returns the distance in generations from start to every
// ancestor reachable from it, start included at distance 0.
func (l *Lineage) ancestors(start uint64) map[uint64]int {
	dist := map[uint64]int{start: 0}
	queue := []uint64{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, p := range l.parents[id] {
			if p == 0 {
				continue
			}
			if _, seen := dist[p]; !seen {
				dist[p] = dist[id] + 1
				queue = append(queue, p)
			}
		}
	}
	return dist
}

// Inbreeding returns Wright's coefficient of item: the sum over common
// ancestors A of its parents of (1/2)^(n+m+1), where n and m are the
// shortest generation distances from each parent to A. Roots and unknown
// items have coefficient zero.
func (l *Lineage) Inbreeding(item uint64) float64 {
	p, ok := l.parents[item]
	if !ok || p[0] == 0 || p[1] == 0 {
		return 0
	}
	left, right := l.ancestors(p[0]), l.ancestors(p[1])
	var f float64
	for a, n := range left {
		if m, ok := right[a]; ok {
			f += math.Pow(0.5, float64(n+m+1))
		}
	}
	return f
}
