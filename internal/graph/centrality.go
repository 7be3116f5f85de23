package graph

import "math"

// Centrality metric names accepted by the analyzer.
const (
	MetricDegree      = "degree"
	MetricBetweenness = "betweenness"
	MetricCloseness   = "closeness"
	MetricEigenvector = "eigenvector"
)

// eigenvectorMaxIter bounds power iteration; graphs that defeat it
// (disconnected or near-bipartite) degrade to all-zero scores instead
// of failing the call. Variable so tests can force non-convergence.
var eigenvectorMaxIter = 1000

// degreeCentrality returns degree / (n−1) for every node.
func degreeCentrality(g *Graph) map[int64]float64 {
	n := g.NodeCount()
	scores := make(map[int64]float64, n)
	if n < 2 {
		for _, id := range g.Nodes() {
			scores[id] = 0
		}
		return scores
	}
	for _, id := range g.Nodes() {
		scores[id] = float64(g.Degree(id)) / float64(n-1)
	}
	return scores
}

// betweennessCentrality implements Brandes' algorithm with edge weight
// as distance, normalized by (n−1)(n−2) for the undirected double
// counting.
func betweennessCentrality(g *Graph) map[int64]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	scores := make(map[int64]float64, n)
	for _, id := range nodes {
		scores[id] = 0
	}

	for _, s := range nodes {
		dist := map[int64]float64{s: 0}
		sigma := map[int64]float64{s: 1}
		preds := make(map[int64][]int64)
		done := make(map[int64]bool)
		var order []int64

		pq := newNodeQueue()
		pq.push(s, 0)
		for pq.len() > 0 {
			v, d := pq.pop()
			if done[v] {
				continue
			}
			done[v] = true
			order = append(order, v)

			for _, nbr := range g.Neighbors(v) {
				w, _ := g.Weight(v, nbr)
				nd := d + float64(w)
				old, seen := dist[nbr]
				switch {
				case !seen || nd < old:
					dist[nbr] = nd
					pq.push(nbr, nd)
					sigma[nbr] = sigma[v]
					preds[nbr] = []int64{v}
				case nd == old && !done[nbr]:
					sigma[nbr] += sigma[v]
					preds[nbr] = append(preds[nbr], v)
				}
			}
		}

		delta := make(map[int64]float64)
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				scores[w] += delta[w]
			}
		}
	}

	if n > 2 {
		scale := 1.0 / (float64(n-1) * float64(n-2))
		for id := range scores {
			scores[id] *= scale
		}
	} else {
		for id := range scores {
			scores[id] = 0
		}
	}
	return scores
}

// closenessCentrality computes weighted closeness with edge weight as
// distance, scaled by the reachable fraction so that nodes in small
// components don't dominate.
func closenessCentrality(g *Graph) map[int64]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	scores := make(map[int64]float64, n)

	for _, u := range nodes {
		dist := dijkstraDistances(g, u, func(w int) float64 { return float64(w) })
		total := 0.0
		for _, d := range dist {
			total += d
		}
		reachable := len(dist) // includes u itself at distance 0
		if reachable > 1 && total > 0 && n > 1 {
			c := float64(reachable-1) / total
			c *= float64(reachable-1) / float64(n-1)
			scores[u] = c
		} else {
			scores[u] = 0
		}
	}
	return scores
}

// eigenvectorCentrality runs weighted power iteration. The second
// return value is false when iteration fails to converge within
// eigenvectorMaxIter steps.
func eigenvectorCentrality(g *Graph) (map[int64]float64, bool) {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[int64]float64{}, true
	}

	tol := 1e-6
	x := make(map[int64]float64, n)
	for _, id := range nodes {
		x[id] = 1.0 / float64(n)
	}

	for i := 0; i < eigenvectorMaxIter; i++ {
		xlast := x
		x = make(map[int64]float64, n)
		for _, id := range nodes {
			x[id] = xlast[id]
		}
		for _, v := range nodes {
			for _, nbr := range g.Neighbors(v) {
				w, _ := g.Weight(v, nbr)
				x[nbr] += xlast[v] * float64(w)
			}
		}

		norm := 0.0
		for _, val := range x {
			norm += val * val
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		for id := range x {
			x[id] /= norm
		}

		change := 0.0
		for _, id := range nodes {
			change += math.Abs(x[id] - xlast[id])
		}
		if change < float64(n)*tol {
			return x, true
		}
	}
	return nil, false
}
