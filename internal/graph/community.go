package graph

import (
	"math/rand"
	"sort"
)

// DefaultCommunitySeed seeds the node-visiting shuffle in community
// detection so that repeated runs over the same graph return the same
// partition. Override via Analyzer.SetCommunitySeed.
const DefaultCommunitySeed = 42

// louvainCommunities partitions the graph by greedy modularity
// maximization (Louvain method) over edge weights: repeated local
// moving of nodes between communities followed by graph aggregation,
// until modularity stops improving. Returns the member ids of each
// community.
func louvainCommunities(g *Graph, seed int64) [][]int64 {
	n := g.NodeCount()
	if n == 0 {
		return nil
	}

	ids := g.Nodes()
	index := make(map[int64]int, n)
	for i, id := range ids {
		index[id] = i
	}

	adj := make([]map[int]float64, n)
	self := make([]float64, n)
	for i, id := range ids {
		adj[i] = make(map[int]float64)
		for _, nbr := range g.Neighbors(id) {
			w, _ := g.Weight(id, nbr)
			adj[i][index[nbr]] = float64(w)
		}
	}

	groups := make([][]int64, n)
	for i, id := range ids {
		groups[i] = []int64{id}
	}

	rng := rand.New(rand.NewSource(seed))
	for {
		comm, improved := louvainLocalMove(adj, self, rng)
		if !improved {
			break
		}
		adj, self, groups = louvainAggregate(adj, self, groups, comm)
		if len(adj) == n {
			break
		}
		n = len(adj)
	}

	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	}
	return groups
}

// louvainLocalMove repeatedly moves each node to the neighboring
// community with the highest modularity gain until no move improves
// modularity. Returns the community assignment and whether any node
// moved.
func louvainLocalMove(adj []map[int]float64, self []float64, rng *rand.Rand) ([]int, bool) {
	n := len(adj)
	comm := make([]int, n)
	k := make([]float64, n)
	m2 := 0.0
	for i := range adj {
		comm[i] = i
		for _, w := range adj[i] {
			k[i] += w
		}
		k[i] += 2 * self[i]
		m2 += k[i]
	}
	if m2 == 0 {
		return comm, false
	}

	sumTot := make([]float64, n)
	for i := range comm {
		sumTot[comm[i]] += k[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	improvedAny := false
	for moved := true; moved; {
		moved = false
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			current := comm[i]

			links := make(map[int]float64)
			for j, w := range adj[i] {
				if j != i {
					links[comm[j]] += w
				}
			}

			sumTot[current] -= k[i]
			best := current
			bestGain := links[current] - sumTot[current]*k[i]/m2
			for c, wc := range links {
				gain := wc - sumTot[c]*k[i]/m2
				if gain > bestGain+1e-12 || (gain > bestGain-1e-12 && c < best) {
					best = c
					bestGain = gain
				}
			}
			sumTot[best] += k[i]

			if best != current {
				comm[i] = best
				moved = true
				improvedAny = true
			}
		}
	}
	return comm, improvedAny
}

// louvainAggregate collapses each community into a single supernode,
// summing parallel edge weights and folding internal edges into
// self-loops, and merges the original-id membership lists.
func louvainAggregate(adj []map[int]float64, self []float64, groups [][]int64, comm []int) ([]map[int]float64, []float64, [][]int64) {
	relabel := make(map[int]int)
	for _, c := range comm {
		if _, ok := relabel[c]; !ok {
			relabel[c] = len(relabel)
		}
	}

	n := len(relabel)
	newAdj := make([]map[int]float64, n)
	newSelf := make([]float64, n)
	newGroups := make([][]int64, n)
	for i := range newAdj {
		newAdj[i] = make(map[int]float64)
	}

	for i := range adj {
		ci := relabel[comm[i]]
		newSelf[ci] += self[i]
		newGroups[ci] = append(newGroups[ci], groups[i]...)
		for j, w := range adj[i] {
			cj := relabel[comm[j]]
			if ci == cj {
				// Each internal edge is seen from both endpoints.
				newSelf[ci] += w / 2
			} else {
				newAdj[ci][cj] += w
			}
		}
	}
	return newAdj, newSelf, newGroups
}
