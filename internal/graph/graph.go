// Package graph builds and analyzes the canonicalized entity
// co-occurrence network. The graph is an owned, in-memory
// adjacency-list structure rebuilt fresh from storage on every query;
// no graph state is cached across calls.
package graph

import "sort"

type nodeAttrs struct {
	Name string
	Type string
}

// Graph is an undirected, weighted graph over canonical entity ids.
type Graph struct {
	attrs     map[int64]nodeAttrs
	adj       map[int64]map[int64]int
	edgeCount int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		attrs: make(map[int64]nodeAttrs),
		adj:   make(map[int64]map[int64]int),
	}
}

// AddNode adds a node with display attributes. Adding an existing node
// is a no-op.
func (g *Graph) AddNode(id int64, name, entityType string) {
	if _, ok := g.attrs[id]; ok {
		return
	}
	g.attrs[id] = nodeAttrs{Name: name, Type: entityType}
	g.adj[id] = make(map[int64]int)
}

// AddEdge adds an undirected edge, summing weight when the edge
// already exists. Both endpoints must have been added as nodes.
func (g *Graph) AddEdge(a, b int64, weight int) {
	if _, ok := g.adj[a]; !ok {
		return
	}
	if _, ok := g.adj[b]; !ok {
		return
	}
	if _, ok := g.adj[a][b]; !ok {
		g.edgeCount++
	}
	g.adj[a][b] += weight
	g.adj[b][a] = g.adj[a][b]
}

// HasNode reports whether the node is present.
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.attrs[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.attrs)
}

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Nodes returns all node ids in ascending order so that iteration is
// deterministic.
func (g *Graph) Nodes() []int64 {
	ids := make([]int64, 0, len(g.attrs))
	for id := range g.attrs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Neighbors returns the neighbor ids of a node in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	nbrs := make([]int64, 0, len(g.adj[id]))
	for nbr := range g.adj[id] {
		nbrs = append(nbrs, nbr)
	}
	sort.Slice(nbrs, func(i, j int) bool { return nbrs[i] < nbrs[j] })
	return nbrs
}

// Weight returns the weight of the edge between a and b, and whether
// the edge exists.
func (g *Graph) Weight(a, b int64) (int, bool) {
	w, ok := g.adj[a][b]
	return w, ok
}

// Degree returns the number of edges incident to a node.
func (g *Graph) Degree(id int64) int {
	return len(g.adj[id])
}

// WeightedDegree returns the sum of edge weights incident to a node.
func (g *Graph) WeightedDegree(id int64) int {
	total := 0
	for _, w := range g.adj[id] {
		total += w
	}
	return total
}

// Node returns the display attributes for a node.
func (g *Graph) Node(id int64) (name, entityType string) {
	a := g.attrs[id]
	return a.Name, a.Type
}

// Components returns the number of connected components.
func (g *Graph) Components() int {
	visited := make(map[int64]bool, len(g.attrs))
	count := 0
	for id := range g.attrs {
		if visited[id] {
			continue
		}
		count++
		stack := []int64{id}
		visited[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for nbr := range g.adj[cur] {
				if !visited[nbr] {
					visited[nbr] = true
					stack = append(stack, nbr)
				}
			}
		}
	}
	return count
}

// Density returns 2E / N(N−1), or 0 for graphs with fewer than two
// nodes.
func (g *Graph) Density() float64 {
	n := len(g.attrs)
	if n < 2 {
		return 0
	}
	return 2 * float64(g.edgeCount) / (float64(n) * float64(n-1))
}

// internalEdges counts the edges with both endpoints in the member
// set.
func (g *Graph) internalEdges(members map[int64]bool) int {
	count := 0
	for id := range members {
		for nbr := range g.adj[id] {
			if id < nbr && members[nbr] {
				count++
			}
		}
	}
	return count
}
