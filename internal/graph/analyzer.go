package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

const (
	defaultCentralityLimit = 50
	defaultCommunityMin    = 2
	defaultNeighborHops    = 1
	defaultMinWeight       = 1
)

// Analyzer answers relationship queries over the canonicalized
// co-occurrence graph. Every call rebuilds the graph from storage, so
// results always reflect the current resolution state.
type Analyzer struct {
	store storage.EntityStore
	seed  int64
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store storage.EntityStore) *Analyzer {
	return &Analyzer{store: store, seed: DefaultCommunitySeed}
}

// SetCommunitySeed overrides the community detection seed.
func (a *Analyzer) SetCommunitySeed(seed int64) {
	a.seed = seed
}

// Stats returns summary statistics for the graph, optionally limited
// to entities of one type.
func (a *Analyzer) Stats(ctx context.Context, entityType string) (types.GraphStats, error) {
	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return types.GraphStats{}, err
	}

	stats := types.GraphStats{
		NodeCount:  g.NodeCount(),
		EdgeCount:  g.EdgeCount(),
		Density:    g.Density(),
		Components: g.Components(),
	}
	if stats.NodeCount > 0 {
		totalWeighted := 0
		for _, id := range g.Nodes() {
			totalWeighted += g.WeightedDegree(id)
		}
		n := float64(stats.NodeCount)
		stats.AvgDegree = 2 * float64(stats.EdgeCount) / n
		stats.AvgWeightedDegree = float64(totalWeighted) / n
	}
	return stats, nil
}

// Centrality ranks nodes by the named metric, highest score first with
// entity id as the tie-break. The metric is validated before the graph
// is built; an unknown name fails with ErrInvalidInput. A limit of
// zero or less falls back to the default of 50.
func (a *Analyzer) Centrality(ctx context.Context, entityType, metric string, limit int) ([]types.NodeMetrics, error) {
	switch metric {
	case MetricDegree, MetricBetweenness, MetricCloseness, MetricEigenvector:
	default:
		return nil, fmt.Errorf("%w: unknown centrality metric %q", storage.ErrInvalidInput, metric)
	}
	if limit <= 0 {
		limit = defaultCentralityLimit
	}

	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return nil, err
	}

	var scores map[int64]float64
	switch metric {
	case MetricDegree:
		scores = degreeCentrality(g)
	case MetricBetweenness:
		scores = betweennessCentrality(g)
	case MetricCloseness:
		scores = closenessCentrality(g)
	case MetricEigenvector:
		converged, ok := eigenvectorCentrality(g)
		if !ok {
			// Power iteration did not settle; report zero scores
			// rather than failing the whole query.
			converged = make(map[int64]float64, g.NodeCount())
			for _, id := range g.Nodes() {
				converged[id] = 0
			}
		}
		scores = converged
	}

	rows := make([]types.NodeMetrics, 0, len(scores))
	for _, id := range g.Nodes() {
		name, typ := g.Node(id)
		rows = append(rows, types.NodeMetrics{
			EntityID:       id,
			Name:           name,
			Type:           typ,
			Degree:         g.Degree(id),
			WeightedDegree: g.WeightedDegree(id),
			Score:          scores[id],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].EntityID < rows[j].EntityID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Communities detects densely connected clusters, dropping those
// smaller than minSize (default 2). Results are ordered largest first
// and numbered from 1 in that order.
func (a *Analyzer) Communities(ctx context.Context, entityType string, minSize int) ([]types.Community, error) {
	if minSize <= 0 {
		minSize = defaultCommunityMin
	}

	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return nil, err
	}

	partition := louvainCommunities(g, a.seed)
	communities := make([]types.Community, 0, len(partition))
	for _, memberIDs := range partition {
		if len(memberIDs) < minSize {
			continue
		}

		memberSet := make(map[int64]bool, len(memberIDs))
		members := make([]types.GraphNode, 0, len(memberIDs))
		for _, id := range memberIDs {
			memberSet[id] = true
			name, typ := g.Node(id)
			members = append(members, types.GraphNode{EntityID: id, Name: name, Type: typ})
		}

		size := len(memberIDs)
		density := 0.0
		if size > 1 {
			density = 2 * float64(g.internalEdges(memberSet)) / (float64(size) * float64(size-1))
		}
		communities = append(communities, types.Community{
			Members: members,
			Size:    size,
			Density: density,
		})
	}

	sort.SliceStable(communities, func(i, j int) bool {
		if communities[i].Size != communities[j].Size {
			return communities[i].Size > communities[j].Size
		}
		return communities[i].Members[0].EntityID < communities[j].Members[0].EntityID
	})
	for i := range communities {
		communities[i].ID = i + 1
	}
	return communities, nil
}

// ShortestPath finds the weighted shortest path between two entities,
// where edge distance is the inverse of co-occurrence weight so that
// strongly connected pairs are "closer". Returns nil (with no error)
// when either endpoint is absent from the graph or no path exists.
// A source equal to its target yields a zero-hop single-node path.
func (a *Analyzer) ShortestPath(ctx context.Context, entityType string, source, target int64) (*types.PathResult, error) {
	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return nil, err
	}
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil, nil
	}

	ids := dijkstraPath(g, source, target, inverseWeight)
	if ids == nil {
		return nil, nil
	}

	result := &types.PathResult{
		Nodes: make([]types.GraphNode, 0, len(ids)),
		Edges: make([]types.GraphEdge, 0, len(ids)),
		Hops:  len(ids) - 1,
	}
	for i, id := range ids {
		name, typ := g.Node(id)
		result.Nodes = append(result.Nodes, types.GraphNode{EntityID: id, Name: name, Type: typ})
		if i > 0 {
			w, _ := g.Weight(ids[i-1], id)
			result.Edges = append(result.Edges, types.GraphEdge{Source: ids[i-1], Target: id, Weight: w})
			result.TotalWeight += w
		}
	}
	return result, nil
}

// Neighbors expands breadth-first from an entity up to the given hop
// count, keeping only edges at or above minWeight. Hops and minWeight
// default to 1 when zero or less. Results carry the hop level that
// discovered them and are sorted by discovering edge weight
// descending across all levels.
func (a *Analyzer) Neighbors(ctx context.Context, entityType string, entityID int64, hops, minWeight int) ([]types.Neighbor, error) {
	if hops <= 0 {
		hops = defaultNeighborHops
	}
	if minWeight <= 0 {
		minWeight = defaultMinWeight
	}

	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return nil, err
	}

	results := []types.Neighbor{}
	if !g.HasNode(entityID) {
		return results, nil
	}

	visited := map[int64]bool{entityID: true}
	frontier := []int64{entityID}
	for hop := 1; hop <= hops && len(frontier) > 0; hop++ {
		next := []int64{}
		for _, cur := range frontier {
			for _, nbr := range g.Neighbors(cur) {
				if visited[nbr] {
					continue
				}
				// Mark even when the edge is filtered out, so a weak
				// first sighting is never rediscovered later through
				// a longer route.
				visited[nbr] = true
				w, _ := g.Weight(cur, nbr)
				if w < minWeight {
					continue
				}
				name, typ := g.Node(nbr)
				results = append(results, types.Neighbor{
					EntityID: nbr,
					Name:     name,
					Type:     typ,
					Weight:   w,
					Hop:      hop,
				})
				next = append(next, nbr)
			}
		}
		frontier = next
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Weight != results[j].Weight {
			return results[i].Weight > results[j].Weight
		}
		return results[i].EntityID < results[j].EntityID
	})
	return results, nil
}

// InducedSubgraph returns the subgraph spanned by the requested
// entity ids, silently dropping ids absent from the graph. Each edge
// appears once with its lower endpoint as the source.
func (a *Analyzer) InducedSubgraph(ctx context.Context, entityType string, entityIDs []int64) (*types.Subgraph, error) {
	g, err := Build(ctx, a.store, entityType)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int64]bool, len(entityIDs))
	sub := &types.Subgraph{Nodes: []types.GraphNode{}, Edges: []types.GraphEdge{}}
	for _, id := range entityIDs {
		if wanted[id] || !g.HasNode(id) {
			continue
		}
		wanted[id] = true
		name, typ := g.Node(id)
		sub.Nodes = append(sub.Nodes, types.GraphNode{EntityID: id, Name: name, Type: typ})
	}
	sort.Slice(sub.Nodes, func(i, j int) bool { return sub.Nodes[i].EntityID < sub.Nodes[j].EntityID })

	for _, node := range sub.Nodes {
		for _, nbr := range g.Neighbors(node.EntityID) {
			if node.EntityID < nbr && wanted[nbr] {
				w, _ := g.Weight(node.EntityID, nbr)
				sub.Edges = append(sub.Edges, types.GraphEdge{Source: node.EntityID, Target: nbr, Weight: w})
			}
		}
	}
	return sub, nil
}

// inverseWeight converts a co-occurrence count into a Dijkstra
// distance.
func inverseWeight(weight int) float64 {
	if weight <= 0 {
		return 1
	}
	return 1 / float64(weight)
}
