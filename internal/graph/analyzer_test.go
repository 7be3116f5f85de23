package graph

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

// seedPath seeds the three-entity path A-B-C with edge weights 5 and 3.
func seedPath(t *testing.T, store storage.EntityStore) (a, b, c int64) {
	t.Helper()
	a = seedEntity(t, store, "Alice", types.EntityTypePerson)
	b = seedEntity(t, store, "Bob", types.EntityTypePerson)
	c = seedEntity(t, store, "Carol", types.EntityTypePerson)
	seedConnection(t, store, a, b, 5)
	seedConnection(t, store, b, c, 3)
	return a, b, c
}

func TestStatsPathGraph(t *testing.T) {
	store := newTestStore(t)
	seedPath(t, store)

	stats, err := NewAnalyzer(store).Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}

	if stats.NodeCount != 3 || stats.EdgeCount != 2 || stats.Components != 1 {
		t.Errorf("stats = %+v, want 3 nodes, 2 edges, 1 component", stats)
	}
	if math.Abs(stats.Density-2.0/3.0) > 1e-9 {
		t.Errorf("Density = %v, want 2/3", stats.Density)
	}
	if math.Abs(stats.AvgDegree-4.0/3.0) > 1e-9 {
		t.Errorf("AvgDegree = %v, want 4/3", stats.AvgDegree)
	}
	// Weighted degrees 5, 8, 3.
	if math.Abs(stats.AvgWeightedDegree-16.0/3.0) > 1e-9 {
		t.Errorf("AvgWeightedDegree = %v, want 16/3", stats.AvgWeightedDegree)
	}
}

func TestStatsEmptyGraph(t *testing.T) {
	store := newTestStore(t)

	stats, err := NewAnalyzer(store).Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats != (types.GraphStats{}) {
		t.Errorf("empty graph stats = %+v, want zero value", stats)
	}
}

func TestCentralityUnknownMetric(t *testing.T) {
	store := newTestStore(t)

	_, err := NewAnalyzer(store).Centrality(context.Background(), "", "pagerank", 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("unknown metric: got %v, want ErrInvalidInput", err)
	}
}

func TestCentralityDegreeRanking(t *testing.T) {
	store := newTestStore(t)
	_, b, _ := seedPath(t, store)

	rows, err := NewAnalyzer(store).Centrality(context.Background(), "", MetricDegree, 2)
	if err != nil {
		t.Fatalf("Centrality() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want limit 2", len(rows))
	}
	if rows[0].EntityID != b || rows[0].Name != "Bob" {
		t.Errorf("rows[0] = %+v, want the middle node", rows[0])
	}
	if rows[0].Score != 1.0 {
		t.Errorf("middle node degree centrality = %v, want 1.0", rows[0].Score)
	}
	if rows[0].Degree != 2 || rows[0].WeightedDegree != 8 {
		t.Errorf("rows[0] = %+v, want degree 2, weighted 8", rows[0])
	}
}

func TestCentralityBetweenness(t *testing.T) {
	store := newTestStore(t)
	_, b, _ := seedPath(t, store)

	rows, err := NewAnalyzer(store).Centrality(context.Background(), "", MetricBetweenness, 0)
	if err != nil {
		t.Fatalf("Centrality() failed: %v", err)
	}

	// Only the middle node lies on any shortest path.
	if rows[0].EntityID != b || math.Abs(rows[0].Score-1.0) > 1e-9 {
		t.Errorf("rows[0] = %+v, want middle node with score 1.0", rows[0])
	}
	for _, row := range rows[1:] {
		if row.Score != 0 {
			t.Errorf("endpoint %d has betweenness %v, want 0", row.EntityID, row.Score)
		}
	}
}

func TestCentralityEigenvectorTriangle(t *testing.T) {
	store := newTestStore(t)
	a := seedEntity(t, store, "Alice", types.EntityTypePerson)
	b := seedEntity(t, store, "Bob", types.EntityTypePerson)
	c := seedEntity(t, store, "Carol", types.EntityTypePerson)
	seedConnection(t, store, a, b, 1)
	seedConnection(t, store, b, c, 1)
	seedConnection(t, store, a, c, 1)

	rows, err := NewAnalyzer(store).Centrality(context.Background(), "", MetricEigenvector, 0)
	if err != nil {
		t.Fatalf("Centrality() failed: %v", err)
	}

	// Symmetric triangle: every node gets 1/sqrt(3).
	want := 1.0 / math.Sqrt(3)
	for _, row := range rows {
		if math.Abs(row.Score-want) > 1e-4 {
			t.Errorf("node %d eigenvector score = %v, want %v", row.EntityID, row.Score, want)
		}
	}
}

func TestCentralityEigenvectorNonConvergenceFallsBackToZero(t *testing.T) {
	store := newTestStore(t)
	seedPath(t, store)

	// Uneven edge weights keep the uniform starting vector from being
	// a fixed point, so a single iteration cannot settle.
	orig := eigenvectorMaxIter
	eigenvectorMaxIter = 1
	t.Cleanup(func() { eigenvectorMaxIter = orig })

	rows, err := NewAnalyzer(store).Centrality(context.Background(), "", MetricEigenvector, 0)
	if err != nil {
		t.Fatalf("Centrality() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, row := range rows {
		if row.Score != 0 {
			t.Errorf("node %d score = %v, want 0 after non-convergence", row.EntityID, row.Score)
		}
		// Degree columns are still populated from the graph itself.
		if row.Degree == 0 {
			t.Errorf("node %d degree = 0, want the raw degree", row.EntityID)
		}
	}
}

func TestShortestPathWeightInversion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _, c := seedPath(t, store)
	// A weak direct edge. Distance 1/1 = 1.0 is longer than going
	// through the middle node (1/5 + 1/3), so the two-hop route wins.
	seedConnection(t, store, a, c, 1)

	path, err := NewAnalyzer(store).ShortestPath(ctx, "", a, c)
	if err != nil {
		t.Fatalf("ShortestPath() failed: %v", err)
	}
	if path == nil {
		t.Fatal("ShortestPath() = nil, want a path")
	}
	if path.Hops != 2 {
		t.Errorf("Hops = %d, want 2 (strong edges beat the weak shortcut)", path.Hops)
	}
	if path.TotalWeight != 8 {
		t.Errorf("TotalWeight = %d, want 8", path.TotalWeight)
	}
	if len(path.Nodes) != 3 || len(path.Edges) != 2 {
		t.Errorf("path shape = %d nodes, %d edges", len(path.Nodes), len(path.Edges))
	}
}

func TestShortestPathSingleEdge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedEntity(t, store, "Alice", types.EntityTypePerson)
	b := seedEntity(t, store, "Bob", types.EntityTypePerson)
	seedConnection(t, store, a, b, 4)

	path, err := NewAnalyzer(store).ShortestPath(ctx, "", a, b)
	if err != nil {
		t.Fatalf("ShortestPath() failed: %v", err)
	}
	if path == nil || path.Hops != 1 || path.TotalWeight != 4 {
		t.Errorf("path = %+v, want hops 1, total weight 4", path)
	}
}

func TestShortestPathAbsentAndDegenerate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, b, _ := seedPath(t, store)
	loner := seedEntity(t, store, "Loner", types.EntityTypePerson)

	// Isolated entities never enter the graph.
	path, err := NewAnalyzer(store).ShortestPath(ctx, "", a, loner)
	if err != nil {
		t.Fatalf("ShortestPath() failed: %v", err)
	}
	if path != nil {
		t.Errorf("path to isolated entity = %+v, want nil", path)
	}

	// Disconnected components.
	d := seedEntity(t, store, "Dave", types.EntityTypePerson)
	e := seedEntity(t, store, "Eve", types.EntityTypePerson)
	seedConnection(t, store, d, e, 2)
	path, err = NewAnalyzer(store).ShortestPath(ctx, "", a, d)
	if err != nil {
		t.Fatalf("ShortestPath() failed: %v", err)
	}
	if path != nil {
		t.Errorf("cross-component path = %+v, want nil", path)
	}

	// Source equal to target yields a zero-hop single-node path.
	path, err = NewAnalyzer(store).ShortestPath(ctx, "", b, b)
	if err != nil {
		t.Fatalf("ShortestPath() failed: %v", err)
	}
	if path == nil || path.Hops != 0 || path.TotalWeight != 0 || len(path.Nodes) != 1 {
		t.Errorf("degenerate path = %+v, want single node, zero hops", path)
	}
}

func TestNeighborsStarGraph(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	center := seedEntity(t, store, "Center", types.EntityTypePerson)
	weights := []int{1, 3, 5}
	leaves := make([]int64, len(weights))
	names := []string{"One", "Three", "Five"}
	for i, w := range weights {
		leaves[i] = seedEntity(t, store, names[i], types.EntityTypePerson)
		seedConnection(t, store, center, leaves[i], w)
	}

	got, err := NewAnalyzer(store).Neighbors(ctx, "", center, 1, 3)
	if err != nil {
		t.Fatalf("Neighbors() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("neighbors = %+v, want the two edges with weight >= 3", got)
	}
	// Globally sorted by weight descending.
	if got[0].Weight != 5 || got[1].Weight != 3 {
		t.Errorf("weights = %d, %d, want 5, 3", got[0].Weight, got[1].Weight)
	}
	if got[0].Hop != 1 || got[1].Hop != 1 {
		t.Errorf("hops = %d, %d, want 1, 1", got[0].Hop, got[1].Hop)
	}
}

func TestNeighborsMultiHop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _, c := seedPath(t, store)

	// One hop only reaches the middle node.
	got, err := NewAnalyzer(store).Neighbors(ctx, "", a, 1, 1)
	if err != nil {
		t.Fatalf("Neighbors() failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Bob" {
		t.Fatalf("one hop = %+v, want just the middle node", got)
	}

	// Two hops reach the far end, recorded at hop 2.
	got, err = NewAnalyzer(store).Neighbors(ctx, "", a, 2, 1)
	if err != nil {
		t.Fatalf("Neighbors() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("two hops = %+v, want 2 results", got)
	}
	for _, n := range got {
		if n.EntityID == c && n.Hop != 2 {
			t.Errorf("far node hop = %d, want 2", n.Hop)
		}
	}
}

func TestNeighborsAbsentEntity(t *testing.T) {
	store := newTestStore(t)

	got, err := NewAnalyzer(store).Neighbors(context.Background(), "", 42, 1, 1)
	if err != nil {
		t.Fatalf("Neighbors() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("neighbors of absent entity = %+v, want empty", got)
	}
}

func TestCommunitiesTwoClusters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two triangles joined by a single weak bridge.
	ids := make([]int64, 6)
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, name := range names {
		ids[i] = seedEntity(t, store, name, types.EntityTypePerson)
	}
	for _, tri := range [][3]int{{0, 1, 2}, {3, 4, 5}} {
		seedConnection(t, store, ids[tri[0]], ids[tri[1]], 5)
		seedConnection(t, store, ids[tri[1]], ids[tri[2]], 5)
		seedConnection(t, store, ids[tri[0]], ids[tri[2]], 5)
	}
	seedConnection(t, store, ids[2], ids[3], 1)

	communities, err := NewAnalyzer(store).Communities(ctx, "", 0)
	if err != nil {
		t.Fatalf("Communities() failed: %v", err)
	}
	if len(communities) != 2 {
		t.Fatalf("communities = %+v, want the two triangles", communities)
	}
	for _, c := range communities {
		if c.Size != 3 {
			t.Errorf("community size = %d, want 3", c.Size)
		}
		// A triangle is fully connected.
		if math.Abs(c.Density-1.0) > 1e-9 {
			t.Errorf("community density = %v, want 1.0", c.Density)
		}
	}
	if communities[0].ID != 1 || communities[1].ID != 2 {
		t.Errorf("community ids = %d, %d, want 1, 2", communities[0].ID, communities[1].ID)
	}
}

func TestCommunitiesDeterministic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids := make([]int64, 8)
	for i := range ids {
		ids[i] = seedEntity(t, store, string(rune('A'+i)), types.EntityTypePerson)
	}
	edges := [][3]int{
		{0, 1, 4}, {1, 2, 4}, {0, 2, 4}, {2, 3, 1},
		{3, 4, 4}, {4, 5, 4}, {3, 5, 4}, {5, 6, 2}, {6, 7, 3},
	}
	for _, e := range edges {
		seedConnection(t, store, ids[e[0]], ids[e[1]], e[2])
	}

	analyzer := NewAnalyzer(store)
	first, err := analyzer.Communities(ctx, "", 0)
	if err != nil {
		t.Fatalf("Communities() failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := analyzer.Communities(ctx, "", 0)
		if err != nil {
			t.Fatalf("Communities() run %d failed: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestCommunitiesMinSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedEntity(t, store, "Alice", types.EntityTypePerson)
	b := seedEntity(t, store, "Bob", types.EntityTypePerson)
	seedConnection(t, store, a, b, 1)

	// A pair community survives the default minimum of 2 but not 3.
	communities, err := NewAnalyzer(store).Communities(ctx, "", 0)
	if err != nil {
		t.Fatalf("Communities() failed: %v", err)
	}
	if len(communities) != 1 {
		t.Errorf("default min: communities = %+v, want 1", communities)
	}

	communities, err = NewAnalyzer(store).Communities(ctx, "", 3)
	if err != nil {
		t.Fatalf("Communities() failed: %v", err)
	}
	if len(communities) != 0 {
		t.Errorf("min 3: communities = %+v, want none", communities)
	}
}

func TestInducedSubgraph(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, b, c := seedPath(t, store)

	sub, err := NewAnalyzer(store).InducedSubgraph(ctx, "", []int64{a, b, 999})
	if err != nil {
		t.Fatalf("InducedSubgraph() failed: %v", err)
	}
	if len(sub.Nodes) != 2 {
		t.Errorf("nodes = %+v, want a and b (unknown id dropped)", sub.Nodes)
	}
	if len(sub.Edges) != 1 || sub.Edges[0].Weight != 5 {
		t.Errorf("edges = %+v, want the a-b edge", sub.Edges)
	}
	for _, edge := range sub.Edges {
		if edge.Source == c || edge.Target == c {
			t.Errorf("edge %+v touches excluded node", edge)
		}
	}
}
