package types

// Connection is an undirected co-occurrence edge between two raw
// entity ids. Weight is the number of documents both entities appear
// in. Rows are stored with the lower id first.
type Connection struct {
	EntityA int64 `json:"entity_a"`
	EntityB int64 `json:"entity_b"`
	Weight  int   `json:"weight"`
}

// GraphStats summarizes the built co-occurrence graph. All fields are
// zero for an empty graph.
type GraphStats struct {
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	Density           float64 `json:"density"`
	Components        int     `json:"components"`
	AvgDegree         float64 `json:"avg_degree"`
	AvgWeightedDegree float64 `json:"avg_weighted_degree"`
}

// NodeMetrics is one row of a centrality ranking. Score holds the
// value of whichever metric was requested; Degree and WeightedDegree
// are always populated regardless of the metric.
type NodeMetrics struct {
	EntityID       int64   `json:"entity_id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Degree         int     `json:"degree"`
	WeightedDegree int     `json:"weighted_degree"`
	Score          float64 `json:"score"`
}

// GraphNode is a node reference with its display attributes, used in
// path, community, and subgraph results.
type GraphNode struct {
	EntityID int64  `json:"entity_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// GraphEdge is an edge reference with its raw co-occurrence weight.
type GraphEdge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Weight int   `json:"weight"`
}

// Community is a detected cluster of densely connected entities.
type Community struct {
	ID      int         `json:"id"`
	Members []GraphNode `json:"members"`
	Size    int         `json:"size"`
	Density float64     `json:"density"`
}

// PathResult is a shortest path between two entities. TotalWeight is
// the sum of raw co-occurrence weights along the path; Hops is the
// edge count. A degenerate source == target path has zero hops, zero
// weight, and a single node.
type PathResult struct {
	Nodes       []GraphNode `json:"nodes"`
	Edges       []GraphEdge `json:"edges"`
	TotalWeight int         `json:"total_weight"`
	Hops        int         `json:"hops"`
}

// Neighbor is one entity discovered by a bounded-hop neighborhood
// expansion. Hop records the level at which it was first reached;
// Weight is the weight of the discovering edge.
type Neighbor struct {
	EntityID int64  `json:"entity_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Weight   int    `json:"weight"`
	Hop      int    `json:"hop"`
}

// Subgraph is the induced subgraph over a requested set of entities.
type Subgraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
