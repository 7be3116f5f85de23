package graph

import (
	"context"

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

// Build assembles the canonicalized co-occurrence graph from storage.
//
// Every raw edge endpoint is rewritten through the resolution mapping
// (defaulting to the raw id when unmapped). Edges whose endpoints
// collapse onto the same canonical entity are dropped, as are edges
// with an endpoint outside the (optionally type-filtered) entity set.
// Parallel edges that resolve to the same canonical pair have their
// weights summed. Nodes are added lazily as their first edge arrives,
// so isolated entities never appear in the graph.
func Build(ctx context.Context, store storage.EntityStore, entityType string) (*Graph, error) {
	resolutions, err := store.ListResolutions(ctx)
	if err != nil {
		return nil, err
	}

	entities, err := store.ListEntities(ctx, storage.ListOptions{Type: entityType})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*types.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	conns, err := store.ListConnections(ctx)
	if err != nil {
		return nil, err
	}

	g := New()
	for _, conn := range conns {
		a, b := conn.EntityA, conn.EntityB
		if canonical, ok := resolutions[a]; ok {
			a = canonical
		}
		if canonical, ok := resolutions[b]; ok {
			b = canonical
		}

		// Merges can collapse an edge into a self-loop; those carry no
		// relationship information.
		if a == b {
			continue
		}

		entA, okA := byID[a]
		entB, okB := byID[b]
		if !okA || !okB {
			continue
		}

		g.AddNode(a, entA.Name, entA.Type)
		g.AddNode(b, entB.Name, entB.Type)
		g.AddEdge(a, b, conn.Weight)
	}

	return g, nil
}
