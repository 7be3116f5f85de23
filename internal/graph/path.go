package graph

import "container/heap"

// nodeQueue is a min-heap of (node, distance) pairs. Ties break on the
// lower node id so traversal order is deterministic.
type nodeQueue struct {
	items []nodeDist
}

type nodeDist struct {
	id   int64
	dist float64
}

func newNodeQueue() *nodeQueue {
	return &nodeQueue{}
}

func (q *nodeQueue) Len() int { return len(q.items) }

func (q *nodeQueue) Less(i, j int) bool {
	if q.items[i].dist != q.items[j].dist {
		return q.items[i].dist < q.items[j].dist
	}
	return q.items[i].id < q.items[j].id
}

func (q *nodeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue) Push(x any) { q.items = append(q.items, x.(nodeDist)) }

func (q *nodeQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

func (q *nodeQueue) len() int { return len(q.items) }

func (q *nodeQueue) push(id int64, dist float64) {
	heap.Push(q, nodeDist{id: id, dist: dist})
}

func (q *nodeQueue) pop() (int64, float64) {
	item := heap.Pop(q).(nodeDist)
	return item.id, item.dist
}

// dijkstraDistances returns the shortest distance from source to every
// reachable node, with edge distances given by distFn.
func dijkstraDistances(g *Graph, source int64, distFn func(weight int) float64) map[int64]float64 {
	dist := map[int64]float64{source: 0}
	done := make(map[int64]bool)

	pq := newNodeQueue()
	pq.push(source, 0)
	for pq.len() > 0 {
		v, d := pq.pop()
		if done[v] {
			continue
		}
		done[v] = true
		for _, nbr := range g.Neighbors(v) {
			w, _ := g.Weight(v, nbr)
			nd := d + distFn(w)
			if old, seen := dist[nbr]; !seen || nd < old {
				dist[nbr] = nd
				pq.push(nbr, nd)
			}
		}
	}
	return dist
}

// dijkstraPath returns the node sequence of the shortest path from
// source to target under distFn, or nil when target is unreachable.
// On equal distances the lower-id predecessor wins, keeping results
// deterministic.
func dijkstraPath(g *Graph, source, target int64, distFn func(weight int) float64) []int64 {
	dist := map[int64]float64{source: 0}
	prev := make(map[int64]int64)
	done := make(map[int64]bool)

	pq := newNodeQueue()
	pq.push(source, 0)
	for pq.len() > 0 {
		v, d := pq.pop()
		if done[v] {
			continue
		}
		done[v] = true
		if v == target {
			break
		}
		for _, nbr := range g.Neighbors(v) {
			w, _ := g.Weight(v, nbr)
			nd := d + distFn(w)
			if old, seen := dist[nbr]; !seen || nd < old {
				dist[nbr] = nd
				prev[nbr] = v
				pq.push(nbr, nd)
			}
		}
	}

	if !done[target] {
		return nil
	}

	var path []int64
	for at := target; ; {
		path = append(path, at)
		if at == source {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
