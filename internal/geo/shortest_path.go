package geo

import (
	"container/heap"
	"math"

	"routeopt/internal/routeerr"
)

// Graph maps a node to its outgoing edges: neighbor -> non-negative
// weight. A missing entry means "no direct edge", matching spec §4.1.
type Graph map[string]map[string]float64

// PathFinder is the narrow capability interface the Optimizer and
// PathAnnotator depend on, so an alternative implementation (a toy
// brute-force finder for tests) can be substituted without touching
// the orchestrator.
type PathFinder interface {
	ShortestPath(graph Graph, src, dst string) ([]string, float64, error)
}

// Dijkstra is the default PathFinder: label-setting shortest path with a
// priority queue keyed by tentative distance, ties broken by enqueue
// order (grounded on route_optimizer/core/dijkstra.py's heap-based
// implementation).
type Dijkstra struct{}

type pqItem struct {
	node  string
	dist  float64
	order int
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].order < pq[j].order
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestPath returns the ordered node list forming the minimum-distance
// path from src to dst and its total weight. If dst is unreachable it
// returns (nil, +Inf, nil) — the caller treats +Inf as "no path known".
// A negative edge weight anywhere in the graph fails immediately with
// routeerr.ErrInvalidGraph.
func (Dijkstra) ShortestPath(graph Graph, src, dst string) ([]string, float64, error) {
	for _, edges := range graph {
		for _, w := range edges {
			if w < 0 {
				return nil, 0, routeerr.ErrInvalidGraph
			}
		}
	}
	if _, ok := graph[src]; !ok {
		return nil, math.Inf(1), nil
	}
	if src == dst {
		return []string{src}, 0, nil
	}

	dist := map[string]float64{src: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	order := 0
	heap.Push(pq, &pqItem{node: src, dist: 0, order: order})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == dst {
			return reconstructPath(prev, src, dst), cur.dist, nil
		}
		for neighbor, weight := range graph[cur.node] {
			if visited[neighbor] {
				continue
			}
			nd := cur.dist + weight
			if existing, ok := dist[neighbor]; !ok || nd < existing {
				dist[neighbor] = nd
				prev[neighbor] = cur.node
				order++
				heap.Push(pq, &pqItem{node: neighbor, dist: nd, order: order})
			}
		}
	}
	return nil, math.Inf(1), nil
}

func reconstructPath(prev map[string]string, src, dst string) []string {
	path := []string{dst}
	cur := dst
	for cur != src {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		path = append([]string{p}, path...)
		cur = p
	}
	return path
}

// PairResult is the outcome of a shortest-path query between one pair
// of nodes, as returned by AllPairs.
type PairResult struct {
	Path     []string
	Distance float64
}

// AllPairs computes ShortestPath for every ordered pair of nodes.
func AllPairs(finder PathFinder, graph Graph, nodes []string) (map[[2]string]PairResult, error) {
	result := make(map[[2]string]PairResult, len(nodes)*len(nodes))
	for _, a := range nodes {
		for _, b := range nodes {
			if a == b {
				result[[2]string{a, b}] = PairResult{Path: []string{a}, Distance: 0}
				continue
			}
			path, dist, err := finder.ShortestPath(graph, a, b)
			if err != nil {
				return nil, err
			}
			result[[2]string{a, b}] = PairResult{Path: path, Distance: dist}
		}
	}
	return result, nil
}
