package geo

import (
	"math"
	"testing"

	"routeopt/internal/routeerr"
)

func TestShortestPathBasic(t *testing.T) {
	g := Graph{
		"a": {"b": 1, "c": 4},
		"b": {"c": 1},
		"c": {},
	}
	path, dist, err := Dijkstra{}.ShortestPath(g, "a", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dist != 2 {
		t.Fatalf("want dist 2, got %v", dist)
	}
	want := []string{"a", "b", "c"}
	if len(path) != len(want) {
		t.Fatalf("want path %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("want path %v, got %v", want, path)
		}
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := Graph{
		"a": {"b": 1},
		"b": {},
		"c": {},
	}
	path, dist, err := Dijkstra{}.ShortestPath(g, "a", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(dist, 1) {
		t.Fatalf("want +Inf, got %v", dist)
	}
	if path != nil {
		t.Fatalf("want nil path, got %v", path)
	}
}

func TestShortestPathNegativeWeightFails(t *testing.T) {
	g := Graph{
		"a": {"b": -1},
		"b": {},
	}
	_, _, err := Dijkstra{}.ShortestPath(g, "a", "b")
	if err != routeerr.ErrInvalidGraph {
		t.Fatalf("want ErrInvalidGraph, got %v", err)
	}
}

func TestAllPairs(t *testing.T) {
	g := Graph{
		"a": {"b": 1},
		"b": {"c": 2},
		"c": {},
	}
	nodes := []string{"a", "b", "c"}
	res, err := AllPairs(Dijkstra{}, g, nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res[[2]string{"a", "a"}].Distance != 0 {
		t.Fatalf("self-pair should be 0")
	}
	if res[[2]string{"a", "c"}].Distance != 3 {
		t.Fatalf("want a->c = 3, got %v", res[[2]string{"a", "c"}].Distance)
	}
	if !math.IsInf(res[[2]string{"c", "a"}].Distance, 1) {
		t.Fatalf("want c->a unreachable")
	}
}
