package annotate

import (
	"math"
	"testing"

	"routeopt/internal/geo"
	"routeopt/internal/model"
)

type stubFinder struct {
	edges map[[2]string]struct {
		path []string
		dist float64
	}
}

func (s stubFinder) ShortestPath(_ geo.Graph, src, dst string) ([]string, float64, error) {
	if e, ok := s.edges[[2]string{src, dst}]; ok {
		return e.path, e.dist, nil
	}
	return nil, math.Inf(1), nil
}

func TestAnnotateBuildsSegmentsAndTotals(t *testing.T) {
	finder := stubFinder{edges: map[[2]string]struct {
		path []string
		dist float64
	}{
		{"depot", "a"}: {path: []string{"depot", "a"}, dist: 10},
		{"a", "depot"}: {path: []string{"a", "depot"}, dist: 10},
	}}
	sol := model.Solution{
		DetailedRoutes: []model.DetailedRoute{
			{VehicleID: "v1", Stops: []string{"depot", "a", "depot"}},
		},
	}
	deliveries := []model.Delivery{{ID: "d1", LocationID: "a", Demand: 4}}
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 10}}

	out := Annotate(finder, sol, geo.Graph{}, nil, deliveries, vehicles)
	dr := out.DetailedRoutes[0]
	if len(dr.Segments) != 2 {
		t.Fatalf("want 2 segments, got %d", len(dr.Segments))
	}
	if dr.TotalDistance != 20 {
		t.Fatalf("want total distance 20, got %v", dr.TotalDistance)
	}
	if dr.CapacityUtilization != 0.4 {
		t.Fatalf("want utilization 0.4, got %v", dr.CapacityUtilization)
	}
}

func TestAnnotateUnreachablePlaceholder(t *testing.T) {
	finder := stubFinder{edges: map[[2]string]struct {
		path []string
		dist float64
	}{}}
	sol := model.Solution{
		DetailedRoutes: []model.DetailedRoute{{VehicleID: "v1", Stops: []string{"depot", "a"}}},
	}
	out := Annotate(finder, sol, geo.Graph{}, nil, nil, nil)
	seg := out.DetailedRoutes[0].Segments[0]
	if seg.Distance != 1e7 {
		t.Fatalf("want placeholder MaxSafeDistance, got %v", seg.Distance)
	}
}
