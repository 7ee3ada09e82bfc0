package vrp

import (
	"math"
	"testing"
	"time"

	"routeopt/internal/geo"
	"routeopt/internal/model"
)

func haversineMatrix(locs []model.Location) [][]float64 {
	n := len(locs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = geo.HaversineKm(locs[i].Latitude, locs[i].Longitude, locs[j].Latitude, locs[j].Longitude)
			}
		}
	}
	return m
}

func TestSolveTrivialHaversine(t *testing.T) {
	locs := []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "customer", Latitude: 0, Longitude: 1},
	}
	ids := []string{"depot", "customer"}
	dist := haversineMatrix(locs)
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 10, StartLocationID: "depot", Available: true}}
	deliveries := []model.Delivery{{ID: "d1", LocationID: "customer", Demand: 5}}

	sol, err := Solve(dist, ids, vehicles, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %v", sol.Status)
	}
	if len(sol.UnassignedDeliveryIDs) != 0 {
		t.Fatalf("want no unassigned, got %v", sol.UnassignedDeliveryIDs)
	}
	if len(sol.Routes) != 1 || len(sol.Routes[0]) != 3 {
		t.Fatalf("want one route of 3 stops, got %v", sol.Routes)
	}
	want := 2 * 111.195
	if math.Abs(sol.TotalDistance-want) > 1.0 {
		t.Fatalf("want total distance ~%v, got %v", want, sol.TotalDistance)
	}
}

func TestSolveCapacityForcesSplit(t *testing.T) {
	locs := []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1},
		{ID: "b", Latitude: 1, Longitude: 0},
	}
	ids := []string{"depot", "a", "b"}
	dist := haversineMatrix(locs)
	vehicles := []model.Vehicle{
		{ID: "v1", Capacity: 5, StartLocationID: "depot", Available: true},
		{ID: "v2", Capacity: 5, StartLocationID: "depot", Available: true},
	}
	deliveries := []model.Delivery{
		{ID: "da", LocationID: "a", Demand: 5},
		{ID: "db", LocationID: "b", Demand: 5},
	}
	sol, err := Solve(dist, ids, vehicles, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %v: %v", sol.Status, sol.Statistics)
	}
	if len(sol.UnassignedDeliveryIDs) != 0 {
		t.Fatalf("want none unassigned, got %v", sol.UnassignedDeliveryIDs)
	}
	used := 0
	for _, dr := range sol.DetailedRoutes {
		if len(dr.Stops) > 2 {
			used++
			if len(dr.Stops) != 3 {
				t.Fatalf("want each used route to have exactly one customer, got %v", dr.Stops)
			}
		}
	}
	if used != 2 {
		t.Fatalf("want two used vehicles, got %d", used)
	}
}

func TestSolvePriorityDisjunction(t *testing.T) {
	locs := []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1},
		{ID: "b", Latitude: 1, Longitude: 0},
	}
	ids := []string{"depot", "a", "b"}
	dist := haversineMatrix(locs)
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 5, StartLocationID: "depot", Available: true}}
	deliveries := []model.Delivery{
		{ID: "low", LocationID: "a", Demand: 5, Priority: 1},
		{ID: "high", LocationID: "b", Demand: 5, Priority: 10},
	}
	sol, err := Solve(dist, ids, vehicles, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sol.UnassignedDeliveryIDs) != 1 || sol.UnassignedDeliveryIDs[0] != "low" {
		t.Fatalf("want low-priority delivery unassigned, got %v", sol.UnassignedDeliveryIDs)
	}
	found := false
	for _, r := range sol.Routes {
		for _, s := range r {
			if s == "b" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("want high-priority delivery on a route, routes=%v", sol.Routes)
	}
}

func TestSolveWithTimeWindows(t *testing.T) {
	start, end := 60, 120
	locs := []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "customer", Latitude: 0, Longitude: 0, TimeWindowStart: &start, TimeWindowEnd: &end, ServiceTimeMin: 10},
	}
	dist := [][]float64{{0, 50}, {50, 0}}
	timeMatrix := [][]float64{{0, 60}, {60, 0}}
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 10, StartLocationID: "depot", Available: true}}
	deliveries := []model.Delivery{{ID: "d1", LocationID: "customer", Demand: 1}}

	sol, err := SolveWithTimeWindows(dist, timeMatrix, locs, vehicles, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %v: %v", sol.Status, sol.Statistics)
	}
	arrival, ok := sol.DetailedRoutes[0].EstimatedArrivalMinutes["d1"]
	if !ok {
		t.Fatalf("want arrival time recorded")
	}
	if arrival < float64(start) || arrival > float64(end) {
		t.Fatalf("want arrival in [%d,%d], got %v", start, end, arrival)
	}
}

func TestSolveNoDeliveries(t *testing.T) {
	dist := [][]float64{{0}}
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 5, StartLocationID: "depot", Available: true}}
	sol, err := Solve(dist, []string{"depot"}, vehicles, nil, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %v", sol.Status)
	}
	if sol.TotalDistance != 0 {
		t.Fatalf("want zero distance, got %v", sol.TotalDistance)
	}
	if len(sol.Routes) != 1 || len(sol.Routes[0]) != 2 {
		t.Fatalf("want one trivial route, got %v", sol.Routes)
	}
}

func TestSolveNoVehicles(t *testing.T) {
	deliveries := []model.Delivery{{ID: "d1", LocationID: "customer", Demand: 1}}
	sol, err := Solve([][]float64{{0, 1}, {1, 0}}, []string{"depot", "customer"}, nil, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusError {
		t.Fatalf("want error status, got %v", sol.Status)
	}
	if len(sol.UnassignedDeliveryIDs) != 1 {
		t.Fatalf("want all deliveries unassigned, got %v", sol.UnassignedDeliveryIDs)
	}
}

func TestSolveOverCapacityAllUnassigned(t *testing.T) {
	locs := []model.Location{
		{ID: "depot", IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1},
	}
	dist := haversineMatrix(locs)
	vehicles := []model.Vehicle{{ID: "v1", Capacity: 1, StartLocationID: "depot", Available: true}}
	deliveries := []model.Delivery{{ID: "d1", LocationID: "a", Demand: 100}}
	sol, err := Solve(dist, []string{"depot", "a"}, vehicles, deliveries, nil, 0, time.Second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != model.StatusNoSolution {
		t.Fatalf("want no_solution, got %v", sol.Status)
	}
	if len(sol.UnassignedDeliveryIDs) != 1 {
		t.Fatalf("want all unassigned, got %v", sol.UnassignedDeliveryIDs)
	}
}
