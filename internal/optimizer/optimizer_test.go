package optimizer

import (
	"context"
	"testing"
	"time"

	"routeopt/internal/geo"
	"routeopt/internal/matrix"
	"routeopt/internal/model"
)

// stubSolver returns a fixed one-route solution, letting these tests
// exercise the pipeline's plumbing (validation, caching, staging)
// without depending on the real ALNS search.
type stubSolver struct {
	calls int
}

func (s *stubSolver) Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	s.calls++
	stops := []string{locIDs[depotIndex]}
	for _, d := range deliveries {
		stops = append(stops, d.LocationID)
	}
	stops = append(stops, locIDs[depotIndex])
	return model.Solution{
		Status:             model.StatusSuccess,
		Routes:             [][]string{stops},
		AssignedVehicleIDs: []string{vehicles[0].ID},
		TotalDistance:      1.0,
		DetailedRoutes: []model.DetailedRoute{
			{VehicleID: vehicles[0].ID, Stops: stops, TotalDistance: 1.0},
		},
	}, nil
}

func (s *stubSolver) SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	locIDs := make([]string, len(locations))
	for i, l := range locations {
		locIDs[i] = l.ID
	}
	return s.Solve(distance, locIDs, vehicles, deliveries, pairs, depotIndex, timeLimit, seed)
}

// memResultCache is a minimal in-memory ResultCache double for testing
// hit/miss behavior without pulling in internal/cache.
type memResultCache struct {
	store map[string]model.Solution
	gets  int
	puts  int
}

func newMemResultCache() *memResultCache {
	return &memResultCache{store: map[string]model.Solution{}}
}

func (c *memResultCache) GetSolution(ctx context.Context, key string) (model.Solution, bool, error) {
	c.gets++
	sol, ok := c.store[key]
	return sol, ok, nil
}

func (c *memResultCache) PutSolution(ctx context.Context, key string, sol model.Solution, ttl time.Duration) error {
	c.puts++
	c.store[key] = sol
	return nil
}

func testLocations() []model.Location {
	return []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0, IsDepot: true},
		{ID: "a", Latitude: 0, Longitude: 1},
	}
}

func testRequest() Request {
	return Request{
		Locations:  testLocations(),
		Vehicles:   []model.Vehicle{{ID: "v1", Capacity: 10, StartLocationID: "depot", Available: true}},
		Deliveries: []model.Delivery{{ID: "d1", LocationID: "a", Demand: 1}},
	}
}

func newTestOptimizer(solver Solver, rc ResultCache) *Optimizer {
	mb := matrix.NewBuilder(nil, nil, 0)
	return New(mb, solver, geo.Dijkstra{}, rc, time.Minute, "")
}

func TestOptimizeSuccessPath(t *testing.T) {
	solver := &stubSolver{}
	o := newTestOptimizer(solver, nil)
	sol := o.Optimize(context.Background(), testRequest())

	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %s: %v", sol.Status, sol.Statistics["error"])
	}
	if solver.calls != 1 {
		t.Fatalf("want solver invoked once, got %d", solver.calls)
	}
	if _, ok := sol.Statistics["requestId"]; !ok {
		t.Fatalf("want requestId in statistics")
	}
}

func TestOptimizeRejectsEmptyLocations(t *testing.T) {
	o := newTestOptimizer(&stubSolver{}, nil)
	req := testRequest()
	req.Locations = nil
	sol := o.Optimize(context.Background(), req)
	if sol.Status != model.StatusError {
		t.Fatalf("want error status, got %s", sol.Status)
	}
	if sol.Statistics["stage"] != string(StageValidated) {
		t.Fatalf("want stage validated, got %v", sol.Statistics["stage"])
	}
}

func TestOptimizeRejectsUnknownVehicleLocation(t *testing.T) {
	o := newTestOptimizer(&stubSolver{}, nil)
	req := testRequest()
	req.Vehicles[0].StartLocationID = "nowhere"
	sol := o.Optimize(context.Background(), req)
	if sol.Status != model.StatusError {
		t.Fatalf("want error status, got %s", sol.Status)
	}
}

func TestOptimizeCacheMissThenHit(t *testing.T) {
	solver := &stubSolver{}
	rc := newMemResultCache()
	o := newTestOptimizer(solver, rc)
	req := testRequest()

	first := o.Optimize(context.Background(), req)
	if first.Status != model.StatusSuccess {
		t.Fatalf("want success on first call, got %s", first.Status)
	}
	if rc.puts != 1 {
		t.Fatalf("want one cache put after first call, got %d", rc.puts)
	}

	second := o.Optimize(context.Background(), req)
	if second.Status != model.StatusSuccess {
		t.Fatalf("want success on second call, got %s", second.Status)
	}
	if solver.calls != 1 {
		t.Fatalf("want solver invoked only once across both calls, got %d", solver.calls)
	}
}

func TestOptimizeNonSuccessSkipsAnnotateAndCachePut(t *testing.T) {
	rc := newMemResultCache()
	o := newTestOptimizer(solverFunc(func() (model.Solution, error) {
		return model.Solution{Status: model.StatusNoSolution, UnassignedDeliveryIDs: []string{"d1"}}, nil
	}), rc)

	sol := o.Optimize(context.Background(), testRequest())
	if sol.Status != model.StatusNoSolution {
		t.Fatalf("want no_solution status, got %s", sol.Status)
	}
	if rc.puts != 0 {
		t.Fatalf("want no cache put for a non-success solution, got %d", rc.puts)
	}
}

// captureSolver records the distance matrix it was handed, so a test
// can inspect what Optimize built before solving without depending on
// the real ALNS search.
type captureSolver struct {
	distance [][]float64
}

func (c *captureSolver) Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	c.distance = distance
	stops := []string{locIDs[depotIndex]}
	for _, d := range deliveries {
		stops = append(stops, d.LocationID)
	}
	stops = append(stops, locIDs[depotIndex])
	return model.Solution{
		Status:             model.StatusSuccess,
		Routes:             [][]string{stops},
		AssignedVehicleIDs: []string{vehicles[0].ID},
		DetailedRoutes: []model.DetailedRoute{
			{VehicleID: vehicles[0].ID, Stops: stops},
		},
	}, nil
}

func (c *captureSolver) SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	locIDs := make([]string, len(locations))
	for i, l := range locations {
		locIDs[i] = l.ID
	}
	return c.Solve(distance, locIDs, vehicles, deliveries, pairs, depotIndex, timeLimit, seed)
}

func TestOptimizeTestingModeInjectsMockRoadblocks(t *testing.T) {
	locs := []model.Location{
		{ID: "depot", IsDepot: true},
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}
	solver := &captureSolver{}
	o := newTestOptimizer(solver, nil)
	o.Testing = true

	req := Request{
		Locations: locs,
		Vehicles:  []model.Vehicle{{ID: "v1", Capacity: 10, StartLocationID: "depot", Available: true}},
		Deliveries: []model.Delivery{
			{ID: "d1", LocationID: "a", Demand: 1},
			{ID: "d2", LocationID: "b", Demand: 1},
			{ID: "d3", LocationID: "c", Demand: 1},
			{ID: "d4", LocationID: "d", Demand: 1},
		},
		ConsiderTraffic: true,
	}
	sol := o.Optimize(context.Background(), req)
	if sol.Status != model.StatusSuccess {
		t.Fatalf("want success, got %s: %v", sol.Status, sol.Statistics["error"])
	}
	if solver.distance == nil {
		t.Fatalf("want solver to receive a distance matrix")
	}
	found := false
	for _, row := range solver.distance {
		for _, v := range row {
			if v >= matrix.MaxSafeDistance {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("want Testing mode to inject at least one blocked matrix entry, got %v", solver.distance)
	}
}

// solverFunc adapts a niladic thunk into a Solver for tests that only
// care about the returned Solution, not the arguments passed in.
type solverFunc func() (model.Solution, error)

func (f solverFunc) Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	return f()
}

func (f solverFunc) SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	return f()
}
