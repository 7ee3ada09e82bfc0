package stats

import (
	"testing"
	"time"

	"routeopt/internal/model"
)

func sample() (model.Solution, []model.Vehicle, []model.Delivery) {
	sol := model.Solution{
		Status:             model.StatusSuccess,
		AssignedVehicleIDs: []string{"v1"},
		DetailedRoutes: []model.DetailedRoute{
			{VehicleID: "v1", Stops: []string{"depot", "a", "depot"}, TotalDistance: 20},
		},
	}
	vehicles := []model.Vehicle{{ID: "v1", StartLocationID: "depot", FixedCost: 5, CostPerDistanceUnit: 2}}
	deliveries := []model.Delivery{{ID: "d1", LocationID: "a"}}
	return sol, vehicles, deliveries
}

func TestAddStatisticsComputesCost(t *testing.T) {
	sol, vehicles, deliveries := sample()
	out := AddStatistics(sol, vehicles, deliveries, 5*time.Millisecond)
	if out.TotalCost != 5+20*2 {
		t.Fatalf("want cost 45, got %v", out.TotalCost)
	}
	if out.Statistics["vehicles_used"] != 1 {
		t.Fatalf("want vehicles_used=1, got %v", out.Statistics["vehicles_used"])
	}
	if out.Statistics["deliveries_assigned"] != 1 {
		t.Fatalf("want deliveries_assigned=1, got %v", out.Statistics["deliveries_assigned"])
	}
}

func TestAddStatisticsReconcilesNonZeroSolverTotal(t *testing.T) {
	sol, vehicles, deliveries := sample()
	sol.TotalDistance = 999 // stale solver-reported total, diverged from the annotated routes
	out := AddStatistics(sol, vehicles, deliveries, time.Millisecond)
	if out.TotalDistance != 20 {
		t.Fatalf("want reconciled total distance 20, got %v", out.TotalDistance)
	}
}

func TestAddStatisticsIdempotent(t *testing.T) {
	sol, vehicles, deliveries := sample()
	once := AddStatistics(sol, vehicles, deliveries, time.Millisecond)
	twice := AddStatistics(once, vehicles, deliveries, time.Millisecond)
	if once.TotalCost != twice.TotalCost {
		t.Fatalf("want idempotent total cost, got %v vs %v", once.TotalCost, twice.TotalCost)
	}
	if once.Statistics["stops_per_vehicle"].(map[string]int)["v1"] != twice.Statistics["stops_per_vehicle"].(map[string]int)["v1"] {
		t.Fatalf("want idempotent stop counts")
	}
}
