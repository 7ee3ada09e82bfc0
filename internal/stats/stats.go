// Package stats aggregates per-vehicle and per-solution totals onto an
// already-annotated Solution, grounded on
// route_optimizer/services/route_stats_service.py's
// RouteStatsService.add_statistics (spec §4.6).
package stats

import (
	"time"

	"routeopt/internal/model"
)

// AddStatistics computes route_cost/stops per vehicle and
// total_cost/total_distance/vehicles_used/deliveries_assigned overall,
// writing them into sol.Statistics and sol.TotalCost. Idempotent:
// calling it twice on the same input yields identical output, since it
// only reads DetailedRoutes/UnassignedDeliveryIDs and never
// accumulates onto a prior call's results.
func AddStatistics(sol model.Solution, vehicles []model.Vehicle, deliveries []model.Delivery, computeDuration time.Duration) model.Solution {
	vehicleByID := make(map[string]model.Vehicle, len(vehicles))
	for _, v := range vehicles {
		vehicleByID[v.ID] = v
	}

	out := sol
	routeCosts := make(map[string]float64, len(sol.DetailedRoutes))
	totalCost := 0.0
	totalDistance := 0.0
	uniqueStops := make(map[string]map[string]bool, len(sol.DetailedRoutes))

	for _, dr := range sol.DetailedRoutes {
		v, ok := vehicleByID[dr.VehicleID]
		routeDistance := dr.TotalDistance
		if routeDistance == 0 {
			for _, seg := range dr.Segments {
				routeDistance += seg.Distance
			}
		}
		cost := routeDistance
		if ok {
			cost = v.FixedCost + routeDistance*v.CostPerDistanceUnit
		}
		routeCosts[dr.VehicleID] = cost
		totalCost += cost
		totalDistance += routeDistance

		stops := make(map[string]bool, len(dr.Stops))
		depotStart, depotEnd := "", ""
		if ok {
			depotStart = v.StartLocationID
			depotEnd = v.EffectiveEndLocationID()
		}
		for _, s := range dr.Stops {
			if s == depotStart || s == depotEnd {
				continue
			}
			stops[s] = true
		}
		uniqueStops[dr.VehicleID] = stops
	}

	stopsPerVehicle := make(map[string]int, len(uniqueStops))
	for id, s := range uniqueStops {
		stopsPerVehicle[id] = len(s)
	}

	out.TotalCost = totalCost
	// Reconcile against the annotated per-route totals rather than
	// trusting the solver's running total verbatim: a provider-sourced
	// matrix or a PD-pair detour can leave the two diverging even
	// though both are internally consistent.
	if len(sol.DetailedRoutes) > 0 {
		out.TotalDistance = totalDistance
	} else if out.TotalDistance == 0 {
		out.TotalDistance = totalDistance
	}

	out.Statistics = map[string]any{
		"route_cost":          routeCosts,
		"stops_per_vehicle":   stopsPerVehicle,
		"total_cost":          totalCost,
		"total_distance":      out.TotalDistance,
		"vehicles_used":       len(sol.AssignedVehicleIDs),
		"vehicles_available":  len(vehicles),
		"deliveries_assigned": len(deliveries) - len(sol.UnassignedDeliveryIDs),
		"deliveries_total":    len(deliveries),
		"computation_time_ms": computeDuration.Milliseconds(),
	}
	return out
}
