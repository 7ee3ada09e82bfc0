// Package reroute adjusts an in-progress solution for traffic, service
// delays, and roadblocks discovered after a route has been dispatched.
// Grounded on rerouting_service.py's ReroutingService, generalized onto
// the Optimizer's narrow Solver/ResultCache collaborators (spec §4.8).
package reroute

import (
	"context"
	"fmt"
	"log"

	"routeopt/internal/matrix"
	"routeopt/internal/model"
	"routeopt/internal/optimizer"
)

// Rerouter re-optimizes a live solution around a real-time event,
// reusing the Optimizer's full pipeline (matrix build, solve, annotate,
// stats) rather than patching the existing routes in place.
type Rerouter struct {
	Optimizer *optimizer.Optimizer
}

// New builds a Rerouter around an already-wired Optimizer.
func New(o *optimizer.Optimizer) *Rerouter {
	return &Rerouter{Optimizer: o}
}

// ForTraffic re-solves the remaining deliveries with updated traffic
// factors applied to the distance matrix (spec §4.8's traffic event).
func (r *Rerouter) ForTraffic(
	ctx context.Context,
	current model.Solution,
	locations []model.Location,
	vehicles []model.Vehicle,
	originalDeliveries []model.Delivery,
	completedDeliveryIDs []string,
	trafficFactors matrix.TrafficFactors,
) model.Solution {
	remaining := remainingDeliveries(originalDeliveries, completedDeliveryIDs)
	updated := updateVehiclePositions(vehicles, current, completedDeliveryIDs, originalDeliveries)

	sol := r.Optimizer.Optimize(ctx, optimizer.Request{
		Locations:       locations,
		Vehicles:        updated,
		Deliveries:      remaining,
		ConsiderTraffic: true,
		TrafficData:     trafficFactors,
	})
	if sol.Status == model.StatusError {
		return errorSolution("rerouting for traffic failed", originalDeliveries, sol)
	}

	attachInfo(&sol, model.ReroutingInfo{
		Reason:                 "traffic",
		OriginalTotalDistance:  current.TotalDistance,
		NewTotalDistance:       sol.TotalDistance,
		CompletedDeliveryCount: len(completedDeliveryIDs),
		ReroutedDeliveryCount:  len(remaining),
		TrafficFactorCount:     len(trafficFactors),
	})
	return sol
}

// ForDelay re-solves with added service time at the delayed locations,
// enabling time windows since delays only matter against a schedule
// (spec §4.8's service-delay event).
func (r *Rerouter) ForDelay(
	ctx context.Context,
	current model.Solution,
	locations []model.Location,
	vehicles []model.Vehicle,
	originalDeliveries []model.Delivery,
	completedDeliveryIDs []string,
	delayedLocationIDs []string,
	delayMinutes map[string]int,
) model.Solution {
	delayed := make(map[string]bool, len(delayedLocationIDs))
	for _, id := range delayedLocationIDs {
		delayed[id] = true
	}
	updatedLocations := make([]model.Location, len(locations))
	copy(updatedLocations, locations)
	for i, loc := range updatedLocations {
		if delayed[loc.ID] {
			loc.ServiceTimeMin += delayMinutes[loc.ID]
			updatedLocations[i] = loc
		}
	}

	remaining := remainingDeliveries(originalDeliveries, completedDeliveryIDs)
	updatedVehicles := updateVehiclePositions(vehicles, current, completedDeliveryIDs, originalDeliveries)

	sol := r.Optimizer.Optimize(ctx, optimizer.Request{
		Locations:           updatedLocations,
		Vehicles:            updatedVehicles,
		Deliveries:          remaining,
		ConsiderTimeWindows: true,
	})
	if sol.Status == model.StatusError {
		return errorSolution("rerouting for delay failed", originalDeliveries, sol)
	}

	attachInfo(&sol, model.ReroutingInfo{
		Reason:                 "service_delay",
		OriginalTotalDistance:  current.TotalDistance,
		NewTotalDistance:       sol.TotalDistance,
		CompletedDeliveryCount: len(completedDeliveryIDs),
		ReroutedDeliveryCount:  len(remaining),
		DelayMinutes:           delayMinutes,
	})
	return sol
}

// ForRoadblock re-solves with the given segments made impassable: each
// blocked (from, to) pair, in both directions, is forced to
// matrix.MaxSafeDistance before the traffic ceiling factor is layered
// on top, so ToGraph drops the edge entirely rather than merely
// inflating its cost (spec §4.8's roadblock event).
func (r *Rerouter) ForRoadblock(
	ctx context.Context,
	current model.Solution,
	locations []model.Location,
	vehicles []model.Vehicle,
	originalDeliveries []model.Delivery,
	completedDeliveryIDs []string,
	blockedSegments [][2]string,
) model.Solution {
	idIndex := make(map[string]int, len(locations))
	for i, loc := range locations {
		idIndex[loc.ID] = i
	}

	factors := make(matrix.TrafficFactors, len(blockedSegments)*2)
	pairs := make([][2]int, 0, len(blockedSegments)*2)
	for _, seg := range blockedSegments {
		fromIdx, ok1 := idIndex[seg[0]]
		toIdx, ok2 := idIndex[seg[1]]
		if !ok1 || !ok2 {
			log.Printf("reroute: unknown location in blocked segment %v", seg)
			continue
		}
		factors[[2]int{fromIdx, toIdx}] = matrix.TrafficFactorCeiling
		factors[[2]int{toIdx, fromIdx}] = matrix.TrafficFactorCeiling
		pairs = append(pairs, [2]int{fromIdx, toIdx}, [2]int{toIdx, fromIdx})
	}

	remaining := remainingDeliveries(originalDeliveries, completedDeliveryIDs)
	updated := updateVehiclePositions(vehicles, current, completedDeliveryIDs, originalDeliveries)

	sol := r.Optimizer.Optimize(ctx, optimizer.Request{
		Locations:       locations,
		Vehicles:        updated,
		Deliveries:      remaining,
		ConsiderTraffic: true,
		TrafficData:     factors,
		RoadblockPairs:  pairs,
	})
	if sol.Status == model.StatusError {
		return errorSolution("rerouting for roadblock failed", originalDeliveries, sol)
	}

	attachInfo(&sol, model.ReroutingInfo{
		Reason:                 "roadblock",
		OriginalTotalDistance:  current.TotalDistance,
		NewTotalDistance:       sol.TotalDistance,
		CompletedDeliveryCount: len(completedDeliveryIDs),
		ReroutedDeliveryCount:  len(remaining),
		BlockedSegments:        blockedSegments,
	})
	return sol
}

func remainingDeliveries(original []model.Delivery, completedIDs []string) []model.Delivery {
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}
	out := make([]model.Delivery, 0, len(original))
	for _, d := range original {
		if !completed[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// updateVehiclePositions moves each vehicle's declared start location to
// the stop immediately after the last completed delivery on its
// previously assigned route, leaving vehicles with no completed work
// where they started. A shallow copy per vehicle keeps the caller's
// slice untouched.
func updateVehiclePositions(vehicles []model.Vehicle, current model.Solution, completedIDs []string, original []model.Delivery) []model.Vehicle {
	deliveryLocation := make(map[string]string, len(original))
	for _, d := range original {
		deliveryLocation[d.ID] = d.LocationID
	}
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}
	routeByVehicle := make(map[string]model.DetailedRoute, len(current.DetailedRoutes))
	for _, dr := range current.DetailedRoutes {
		routeByVehicle[dr.VehicleID] = dr
	}

	out := make([]model.Vehicle, len(vehicles))
	for i, v := range vehicles {
		out[i] = v
		route, ok := routeByVehicle[v.ID]
		if !ok || len(route.Stops) == 0 {
			continue
		}

		lastCompletedIdx := -1
		for idx, stopLocationID := range route.Stops {
			for completedID := range completed {
				if deliveryLocation[completedID] == stopLocationID {
					if idx > lastCompletedIdx {
						lastCompletedIdx = idx
					}
				}
			}
		}

		switch {
		case lastCompletedIdx < 0:
			// No completed deliveries on this route; leave the vehicle
			// at its original start.
		case lastCompletedIdx < len(route.Stops)-1:
			out[i].StartLocationID = route.Stops[lastCompletedIdx+1]
		default:
			out[i].StartLocationID = route.Stops[lastCompletedIdx]
		}
	}
	return out
}

func attachInfo(sol *model.Solution, info model.ReroutingInfo) {
	if sol.Statistics == nil {
		sol.Statistics = map[string]any{}
	}
	sol.Statistics["rerouting_info"] = info
}

func errorSolution(reason string, original []model.Delivery, sol model.Solution) model.Solution {
	unassigned := make([]string, len(original))
	for i, d := range original {
		unassigned[i] = d.ID
	}
	errMsg := reason
	if sol.Statistics != nil {
		if e, ok := sol.Statistics["error"]; ok {
			errMsg = fmt.Sprintf("%s: %v", reason, e)
		}
	}
	return model.Solution{
		Status:                model.StatusError,
		UnassignedDeliveryIDs: unassigned,
		Statistics:            map[string]any{"error": errMsg},
	}
}
