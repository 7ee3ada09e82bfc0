// Package annotate expands a solved route's stop list into segments
// with shortest-path detail, grounded on
// route_optimizer/services/path_annotation_service.py's PathAnnotator
// and generalized to the Go PathFinder capability interface (spec §4.5).
package annotate

import (
	"log"

	"routeopt/internal/geo"
	"routeopt/internal/matrix"
	"routeopt/internal/model"
)

// Annotate walks every consecutive stop pair in every route of sol,
// invoking finder.ShortestPath over graph, and fills in
// sol.DetailedRoutes[*].Segments plus the running totals
// (TotalDistance, TotalTime, CapacityUtilization). timeGraph may be nil
// when the caller has no time matrix (pure CVRP); in that case
// TotalTime is left at whatever the solver already populated.
func Annotate(finder geo.PathFinder, sol model.Solution, graph geo.Graph, timeGraph geo.Graph, deliveries []model.Delivery, vehicles []model.Vehicle) model.Solution {
	demandByLocation := make(map[string]int, len(deliveries))
	for _, d := range deliveries {
		demandByLocation[d.LocationID] += d.Demand
	}
	capacityByVehicle := make(map[string]int, len(vehicles))
	for _, v := range vehicles {
		capacityByVehicle[v.ID] = v.Capacity
	}

	out := sol
	out.DetailedRoutes = make([]model.DetailedRoute, len(sol.DetailedRoutes))
	for i, dr := range sol.DetailedRoutes {
		segments := make([]model.RouteSegment, 0, len(dr.Stops)-1)
		totalDist := 0.0
		totalTime := 0.0
		demand := 0

		for j := 0; j+1 < len(dr.Stops); j++ {
			from, to := dr.Stops[j], dr.Stops[j+1]
			seg := shortestSegment(finder, graph, from, to)
			if timeGraph != nil {
				if _, t, err := finder.ShortestPath(timeGraph, from, to); err == nil {
					seg.TimeMin = t
				}
			}
			segments = append(segments, seg)
			totalDist += seg.Distance
			totalTime += seg.TimeMin
			demand += demandByLocation[to]
		}

		if timeGraph == nil {
			totalTime = dr.TotalTime
		}

		util := 0.0
		if cap := capacityByVehicle[dr.VehicleID]; cap > 0 {
			util = float64(demand) / float64(cap)
		}

		out.DetailedRoutes[i] = model.DetailedRoute{
			VehicleID:               dr.VehicleID,
			Stops:                   dr.Stops,
			Segments:                segments,
			TotalDistance:           totalDist,
			TotalTime:               totalTime,
			CapacityUtilization:     util,
			EstimatedArrivalMinutes: dr.EstimatedArrivalMinutes,
		}
	}
	return out
}

// shortestSegment invokes ShortestPath and, when the destination is
// unreachable (+Inf), falls back to a placeholder segment rather than
// failing the whole solve, per spec §4.5's policy.
func shortestSegment(finder geo.PathFinder, graph geo.Graph, from, to string) model.RouteSegment {
	path, dist, err := finder.ShortestPath(graph, from, to)
	if err != nil {
		log.Printf("annotate: shortest path %s->%s failed: %v", from, to, err)
		return model.RouteSegment{From: from, To: to, Path: []string{from, to}, Distance: matrix.MaxSafeDistance}
	}
	if len(path) == 0 {
		log.Printf("annotate: %s->%s unreachable, emitting placeholder segment", from, to)
		return model.RouteSegment{From: from, To: to, Path: []string{from, to}, Distance: matrix.MaxSafeDistance}
	}
	return model.RouteSegment{From: from, To: to, Path: path, Distance: dist}
}
