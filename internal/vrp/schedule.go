package vrp

import "math"

// scheduleResult mirrors the teacher's schedulePlan return shape: total
// distance/time and per-stop arrival times, plus whether the plan is
// feasible under capacity, distance, skill, and (for VRPTW) time-window
// constraints.
type scheduleResult struct {
	distanceKm      float64
	timeMin         float64
	arrivalsMinutes []float64 // parallel to stops, arrival at each delivery's location
	feasible        bool
}

// schedule walks a route plan from the vehicle's start to its end,
// accumulating distance/time and checking every constraint along the
// way. Grounded on internal/opt/alns_engine.go's schedulePlan, adapted
// to read edge costs from a precomputed matrix instead of Haversine on
// raw coordinates, and to check capacity/distance/skills in the same
// pass rather than as a separate feasibleAdd call.
func (p *problem) schedule(rp routePlan) scheduleResult {
	v := p.vehicles[rp.vehicleIdx]
	res := scheduleResult{feasible: true, arrivalsMinutes: make([]float64, len(rp.stops))}

	demand := 0
	cur := v.startIndex
	timeCursor := 0.0
	distCursor := 0.0

	for i, di := range rp.stops {
		d := p.deliveries[di]
		demand += d.demand
		if v.capacity > 0 && demand > v.capacity {
			res.feasible = false
		}
		if len(d.requiredSkills) > 0 && !hasSkills(v.skills, d.requiredSkills) {
			res.feasible = false
		}

		edgeDist := p.distance[cur][d.locationIndex]
		distCursor += edgeDist
		res.distanceKm = distCursor

		if p.considerTW {
			edgeTime := 0.0
			if p.timeMatrix != nil {
				edgeTime = p.timeMatrix[cur][d.locationIndex]
			}
			timeCursor += edgeTime
			if tw, ok := p.timeWindows[d.locationIndex]; ok {
				start := float64(tw.Start)
				end := float64(tw.End)
				if timeCursor < start {
					timeCursor = start // waiting/slack
				}
				if end > 0 && timeCursor > end {
					res.feasible = false
				}
			}
			res.arrivalsMinutes[i] = timeCursor
			timeCursor += float64(p.serviceTimeMin[d.locationIndex])
			res.timeMin = timeCursor
		}

		cur = d.locationIndex
	}

	// close the loop to the vehicle's end location
	closingDist := p.distance[cur][v.endIndex]
	res.distanceKm = distCursor + closingDist
	if p.considerTW && p.timeMatrix != nil {
		res.timeMin = timeCursor + p.timeMatrix[cur][v.endIndex]
	}

	// Round-trip the route totals through the integer scaling factors
	// (spec §4.3's DISTANCE_SCALING_FACTOR/TIME_SCALING_FACTOR): every
	// feasibility bound and objective term below reads the scaled-then-
	// unscaled value, so the search sees the same ± one scaling unit
	// quantization the spec's testable properties describe rather than
	// unbounded float64 precision.
	res.distanceKm = p.scaling.UnscaleDistance(p.scaling.ScaleDistance(res.distanceKm))
	if p.considerTW {
		res.timeMin = p.scaling.UnscaleTime(p.scaling.ScaleTime(res.timeMin))
		for i, a := range res.arrivalsMinutes {
			res.arrivalsMinutes[i] = p.scaling.UnscaleTime(p.scaling.ScaleTime(a))
		}
	}

	maxDist := v.maxDistanceKm
	if maxDist <= 0 || maxDist > MaxRouteDistanceUnscaled {
		maxDist = MaxRouteDistanceUnscaled
	}
	if res.distanceKm > maxDist {
		res.feasible = false
	}
	if p.considerTW && res.timeMin > MaxRouteDurationUnscaled {
		res.feasible = false
	}
	if v.maxStops > 0 && len(rp.stops) > v.maxStops {
		res.feasible = false
	}
	if !hasCapacity(v, rp, p) {
		res.feasible = false
	}
	if !p.pdPairsSatisfied(rp) {
		res.feasible = false
	}

	return res
}

func hasCapacity(v vehicle, rp routePlan, p *problem) bool {
	if v.capacity <= 0 {
		return true
	}
	total := 0
	for _, di := range rp.stops {
		total += p.deliveries[di].demand
	}
	return total <= v.capacity
}

func hasSkills(have map[string]bool, need []string) bool {
	for _, s := range need {
		if !have[s] {
			return false
		}
	}
	return true
}

// pdPairsSatisfied enforces precedence for any pickup-and-delivery pair
// that has both legs on this route: the pickup must come strictly
// before its delivery. A pair with only one leg present is not
// rejected here — construction and repair place one delivery at a
// time, so an intermediate state with a lone pickup is expected and
// resolved as the other leg is inserted; reconcilePairs sweeps the
// final solution to reconcile any pair left split across vehicles.
func (p *problem) pdPairsSatisfied(rp routePlan) bool {
	if len(p.pairs) == 0 {
		return true
	}
	pos := make(map[int]int, len(rp.stops))
	for i, di := range rp.stops {
		pos[di] = i
	}
	for _, pair := range p.pairs {
		pi, pok := pos[pair.pickupDeliveryIdx]
		di, dok := pos[pair.deliveryIdx]
		if pok && dok && pi >= di {
			return false
		}
	}
	return true
}

// routeCost is the plain (unweighted) distance cost of a route plan,
// used by local-search operators comparing candidate routes.
func (p *problem) routeCost(rp routePlan) float64 {
	res := p.schedule(rp)
	if !res.feasible {
		return math.Inf(1)
	}
	return res.distanceKm
}
