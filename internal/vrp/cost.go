package vrp

import "math"

// objective computes the total cost of a solution: the sum of each
// route's distance, plus the global span cost coefficient penalizing
// the spread of route distance (route time, for VRPTW) between the
// busiest and idlest vehicle among those with at least one stop (load
// balance, spec §4.3), plus a priority-weighted penalty
// per unassigned delivery (disjunctions). Infeasible routes contribute
// +Inf so the search always prefers a feasible neighbor.
func (p *problem) objective(s *solution) float64 {
	total := 0.0
	var minSpan, maxSpan float64
	first := true

	for _, rp := range s.routes {
		if len(rp.stops) == 0 {
			continue
		}
		res := p.schedule(rp)
		if !res.feasible {
			return math.Inf(1)
		}
		span := res.distanceKm
		if p.considerTW {
			span = res.timeMin
		}
		total += res.distanceKm
		if first {
			minSpan, maxSpan = span, span
			first = false
		} else {
			if span < minSpan {
				minSpan = span
			}
			if span > maxSpan {
				maxSpan = span
			}
		}
	}
	if !first {
		total += CostCoefficientForLoadBalance * (maxSpan - minSpan)
	}

	for idx := range s.unassigned {
		total += float64(p.deliveries[idx].priority) * PriorityPenaltyUnit
	}
	return total
}

// deltaAppendCost estimates the marginal distance cost of appending
// delivery idx to the end of rp, without a full re-schedule; used by
// the greedy construction heuristic (grounded on alns_engine.go's
// deltaCostAppend).
func (p *problem) deltaAppendCost(rp routePlan, deliveryIdx int) float64 {
	v := p.vehicles[rp.vehicleIdx]
	last := v.startIndex
	if len(rp.stops) > 0 {
		last = p.deliveries[rp.stops[len(rp.stops)-1]].locationIndex
	}
	to := p.deliveries[deliveryIdx].locationIndex
	return p.distance[last][to]
}

// deltaInsertCost estimates the marginal distance cost of inserting
// delivery idx at position pos within rp (grounded on
// alns_engine.go's deltaCostInsert).
func (p *problem) deltaInsertCost(rp routePlan, deliveryIdx, pos int) float64 {
	v := p.vehicles[rp.vehicleIdx]
	prev := v.startIndex
	if pos > 0 {
		prev = p.deliveries[rp.stops[pos-1]].locationIndex
	}
	next := v.endIndex
	if pos < len(rp.stops) {
		next = p.deliveries[rp.stops[pos]].locationIndex
	}
	to := p.deliveries[deliveryIdx].locationIndex
	add := p.distance[prev][to] + p.distance[to][next]
	rem := p.distance[prev][next]
	return add - rem
}
