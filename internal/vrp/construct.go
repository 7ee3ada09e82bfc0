package vrp

import "math"

// greedySeed builds an initial solution by visiting the vehicles in
// turn and appending to each route the unassigned delivery that extends
// it most cheaply while staying feasible, repeating the rounds until no
// vehicle can take another, grounded on alns_engine.go's greedySeed. Any
// delivery no vehicle can ever take (capacity/skills/distance) ends up
// in unassigned rather than looping forever.
func (p *problem) greedySeed() solution {
	routes := make([]routePlan, len(p.vehicles))
	for vi := range routes {
		routes[vi] = routePlan{vehicleIdx: vi}
	}
	unassigned := make(map[int]bool, len(p.deliveries))
	for i := range p.deliveries {
		unassigned[i] = true
	}

	for progress := true; progress && len(unassigned) > 0; {
		progress = false
		for vi := range routes {
			bestIdx, bestDelta := -1, math.MaxFloat64
			for di := range unassigned {
				candidate := routePlan{vehicleIdx: vi, stops: append(append([]int(nil), routes[vi].stops...), di)}
				if !p.schedule(candidate).feasible {
					continue
				}
				delta := p.deltaAppendCost(routes[vi], di)
				if delta < bestDelta {
					bestDelta = delta
					bestIdx = di
				}
			}
			if bestIdx >= 0 {
				routes[vi].stops = append(routes[vi].stops, bestIdx)
				delete(unassigned, bestIdx)
				progress = true
			}
		}
	}

	s := solution{routes: routes, unassigned: unassigned}
	s.cost = p.objective(&s)
	return s
}
