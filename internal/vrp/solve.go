package vrp

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"routeopt/internal/model"
)

// Solve implements the CVRP entry point from spec §4.3: distance-only,
// no time windows.
func Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	return solveInternal(distance, nil, nil, locIDs, vehicles, deliveries, pairs, depotIndex, timeLimit, seed, false)
}

// SolveWithTimeWindows implements the VRPTW entry point from spec
// §4.3: both distance and time matrices are supplied, and locations
// carry per-stop time windows and service times.
func SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	locIDs := make([]string, len(locations))
	for i, l := range locations {
		locIDs[i] = l.ID
	}
	return solveInternal(distance, timeMatrix, locations, locIDs, vehicles, deliveries, pairs, depotIndex, timeLimit, seed, true)
}

func solveInternal(distance, timeMatrix [][]float64, locations []model.Location, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64, considerTW bool) (model.Solution, error) {
	locIndex := make(map[string]int, len(locIDs))
	for i, id := range locIDs {
		locIndex[id] = i
	}

	available := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Available {
			available = append(available, v)
		}
	}
	if len(available) == 0 {
		unassignedIDs := make([]string, len(deliveries))
		for i, d := range deliveries {
			unassignedIDs[i] = d.ID
		}
		return model.Solution{
			Status:                model.StatusError,
			UnassignedDeliveryIDs: unassignedIDs,
			Statistics:            map[string]any{"error": "no available vehicles"},
		}, nil
	}

	p := &problem{
		distance:   distance,
		timeMatrix: timeMatrix,
		locIDs:     locIDs,
		locIndex:   locIndex,
		depotIndex: depotIndex,
		considerTW: considerTW,
		timeLimit:  timeLimit,
		scaling:    DefaultScaling(),
	}

	if considerTW {
		p.timeWindows = make(map[int]model.TimeWindow, len(locations))
		p.serviceTimeMin = make(map[int]int, len(locations))
		for i, l := range locations {
			if l.TimeWindowStart != nil && l.TimeWindowEnd != nil {
				p.timeWindows[i] = model.TimeWindow{Start: *l.TimeWindowStart, End: *l.TimeWindowEnd}
			}
			p.serviceTimeMin[i] = l.ServiceTimeMin
		}
	}

	p.vehicles = make([]vehicle, len(available))
	for i, v := range available {
		start := locIndex[v.StartLocationID]
		end := locIndex[v.EffectiveEndLocationID()]
		skills := make(map[string]bool, len(v.Skills))
		for _, s := range v.Skills {
			skills[s] = true
		}
		p.vehicles[i] = vehicle{
			id: v.ID, capacity: v.Capacity, startIndex: start, endIndex: end,
			costPerDistanceUnit: v.CostPerDistanceUnit, fixedCost: v.FixedCost,
			maxDistanceKm: v.MaxDistance, maxStops: v.MaxStops, skills: skills,
		}
	}

	p.deliveries = make([]delivery, len(deliveries))
	for i, d := range deliveries {
		p.deliveries[i] = delivery{
			id: d.ID, locationIndex: locIndex[d.LocationID], demand: d.Demand,
			priority: d.Priority, requiredSkills: d.RequiredSkills, origIndex: i,
		}
	}

	for _, pair := range pairs {
		pickIdx, deliverIdx := -1, -1
		for i, d := range p.deliveries {
			if d.id == pair.PickupID {
				pickIdx = i
			}
			if d.id == pair.DeliveryID {
				deliverIdx = i
			}
		}
		if pickIdx >= 0 && deliverIdx >= 0 {
			p.pairs = append(p.pairs, pdPair{pickupDeliveryIdx: pickIdx, deliveryIdx: deliverIdx})
		}
	}

	if len(p.deliveries) == 0 {
		return trivialSolution(p), nil
	}

	sol := p.solveALNS(seed)
	sol = p.reconcilePairs(sol)
	return p.toModelSolution(sol), nil
}

// trivialSolution handles spec §4.3's "no deliveries" edge case: one
// route per available vehicle consisting of just its start/end depot.
func trivialSolution(p *problem) model.Solution {
	routes := make([][]string, len(p.vehicles))
	detailed := make([]model.DetailedRoute, len(p.vehicles))
	assigned := make([]string, len(p.vehicles))
	for i, v := range p.vehicles {
		routes[i] = []string{p.locIDs[v.startIndex], p.locIDs[v.endIndex]}
		detailed[i] = model.DetailedRoute{VehicleID: v.id, Stops: routes[i]}
		assigned[i] = v.id
	}
	return model.Solution{
		Status:                model.StatusSuccess,
		Routes:                routes,
		AssignedVehicleIDs:    assigned,
		UnassignedDeliveryIDs: []string{},
		DetailedRoutes:        detailed,
	}
}

// solveALNS runs the adaptive large neighborhood search: greedy
// construction, then iterated destroy/repair with roulette-wheel
// operator selection and simulated-annealing acceptance, bounded by
// p.timeLimit. Grounded on alns_engine.go's Solve.
func (p *problem) solveALNS(seed int64) solution {
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	curr := p.greedySeed()
	best := curr.clone()

	remW := []float64{1, 1} // random, shaw
	insW := []float64{1, 1} // greedy, regret2
	temp := 1.0
	cool := 0.995

	budget := p.timeLimit
	if budget <= 0 {
		budget = 2 * time.Second
	}
	deadline := time.Now().Add(budget)
	iterations := 0
	maxIterations := 2000

	for time.Now().Before(deadline) && iterations < maxIterations {
		iterations++
		k := 1 + rng.Intn(3)
		op := selectOp(remW, rng)
		var removed []int
		if op == 0 {
			removed = pickRandomNodes(curr, k, rng)
		} else {
			removed = p.shawRemoval(curr, k, rng)
		}
		if len(removed) == 0 {
			continue
		}
		destroyed := removeDeliveries(curr, removed)
		// Repair offers every unassigned delivery, highest priority first.
		toInsert := make([]int, 0, len(destroyed.unassigned))
		for di := range destroyed.unassigned {
			toInsert = append(toInsert, di)
		}
		sort.Slice(toInsert, func(a, b int) bool {
			pa, pb := p.deliveries[toInsert[a]].priority, p.deliveries[toInsert[b]].priority
			if pa != pb {
				return pa > pb
			}
			return toInsert[a] < toInsert[b]
		})

		ip := selectOp(insW, rng)
		var candidate solution
		if ip == 0 {
			candidate = p.greedyInsert(destroyed, toInsert)
		} else {
			candidate = p.regretInsert(destroyed, toInsert)
		}
		candidate = p.twoOptImprove(candidate)
		candidate = p.orOptImprove(candidate)
		candidate = p.crossExchangeImprove(candidate)
		candidate.cost = p.objective(&candidate)

		delta := candidate.cost - curr.cost
		accept := delta < 0
		if !accept && !math.IsInf(candidate.cost, 1) {
			accept = rng.Float64() < math.Exp(-delta/(temp+1e-9))
		}
		if accept {
			curr = candidate
			if curr.cost < best.cost {
				best = curr.clone()
				remW[op] += 0.1
				insW[ip] += 0.1
			} else {
				remW[op] += 0.01
				insW[ip] += 0.01
			}
		} else {
			remW[op] = math.Max(0.01, remW[op]*0.999)
			insW[ip] = math.Max(0.01, insW[ip]*0.999)
		}
		temp *= cool
	}
	return best
}

// reconcilePairs sweeps the final solution for pickup/delivery pairs
// split across vehicles or left partially assigned, and either merges
// the delivery leg onto the pickup's vehicle right after the pickup, or
// drops both legs to unassigned when no feasible merge exists.
func (p *problem) reconcilePairs(s solution) solution {
	if len(p.pairs) == 0 {
		return s
	}
	out := s.clone()
	locate := func(di int) (vi, pos int, found bool) {
		for ri, rp := range out.routes {
			for i, x := range rp.stops {
				if x == di {
					return ri, i, true
				}
			}
		}
		return -1, -1, false
	}
	for _, pair := range p.pairs {
		pv, pp, pFound := locate(pair.pickupDeliveryIdx)
		dv, dp, dFound := locate(pair.deliveryIdx)
		if pFound && dFound && pv == dv && pp < dp {
			continue // already satisfied
		}
		// remove both legs wherever they are, then try to re-place
		// them together on the pickup's vehicle (or the delivery's, if
		// the pickup was unassigned).
		removed := []int{}
		if pFound {
			removed = append(removed, pair.pickupDeliveryIdx)
		}
		if dFound {
			removed = append(removed, pair.deliveryIdx)
		}
		out = removeDeliveries(out, removed)
		targetVi := pv
		if targetVi < 0 {
			targetVi = dv
		}
		if targetVi < 0 {
			continue // neither leg was ever assignable; leave unassigned
		}
		if p.feasibleInsertAt(out, targetVi, pair.pickupDeliveryIdx, len(out.routes[targetVi].stops)) {
			insertAt(&out.routes[targetVi], len(out.routes[targetVi].stops), pair.pickupDeliveryIdx)
			delete(out.unassigned, pair.pickupDeliveryIdx)
			if p.feasibleInsertAt(out, targetVi, pair.deliveryIdx, len(out.routes[targetVi].stops)) {
				insertAt(&out.routes[targetVi], len(out.routes[targetVi].stops), pair.deliveryIdx)
				delete(out.unassigned, pair.deliveryIdx)
			} else {
				out = removeDeliveries(out, []int{pair.pickupDeliveryIdx})
			}
		}
	}
	out.cost = p.objective(&out)
	return out
}

// toModelSolution converts the internal index-based solution back into
// the wire-facing model.Solution, per spec §4.3's result-assembly rule:
// walk each vehicle's chain start to end, emitting location IDs
// including depot endpoints.
func (p *problem) toModelSolution(s solution) model.Solution {
	routes := make([][]string, 0, len(s.routes))
	detailed := make([]model.DetailedRoute, 0, len(s.routes))
	assigned := make([]string, 0, len(s.routes))

	for _, rp := range s.routes {
		v := p.vehicles[rp.vehicleIdx]
		stops := make([]string, 0, len(rp.stops)+2)
		stops = append(stops, p.locIDs[v.startIndex])
		var arrivals map[string]float64
		res := p.schedule(rp)
		if p.considerTW {
			arrivals = make(map[string]float64, len(rp.stops))
		}
		demand := 0
		for i, di := range rp.stops {
			d := p.deliveries[di]
			stops = append(stops, p.locIDs[d.locationIndex])
			demand += d.demand
			if p.considerTW && i < len(res.arrivalsMinutes) {
				arrivals[d.id] = res.arrivalsMinutes[i]
			}
		}
		stops = append(stops, p.locIDs[v.endIndex])
		routes = append(routes, stops)
		assigned = append(assigned, v.id)

		util := 0.0
		if v.capacity > 0 {
			util = float64(demand) / float64(v.capacity)
		}
		detailed = append(detailed, model.DetailedRoute{
			VehicleID:               v.id,
			Stops:                   stops,
			TotalDistance:           res.distanceKm,
			TotalTime:               res.timeMin,
			CapacityUtilization:     util,
			EstimatedArrivalMinutes: arrivals,
		})
	}

	unassignedIDs := make([]string, 0, len(s.unassigned))
	for idx := range s.unassigned {
		unassignedIDs = append(unassignedIDs, p.deliveries[idx].id)
	}

	status := model.StatusSuccess
	if len(unassignedIDs) == len(p.deliveries) && len(p.deliveries) > 0 {
		status = model.StatusNoSolution
	}

	totalDistance := 0.0
	for _, dr := range detailed {
		totalDistance += dr.TotalDistance
	}

	return model.Solution{
		Status:                status,
		Routes:                routes,
		TotalDistance:         totalDistance,
		AssignedVehicleIDs:    assigned,
		UnassignedDeliveryIDs: unassignedIDs,
		DetailedRoutes:        detailed,
	}
}
