package vrp

import (
	"math"
	"math/rand"
)

// selectOp picks an operator index by roulette wheel over weights,
// grounded verbatim on alns_engine.go's selectOp.
func selectOp(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// pickRandomNodes removes k delivery indices uniformly at random from
// whatever is currently assigned, grounded on alns_engine.go's
// pickRandomNodes.
func pickRandomNodes(s solution, k int, rng *rand.Rand) []int {
	present := []int{}
	for _, rp := range s.routes {
		present = append(present, rp.stops...)
	}
	if len(present) == 0 {
		return nil
	}
	removed := []int{}
	for i := 0; i < k && len(present) > 0; i++ {
		j := rng.Intn(len(present))
		removed = append(removed, present[j])
		present = append(present[:j], present[j+1:]...)
	}
	return removed
}

// shawRemoval removes a seed delivery plus the k-1 deliveries most
// related to it by matrix distance, grounded on alns_engine.go's
// shawRemoval (there scored by haversine + time-window overlap; here by
// the precomputed matrix distance between delivery locations).
func (p *problem) shawRemoval(s solution, k int, rng *rand.Rand) []int {
	present := []int{}
	for _, rp := range s.routes {
		present = append(present, rp.stops...)
	}
	if len(present) == 0 {
		return nil
	}
	seed := present[rng.Intn(len(present))]
	seedLoc := p.deliveries[seed].locationIndex

	type scored struct {
		idx   int
		score float64
	}
	rel := make([]scored, 0, len(present))
	for _, di := range present {
		if di == seed {
			continue
		}
		rel = append(rel, scored{idx: di, score: p.distance[seedLoc][p.deliveries[di].locationIndex]})
	}
	for i := range rel {
		for j := i + 1; j < len(rel); j++ {
			if rel[j].score < rel[i].score {
				rel[i], rel[j] = rel[j], rel[i]
			}
		}
	}
	removed := []int{seed}
	for i := 0; i < len(rel) && len(removed) < k; i++ {
		removed = append(removed, rel[i].idx)
	}
	return removed
}

// removeDeliveries returns a copy of s with every index in removed
// taken out of whichever route holds it and added to unassigned.
func removeDeliveries(s solution, removed []int) solution {
	if len(removed) == 0 {
		return s
	}
	rm := make(map[int]bool, len(removed))
	for _, i := range removed {
		rm[i] = true
	}
	out := s.clone()
	for ri := range out.routes {
		kept := out.routes[ri].stops[:0]
		for _, di := range out.routes[ri].stops {
			if rm[di] {
				continue
			}
			kept = append(kept, di)
		}
		out.routes[ri].stops = kept
	}
	for _, di := range removed {
		out.unassigned[di] = true
	}
	return out
}

// greedyInsert reinserts every delivery index in toInsert at its
// cheapest feasible (vehicle, position), grounded on alns_engine.go's
// greedyInsert. Deliveries with no feasible slot anywhere stay
// unassigned.
func (p *problem) greedyInsert(s solution, toInsert []int) solution {
	out := s.clone()
	pending := append([]int(nil), toInsert...)
	for len(pending) > 0 {
		bestVi, bestPos, bestPending := -1, -1, -1
		bestCost := math.MaxFloat64
		for pi, di := range pending {
			for vi := range out.routes {
				for pos := 0; pos <= len(out.routes[vi].stops); pos++ {
					if !p.feasibleInsertAt(out, vi, di, pos) {
						continue
					}
					c := p.deltaInsertCost(out.routes[vi], di, pos)
					if c < bestCost {
						bestCost = c
						bestVi = vi
						bestPos = pos
						bestPending = pi
					}
				}
			}
		}
		if bestVi == -1 {
			break // remainder of pending stays unassigned
		}
		insertAt(&out.routes[bestVi], bestPos, pending[bestPending])
		delete(out.unassigned, pending[bestPending])
		pending = append(pending[:bestPending], pending[bestPending+1:]...)
	}
	out.cost = p.objective(&out)
	return out
}

// regretInsert reinserts toInsert using regret-2 ordering: at each step
// it inserts whichever pending delivery would suffer the largest cost
// increase if its best slot were skipped, grounded on
// alns_engine.go's regretInsert.
func (p *problem) regretInsert(s solution, toInsert []int) solution {
	out := s.clone()
	pending := append([]int(nil), toInsert...)
	for len(pending) > 0 {
		type slot struct {
			vi, pos int
			cost    float64
		}
		bestPendingIdx := -1
		bestRegret := -1.0
		var chosen slot
		chosenFound := false

		for pi, di := range pending {
			var best, second slot
			best.cost, second.cost = math.MaxFloat64, math.MaxFloat64
			found := false
			for vi := range out.routes {
				for pos := 0; pos <= len(out.routes[vi].stops); pos++ {
					if !p.feasibleInsertAt(out, vi, di, pos) {
						continue
					}
					c := p.deltaInsertCost(out.routes[vi], di, pos)
					if c < best.cost {
						second = best
						best = slot{vi: vi, pos: pos, cost: c}
						found = true
					} else if c < second.cost {
						second = slot{vi: vi, pos: pos, cost: c}
					}
				}
			}
			if !found {
				continue
			}
			regret := second.cost - best.cost
			if regret < 0 || second.cost == math.MaxFloat64 {
				regret = 0
			}
			if regret > bestRegret {
				bestRegret = regret
				bestPendingIdx = pi
				chosen = best
				chosenFound = true
			}
		}
		if !chosenFound {
			break
		}
		di := pending[bestPendingIdx]
		insertAt(&out.routes[chosen.vi], chosen.pos, di)
		delete(out.unassigned, di)
		pending = append(pending[:bestPendingIdx], pending[bestPendingIdx+1:]...)
	}
	out.cost = p.objective(&out)
	return out
}

func insertAt(rp *routePlan, pos int, deliveryIdx int) {
	if pos >= len(rp.stops) {
		rp.stops = append(rp.stops, deliveryIdx)
		return
	}
	rp.stops = append(rp.stops, 0)
	copy(rp.stops[pos+1:], rp.stops[pos:])
	rp.stops[pos] = deliveryIdx
}

func (p *problem) feasibleInsertAt(s solution, vehicleIdx, deliveryIdx, pos int) bool {
	rp := s.routes[vehicleIdx]
	candidate := routePlan{vehicleIdx: vehicleIdx, stops: make([]int, 0, len(rp.stops)+1)}
	candidate.stops = append(candidate.stops, rp.stops[:pos]...)
	candidate.stops = append(candidate.stops, deliveryIdx)
	candidate.stops = append(candidate.stops, rp.stops[pos:]...)
	return p.schedule(candidate).feasible
}

// twoOptImprove reverses segments within each route when doing so
// reduces distance without breaking feasibility, grounded on
// alns_engine.go's twoOptImprove.
func (p *problem) twoOptImprove(s solution) solution {
	out := s.clone()
	for vi := range out.routes {
		stops := out.routes[vi].stops
		n := len(stops)
		improved := true
		for improved && n > 2 {
			improved = false
			for i := 0; i < n-1; i++ {
				for k := i + 1; k < n; k++ {
					cand := append([]int(nil), stops...)
					for a, b := i, k; a < b; a, b = a+1, b-1 {
						cand[a], cand[b] = cand[b], cand[a]
					}
					candPlan := routePlan{vehicleIdx: vi, stops: cand}
					if !p.schedule(candPlan).feasible {
						continue
					}
					if p.routeCost(candPlan)+1e-9 < p.routeCost(routePlan{vehicleIdx: vi, stops: stops}) {
						stops = cand
						improved = true
					}
				}
			}
		}
		out.routes[vi].stops = stops
	}
	out.cost = p.objective(&out)
	return out
}

// orOptImprove relocates single deliveries within their route when it
// reduces cost, grounded on alns_engine.go's orOptLocalImprove.
func (p *problem) orOptImprove(s solution) solution {
	out := s.clone()
	for vi := range out.routes {
		stops := out.routes[vi].stops
		improved := true
		for improved {
			improved = false
			baseCost := p.routeCost(routePlan{vehicleIdx: vi, stops: stops})
			for i := 0; i < len(stops); i++ {
				for j := 0; j <= len(stops); j++ {
					if j == i || j == i+1 {
						continue
					}
					cand := append([]int(nil), stops...)
					node := cand[i]
					cand = append(cand[:i], cand[i+1:]...)
					jj := j
					if jj > len(cand) {
						jj = len(cand)
					}
					cand = append(cand[:jj], append([]int{node}, cand[jj:]...)...)
					candPlan := routePlan{vehicleIdx: vi, stops: cand}
					if !p.schedule(candPlan).feasible {
						continue
					}
					if c := p.routeCost(candPlan); c+1e-9 < baseCost {
						stops = cand
						baseCost = c
						improved = true
					}
				}
			}
		}
		out.routes[vi].stops = stops
	}
	out.cost = p.objective(&out)
	return out
}

// crossExchangeImprove swaps one delivery between two routes when it
// reduces total cost and both resulting routes remain feasible,
// grounded on alns_engine.go's crossExchangeImprove.
func (p *problem) crossExchangeImprove(s solution) solution {
	out := s.clone()
	m := len(out.routes)
	if m < 2 {
		return out
	}
	improved := true
	for improved {
		improved = false
		for a := 0; a < m; a++ {
			for b := a + 1; b < m; b++ {
				ra, rb := out.routes[a].stops, out.routes[b].stops
				for i := 0; i < len(ra); i++ {
					for j := 0; j < len(rb); j++ {
						ca := append([]int(nil), ra...)
						cb := append([]int(nil), rb...)
						ca[i], cb[j] = cb[j], ca[i]
						pa := routePlan{vehicleIdx: a, stops: ca}
						pb := routePlan{vehicleIdx: b, stops: cb}
						if !p.schedule(pa).feasible || !p.schedule(pb).feasible {
							continue
						}
						before := p.routeCost(routePlan{vehicleIdx: a, stops: ra}) + p.routeCost(routePlan{vehicleIdx: b, stops: rb})
						after := p.routeCost(pa) + p.routeCost(pb)
						if after+1e-9 < before {
							ra, rb = ca, cb
							improved = true
						}
					}
				}
				out.routes[a].stops = ra
				out.routes[b].stops = rb
			}
		}
	}
	out.cost = p.objective(&out)
	return out
}
