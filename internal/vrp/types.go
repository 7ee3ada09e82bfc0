// Package vrp implements the constraint-programming-flavored VRP solver:
// capacitated VRP and VRP-with-time-windows over a precomputed
// distance/time matrix. The search itself is an adaptive large
// neighborhood search (greedy construction, roulette-wheel operator
// selection, simulated-annealing acceptance, 2-opt/or-opt/cross-exchange
// local search), generalized from the teacher's internal/opt ALNS
// engine to operate on matrix indices and model.* domain types instead
// of raw lat/lng coordinates.
package vrp

import (
	"time"

	"routeopt/internal/model"
)

// Scaling mirrors the integer-scaling policy from spec §4.3: solver
// primitives are conceptually integer, so every distance/time/demand is
// multiplied by its factor before being registered with a dimension and
// divided back out on readback. The ALNS search here works directly in
// floating point, but schedule() still round-trips each route's
// distance/time through Scale/Unscale before comparing it against any
// bound, so the search sees the same rounding behavior spec's testable
// properties describe (± one scaling unit) rather than unbounded
// float64 precision. Capacity is integer already and needs no scaling;
// the field exists for symmetry with spec §4.3's three dimensions.
type Scaling struct {
	Distance float64
	Time     float64
	Capacity float64
}

// DefaultScaling matches spec §4.3's defaults.
func DefaultScaling() Scaling {
	return Scaling{Distance: 100, Time: 100, Capacity: 1}
}

func (s Scaling) ScaleDistance(km float64) int64 { return int64(km*s.Distance + 0.5) }
func (s Scaling) ScaleTime(min float64) int64    { return int64(min*s.Time + 0.5) }
func (s Scaling) UnscaleDistance(v int64) float64 { return float64(v) / s.Distance }
func (s Scaling) UnscaleTime(v int64) float64     { return float64(v) / s.Time }

// MaxRouteDistanceUnscaled and MaxRouteDurationUnscaled bound a single
// vehicle's route absent a tighter per-vehicle MaxDistance (spec §4.3).
const (
	MaxRouteDistanceUnscaled = 5000.0 // km
	MaxRouteDurationUnscaled = 24 * 60.0
)

// CostCoefficientForLoadBalance is the global span cost coefficient
// applied to the distance (or time, for VRPTW) dimension so the search
// prefers routes of comparable length over one long route and several
// short ones.
const CostCoefficientForLoadBalance = 0.3

// PriorityPenaltyUnit converts a delivery's priority into the cost of
// leaving it unassigned: higher priority, higher penalty, more search
// effort spent including it (spec §4.3 disjunctions).
const PriorityPenaltyUnit = 10000.0

// problem is the internal, index-based representation the solver
// operates over. Vehicle/delivery/location IDs are resolved to indices
// once at the Solve/SolveWithTimeWindows boundary so the hot loop never
// does string comparisons.
type problem struct {
	distance   [][]float64 // km, sanitized, len(locIDs) x len(locIDs)
	timeMatrix [][]float64 // minutes, nil unless considerTW
	locIDs     []string
	locIndex   map[string]int
	depotIndex int

	vehicles   []vehicle
	deliveries []delivery
	pairs      []pdPair

	timeWindows    map[int]model.TimeWindow // location index -> window, minutes
	serviceTimeMin map[int]int

	considerTW bool
	timeLimit  time.Duration
	scaling    Scaling
}

type vehicle struct {
	id                  string
	capacity            int
	startIndex          int
	endIndex            int
	costPerDistanceUnit float64
	fixedCost           float64
	maxDistanceKm       float64
	maxStops            int
	skills              map[string]bool
}

type delivery struct {
	id             string
	locationIndex  int
	demand         int
	priority       int
	requiredSkills []string
	origIndex      int // index into problem.deliveries, stable across removal/insertion
}

type pdPair struct {
	pickupDeliveryIdx int // index into problem.deliveries for the pickup
	deliveryIdx       int // index into problem.deliveries for the delivery
}

// routePlan is one vehicle's assignment: an ordered list of delivery
// indices (into problem.deliveries), excluding the pinned start/end
// depot stops which schedule() adds implicitly.
type routePlan struct {
	vehicleIdx int
	stops      []int // delivery indices
}

// solution is the ALNS working solution: one routePlan per vehicle plus
// the set of delivery indices left unassigned.
type solution struct {
	routes     []routePlan
	unassigned map[int]bool
	cost       float64
}

func (s solution) clone() solution {
	out := solution{routes: make([]routePlan, len(s.routes)), unassigned: make(map[int]bool, len(s.unassigned)), cost: s.cost}
	for i, r := range s.routes {
		out.routes[i] = routePlan{vehicleIdx: r.vehicleIdx, stops: append([]int(nil), r.stops...)}
	}
	for k, v := range s.unassigned {
		out.unassigned[k] = v
	}
	return out
}
