// Package optimizer drives the end-to-end optimize pipeline: validate,
// build matrix, apply traffic, resolve depot, solve, annotate,
// aggregate stats, cache. Grounded on
// route_optimizer/services/optimization_service.py's OptimizationService,
// generalized into the explicit stage machine spec §4.7 describes.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/annotate"
	"routeopt/internal/depot"
	"routeopt/internal/geo"
	"routeopt/internal/matrix"
	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/stats"
)

// Stage names the pipeline's state machine positions (spec §4.7).
type Stage string

const (
	StageInit           Stage = "init"
	StageValidated      Stage = "validated"
	StageMatrixBuilt    Stage = "matrix_built"
	StageTrafficApplied Stage = "traffic_applied"
	StageDepotResolved  Stage = "depot_resolved"
	StageSolved         Stage = "solved"
	StageAnnotated      Stage = "annotated"
	StageStatted        Stage = "statted"
	StageDone           Stage = "done"
	StageError          Stage = "error"
)

// Solver is the narrow capability interface the Optimizer depends on
// for C3, so a toy solver can be substituted in tests without touching
// the orchestrator (spec §9).
type Solver interface {
	Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error)
	SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error)
}

// ResultCache is the narrow interface the Optimizer uses for whole-
// solution caching, independent of the matrix cache namespace.
type ResultCache interface {
	GetSolution(ctx context.Context, key string) (model.Solution, bool, error)
	PutSolution(ctx context.Context, key string, sol model.Solution, ttl time.Duration) error
}

// Request bundles a single Optimize call's inputs (spec §6's Optimize
// RPC).
type Request struct {
	Locations             []model.Location
	Vehicles              []model.Vehicle
	Deliveries            []model.Delivery
	PDPairs               []model.PDPair
	ConsiderTraffic       bool
	ConsiderTimeWindows   bool
	TrafficData           matrix.TrafficFactors
	RoadblockPairs        [][2]int
	UseAPI                bool
	TimeLimit             time.Duration
	Seed                  int64
}

// Optimizer wires together the matrix builder, depot resolver, solver,
// path finder, and result cache. Holding collaborators as struct
// fields (rather than package-level state) follows the teacher's
// Server{Store, Pub, Auth} composition pattern.
type Optimizer struct {
	MatrixBuilder *matrix.Builder
	Solver        Solver
	PathFinder    geo.PathFinder
	ResultCache   ResultCache
	CacheTTL      time.Duration
	APIKey        string

	// Testing gates the deterministic weather/roadblock mock providers
	// (spec §9's supplemented external_data_service.py surface) onto
	// every traffic-aware Optimize call, for reproducible test runs
	// without a real weather or roadblock feed.
	Testing bool
}

// New constructs an Optimizer from its collaborators.
func New(mb *matrix.Builder, solver Solver, finder geo.PathFinder, resultCache ResultCache, cacheTTL time.Duration, apiKey string) *Optimizer {
	return &Optimizer{MatrixBuilder: mb, Solver: solver, PathFinder: finder, ResultCache: resultCache, CacheTTL: cacheTTL, APIKey: apiKey}
}

// Optimize runs the full pipeline described by spec §4.7, folding any
// stage failure into an error-status Solution rather than propagating
// a Go error, matching spec §7's "does not crash the service" rule.
func (o *Optimizer) Optimize(ctx context.Context, req Request) model.Solution {
	start := time.Now()
	stage := StageInit
	requestID := uuid.New().String()

	fail := func(s Stage, err error) model.Solution {
		return model.Solution{
			Status:     model.StatusError,
			Statistics: map[string]any{"error": err.Error(), "stage": string(s), "requestId": requestID},
		}
	}

	if err := validate(req); err != nil {
		return fail(StageValidated, err)
	}
	stage = StageValidated

	cacheKey := computeCacheKey(req)
	if o.ResultCache != nil {
		if sol, ok, err := o.ResultCache.GetSolution(ctx, cacheKey); err == nil && ok {
			metrics.CacheOutcomes.WithLabelValues("result", "hit").Inc()
			return sol
		}
		metrics.CacheOutcomes.WithLabelValues("result", "miss").Inc()
	}

	dist, tim, ids, err := o.MatrixBuilder.Build(ctx, req.Locations, matrix.BuildOptions{UseAPI: req.UseAPI, APIKey: o.APIKey})
	if err != nil {
		return fail(StageMatrixBuilt, err)
	}
	dist = matrix.Sanitize(dist)
	if tim != nil {
		tim = matrix.Sanitize(tim)
	}
	stage = StageMatrixBuilt

	if o.Testing && req.ConsiderTraffic {
		idIndex := make(map[string]int, len(ids))
		for i, id := range ids {
			idIndex[id] = i
		}
		weather := matrix.MockWeatherProvider{}.Factors(req.Locations)
		req.TrafficData = matrix.CombineFactors(req.TrafficData, weather)
		for _, seg := range (matrix.MockRoadblockProvider{}).Pairs(req.Locations) {
			fromIdx, ok1 := idIndex[seg[0]]
			toIdx, ok2 := idIndex[seg[1]]
			if !ok1 || !ok2 {
				continue
			}
			req.RoadblockPairs = append(req.RoadblockPairs, [2]int{fromIdx, toIdx}, [2]int{toIdx, fromIdx})
		}
	}

	if len(req.RoadblockPairs) > 0 {
		dist = matrix.ApplyRoadblocks(dist, req.RoadblockPairs)
		if tim != nil {
			tim = matrix.ApplyRoadblocks(tim, req.RoadblockPairs)
		}
	}

	if req.ConsiderTraffic && len(req.TrafficData) > 0 {
		if req.ConsiderTimeWindows && tim != nil {
			tim = matrix.ApplyTraffic(tim, req.TrafficData)
		} else {
			dist = matrix.ApplyTraffic(dist, req.TrafficData)
		}
	}
	stage = StageTrafficApplied

	_, depotIndex := depot.Resolve(req.Locations)
	stage = StageDepotResolved

	timeLimit := req.TimeLimit
	if timeLimit <= 0 {
		timeLimit = 10 * time.Second
	}

	var sol model.Solution
	if req.ConsiderTimeWindows {
		sol, err = o.Solver.SolveWithTimeWindows(dist, tim, req.Locations, req.Vehicles, req.Deliveries, req.PDPairs, depotIndex, timeLimit, req.Seed)
	} else {
		sol, err = o.Solver.Solve(dist, ids, req.Vehicles, req.Deliveries, req.PDPairs, depotIndex, timeLimit, req.Seed)
	}
	if err != nil {
		return fail(StageSolved, err)
	}
	stage = StageSolved
	metrics.SolveStatus.WithLabelValues(string(sol.Status)).Inc()
	modeLabel := "cvrp"
	if req.ConsiderTimeWindows {
		modeLabel = "vrptw"
	}
	metrics.SolveDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())

	if sol.Status != model.StatusSuccess {
		return sol
	}

	graph := matrix.ToGraph(dist, ids)
	var timeGraph geo.Graph
	if req.ConsiderTimeWindows && tim != nil {
		timeGraph = matrix.ToGraph(tim, ids)
	}
	sol = annotate.Annotate(o.PathFinder, sol, graph, timeGraph, req.Deliveries, req.Vehicles)
	stage = StageAnnotated

	sol = stats.AddStatistics(sol, req.Vehicles, req.Deliveries, time.Since(start))
	stage = StageStatted
	_ = stage
	if sol.Statistics == nil {
		sol.Statistics = map[string]any{}
	}
	sol.Statistics["requestId"] = requestID

	if o.ResultCache != nil {
		_ = o.ResultCache.PutSolution(ctx, cacheKey, sol, o.CacheTTL)
	}
	return sol
}

// validate enforces spec §4.7's stage-1 checks: non-empty locations and
// vehicles, and every referenced ID resolves.
func validate(req Request) error {
	if len(req.Locations) == 0 {
		return fmt.Errorf("invalid input: locations must not be empty")
	}
	if len(req.Vehicles) == 0 {
		return fmt.Errorf("invalid input: vehicles must not be empty")
	}
	locSet := make(map[string]bool, len(req.Locations))
	for _, l := range req.Locations {
		if err := l.Validate(); err != nil {
			return err
		}
		locSet[l.ID] = true
	}
	for _, v := range req.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
		if !locSet[v.StartLocationID] {
			return fmt.Errorf("invalid input: vehicle %s references unknown start location %s", v.ID, v.StartLocationID)
		}
		if !locSet[v.EffectiveEndLocationID()] {
			return fmt.Errorf("invalid input: vehicle %s references unknown end location %s", v.ID, v.EffectiveEndLocationID())
		}
	}
	for _, d := range req.Deliveries {
		if err := d.Validate(); err != nil {
			return err
		}
		if !locSet[d.LocationID] {
			return fmt.Errorf("invalid input: delivery %s references unknown location %s", d.ID, d.LocationID)
		}
	}
	return nil
}

// computeCacheKey normalizes the request into a stable string, per
// spec §4.7's "sorted vehicle IDs, sorted delivery IDs, location
// coordinates, flags" cache key rule.
func computeCacheKey(req Request) string {
	vehicleIDs := idsOf(req.Vehicles, func(v model.Vehicle) string { return v.ID })
	deliveryIDs := idsOf(req.Deliveries, func(d model.Delivery) string { return d.ID })
	sort.Strings(vehicleIDs)
	sort.Strings(deliveryIDs)

	var b strings.Builder
	fmt.Fprintf(&b, "loc=%s|", matrix.CacheKey(req.Locations))
	fmt.Fprintf(&b, "veh=%s|", strings.Join(vehicleIDs, ","))
	fmt.Fprintf(&b, "del=%s|", strings.Join(deliveryIDs, ","))
	fmt.Fprintf(&b, "traffic=%v|tw=%v|api=%v", req.ConsiderTraffic, req.ConsiderTimeWindows, req.UseAPI)
	return b.String()
}

func idsOf[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
