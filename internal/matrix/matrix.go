// Package matrix builds, caches, sanitizes, and traffic-adjusts the
// distance/time matrices the VRP solver runs against.
package matrix

import (
	"context"
	"math"

	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// BuildOptions controls how Build sources its distances.
type BuildOptions struct {
	UseAPI bool
	APIKey string
}

// Builder wires the Haversine fallback and an optional external
// Provider together, matching the teacher's pattern of a struct that
// holds its collaborators (Server{Store, Pub, Auth}) rather than free
// functions with implicit globals.
type Builder struct {
	Provider Provider
	Cache    Cache
	CacheTTL int64 // seconds; 0 disables writing, but reads still happen
}

// NewBuilder constructs a Builder. provider and cache may be nil, in
// which case Build always falls back to Haversine and never touches a
// cache.
func NewBuilder(provider Provider, cache Cache, cacheTTLSeconds int64) *Builder {
	return &Builder{Provider: provider, Cache: cache, CacheTTL: cacheTTLSeconds}
}

// Build computes the distance (km) and, when available, time (min)
// matrices for locations, in the input order. See spec §4.2 for the
// full computation policy.
func (b *Builder) Build(ctx context.Context, locations []model.Location, opts BuildOptions) (dist [][]float64, tim [][]float64, ids []string, err error) {
	ids = make([]string, len(locations))
	for i, l := range locations {
		ids[i] = l.ID
	}

	if !opts.UseAPI || opts.APIKey == "" || b.Provider == nil {
		dist = haversineMatrix(locations)
		return Sanitize(dist), nil, ids, nil
	}

	key := CacheKey(locations)
	if b.Cache != nil {
		if entry, ok, cerr := b.Cache.GetMatrix(ctx, key); cerr == nil && ok {
			return Sanitize(entry.DistanceMatrix), sanitizeOrNil(entry.TimeMatrix), ids, nil
		}
	}

	distKm, timeMin, ferr := b.Provider.FetchMatrix(ctx, locations)
	if ferr != nil {
		// Provider retries/backoff already exhausted inside the
		// Provider implementation; fall back to Haversine and never
		// cache the degraded result (spec §4.2).
		dist = haversineMatrix(locations)
		return Sanitize(dist), nil, ids, nil
	}

	dist = Sanitize(distKm)
	tim = sanitizeOrNil(timeMin)
	if b.Cache != nil && b.CacheTTL > 0 {
		_ = b.Cache.PutMatrix(ctx, key, model.CacheEntry{
			CacheKey:       key,
			DistanceMatrix: dist,
			TimeMatrix:     tim,
			LocationIDs:    ids,
		}, b.CacheTTL)
	}
	return dist, tim, ids, nil
}

func haversineMatrix(locations []model.Location) [][]float64 {
	n := len(locations)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				continue
			}
			m[i][j] = geo.HaversineKm(locations[i].Latitude, locations[i].Longitude, locations[j].Latitude, locations[j].Longitude)
		}
	}
	return m
}

// Sanitize enforces the invariants from spec §3/§4.2: non-finite entries
// become MaxSafeDistance, negative entries become 0 on the diagonal or
// MaxSafeDistance off it, entries above MaxSafeDistance are capped, and
// the diagonal is forced to 0. Sanitize is idempotent and never mutates
// its input.
func Sanitize(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			switch {
			case i == j:
				out[i][j] = 0
			case math.IsNaN(v) || math.IsInf(v, 0):
				out[i][j] = MaxSafeDistance
			case v < 0:
				out[i][j] = MaxSafeDistance
			case v > MaxSafeDistance:
				out[i][j] = MaxSafeDistance
			default:
				out[i][j] = v
			}
		}
	}
	return out
}

func sanitizeOrNil(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	return Sanitize(m)
}

// TrafficFactors maps an ordered pair of matrix indices to a
// multiplicative traffic factor.
type TrafficFactors map[[2]int]float64

// ApplyTraffic returns a new matrix with each entry multiplied by the
// clamped traffic factor for its (i,j) pair. Pure: the input matrix is
// never mutated. ApplyTraffic(m, nil) or ApplyTraffic(m, TrafficFactors{})
// returns a matrix equal to m (the round-trip law from spec §8).
func ApplyTraffic(m [][]float64, factors TrafficFactors) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	for pair, f := range factors {
		i, j := pair[0], pair[1]
		if i < 0 || i >= len(out) || j < 0 || j >= len(out[i]) {
			continue
		}
		out[i][j] = out[i][j] * clampFactor(f)
	}
	return out
}

// ApplyRoadblocks forces each (i,j) pair to MaxSafeDistance before any
// traffic factor is layered on top, so a subsequent ApplyTraffic call
// clamps an already-excluded edge instead of merely inflating a live
// one (spec §4.8's roadblock event: "the clamp-cap 5.0 applied to an
// already-MAX_SAFE_DISTANCE edge, effectively excluding the segment").
// Pure: the input matrix is never mutated.
func ApplyRoadblocks(m [][]float64, pairs [][2]int) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	for _, pair := range pairs {
		i, j := pair[0], pair[1]
		if i < 0 || i >= len(out) || j < 0 || j >= len(out[i]) {
			continue
		}
		out[i][j] = MaxSafeDistance
	}
	return out
}

// CombineFactors multiplies two factor maps together (traffic and
// weather impact, say), clamping the combined factor the same way a
// single ApplyTraffic call would. Supplements the distilled spec with
// the weather/traffic combinator the original ExternalDataService
// exposed (combine_traffic_and_weather).
func CombineFactors(a, b TrafficFactors) TrafficFactors {
	out := make(TrafficFactors, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = existing * v
		} else {
			out[k] = v
		}
	}
	for k, v := range out {
		out[k] = clampFactor(v)
	}
	return out
}

// ToGraph converts a sanitized matrix into the adjacency form
// ShortestPath consumes; entries equal to MaxSafeDistance are treated
// as "no edge" per spec §4.2.
func ToGraph(m [][]float64, ids []string) geo.Graph {
	g := make(geo.Graph, len(ids))
	for i, from := range ids {
		edges := make(map[string]float64)
		for j, to := range ids {
			if i == j {
				continue
			}
			if m[i][j] >= MaxSafeDistance {
				continue
			}
			edges[to] = m[i][j]
		}
		g[from] = edges
	}
	return g
}

// NormalizeTrafficPairs converts index-pair traffic data expressed in
// the two accepted wire shapes (spec §6) into TrafficFactors, given the
// location ID -> matrix index mapping.
func NormalizeTrafficPairs(idIndex map[string]int, pairs []TrafficPair) TrafficFactors {
	out := make(TrafficFactors, len(pairs))
	for _, p := range pairs {
		fromIdx, ok1 := idIndex[p.From]
		toIdx, ok2 := idIndex[p.To]
		if !ok1 || !ok2 {
			continue
		}
		out[[2]int{fromIdx, toIdx}] = p.Factor
	}
	return out
}

// TrafficPair is the location_pairs wire shape from spec §6.
type TrafficPair struct {
	From   string
	To     string
	Factor float64
}
