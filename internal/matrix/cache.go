package matrix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"routeopt/internal/model"
)

// Cache is the narrow persistence capability Builder needs: fetch and
// store a matrix keyed by a deterministic hash of the location set. The
// concrete backends (memory, Redis, Postgres) live in internal/cache and
// satisfy this interface without Builder importing that package
// directly, keeping the dependency direction one-way.
type Cache interface {
	GetMatrix(ctx context.Context, key string) (model.CacheEntry, bool, error)
	PutMatrix(ctx context.Context, key string, entry model.CacheEntry, ttlSeconds int64) error
}

// CacheKey deterministically hashes a location set so the same set of
// stops (regardless of input order) maps to the same cache entry,
// grounded on the teacher's computeDedupKey (sha256 + hex) pattern from
// its Postgres store. Coordinates are rounded to 5 decimal places
// (~1.1m) before hashing so float jitter across requests doesn't cause
// spurious cache misses.
func CacheKey(locations []model.Location) string {
	type coord struct {
		id       string
		lat, lon float64
	}
	coords := make([]coord, len(locations))
	for i, l := range locations {
		coords[i] = coord{id: l.ID, lat: round5(l.Latitude), lon: round5(l.Longitude)}
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].id < coords[j].id })

	h := sha256.New()
	for _, c := range coords {
		fmt.Fprintf(h, "%s:%.5f:%.5f|", c.id, c.lat, c.lon)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func round5(f float64) float64 {
	const scale = 1e5
	return float64(int64(f*scale+sign(f)*0.5)) / scale
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
