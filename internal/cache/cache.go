// Package cache provides the backends that back distance-matrix and
// optimization-result caching: an in-process map for tests and small
// deployments, Redis for shared low-latency caching across instances,
// and Postgres for a durable record of what was computed. All three
// satisfy the same narrow Cache interface so callers (internal/matrix,
// internal/optimizer) never branch on backend.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"routeopt/internal/model"
)

// Cache is the generic byte-oriented store every backend implements.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MatrixCache adapts a generic Cache into the matrix.Cache interface by
// marshaling/unmarshaling model.CacheEntry as JSON, so any Cache backend
// can serve as the matrix builder's cache without a bespoke
// implementation per backend.
type MatrixCache struct {
	Backend Cache
}

func NewMatrixCache(backend Cache) *MatrixCache {
	return &MatrixCache{Backend: backend}
}

func (m *MatrixCache) GetMatrix(ctx context.Context, key string) (model.CacheEntry, bool, error) {
	raw, ok, err := m.Backend.Get(ctx, "matrix:"+key)
	if err != nil || !ok {
		return model.CacheEntry{}, ok, err
	}
	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return model.CacheEntry{}, false, err
	}
	return entry, true, nil
}

func (m *MatrixCache) PutMatrix(ctx context.Context, key string, entry model.CacheEntry, ttlSeconds int64) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return m.Backend.Put(ctx, "matrix:"+key, raw, time.Duration(ttlSeconds)*time.Second)
}

// ResultCache adapts a generic Cache for optimizer results, using a
// distinct key namespace from MatrixCache so the two never collide in a
// shared backend.
type ResultCache struct {
	Backend Cache
}

func NewResultCache(backend Cache) *ResultCache {
	return &ResultCache{Backend: backend}
}

func (r *ResultCache) GetSolution(ctx context.Context, key string) (model.Solution, bool, error) {
	raw, ok, err := r.Backend.Get(ctx, "result:"+key)
	if err != nil || !ok {
		return model.Solution{}, ok, err
	}
	var sol model.Solution
	if err := json.Unmarshal(raw, &sol); err != nil {
		return model.Solution{}, false, err
	}
	return sol, true, nil
}

func (r *ResultCache) PutSolution(ctx context.Context, key string, sol model.Solution, ttl time.Duration) error {
	raw, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	return r.Backend.Put(ctx, "result:"+key, raw, ttl)
}
