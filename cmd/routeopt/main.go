package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"routeopt/internal/api"
	"routeopt/internal/cache"
	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/matrix"
	"routeopt/internal/metrics"
	"routeopt/internal/optimizer"
	"routeopt/internal/reroute"
	"routeopt/internal/vrp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics.RegisterDefault()

	backend := selectCacheBackend(cfg)
	matrixCache := cache.NewMatrixCache(backend)
	resultCache := cache.NewResultCache(backend)

	var provider matrix.Provider
	if cfg.GoogleMapsAPIKey != "" {
		provider = matrix.NewHTTPProvider(
			"https://maps.googleapis.com/maps/api/distancematrix/json",
			cfg.GoogleMapsAPIKey,
			cfg.MaxRetries,
			cfg.BackoffFactor,
			cfg.RetryDelay(),
		)
	}
	mb := matrix.NewBuilder(provider, matrixCache, int64(cfg.CacheExpiry().Seconds()))

	opt := optimizer.New(mb, vrp.DefaultSolver{}, geo.Dijkstra{}, resultCache, cfg.ResultCacheTimeout(), cfg.GoogleMapsAPIKey)
	opt.Testing = cfg.Testing
	rr := reroute.New(opt)
	srv := api.New(opt, rr)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/optimize", srv.OptimizeHandler)
	mux.HandleFunc("/v1/reroute", srv.RerouteHandler)
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.Handle("/metrics", metrics.Handler())

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("route optimization engine listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func selectCacheBackend(cfg config.Config) cache.Cache {
	if cfg.DatabaseURL != "" {
		pg, err := cache.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Printf("postgres cache unavailable, falling back to memory: %v", err)
		} else {
			return pg
		}
	}
	if cfg.RedisURL != "" {
		rd, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("redis cache unavailable, falling back to memory: %v", err)
		} else {
			return rd
		}
	}
	return cache.NewMemory()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, time.Since(start))
	})
}
