package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveDuration records how long a VRP solve took, labeled by
	// whether time windows were considered.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vrp_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"mode"},
	)
	// SolveStatus counts solves by their terminal status.
	SolveStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_solve_status_total", Help: "Solves by status."},
		[]string{"status"},
	)
	// CacheOutcomes counts cache lookups by namespace (matrix, result)
	// and outcome (hit, miss, error).
	CacheOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_cache_outcomes_total", Help: "Cache lookups by namespace and outcome."},
		[]string{"namespace", "outcome"},
	)
	// ProviderRetries counts distance-matrix provider retry attempts.
	ProviderRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_provider_retries_total", Help: "Distance-matrix provider retry attempts."},
		[]string{"outcome"},
	)
)

// RegisterDefault registers every collector to Registry exactly once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveStatus)
		Registry.MustRegister(CacheOutcomes)
		Registry.MustRegister(ProviderRetries)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler serves Registry's collected metrics for a Prometheus scrape.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
