package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth flow metrics

	LinksIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hallpass",
		Name:      "magic_links_issued_total",
		Help:      "Total magic links issued, by flow.",
	}, []string{"flow"})

	VerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hallpass",
		Name:      "verify_total",
		Help:      "Total verification attempts, by outcome.",
	}, []string{"outcome"})

	// Reaper metrics

	ReaperClearedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hallpass",
		Name:      "reaper_cleared_total",
		Help:      "Total expired tokens cleared by the reaper.",
	})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hallpass",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hallpass",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hallpass",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LinksIssuedTotal,
		VerifyTotal,
		ReaperClearedTotal,
		ReaperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// HealthHandler is satisfied by *health.Checker.
type HealthHandler interface {
	LivenessHandler() http.Handler
	ReadinessHandler() http.Handler
}

// NewServer returns the internal server exposing /metrics, /healthz
// and /readyz, kept off the public listener.
func NewServer(addr string, checker HealthHandler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	return &http.Server{Addr: addr, Handler: mux}
}
