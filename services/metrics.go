package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portkeeper_request_total",
			Help: "Total API requests",
		},
		[]string{"route"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portkeeper_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	activeTunnels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portkeeper_active_tunnels",
			Help: "Number of registered running tunnels",
		},
	)

	totalRequests int64
	errorRequests int64
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(activeTunnels)
}

// IncrementRequestCount counts one handled API request.
func IncrementRequestCount(route string) {
	requestCount.WithLabelValues(route).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

// RecordRequestDuration records one request's handling time in seconds.
func RecordRequestDuration(route string, seconds float64) {
	requestDuration.WithLabelValues(route).Observe(seconds)
}

// IncrementErrorCount counts one request that ended with status >= 400.
func IncrementErrorCount(route string) {
	atomic.AddInt64(&errorRequests, 1)
}

// GetTotalRequestCount returns the process-lifetime request count.
func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

// GetTotalErrorCount returns the process-lifetime error-request count.
func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&errorRequests)
}
