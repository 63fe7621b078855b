package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the request collectors shared by every route.
type HTTPMetrics struct {
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	ResponseBytes *prometheus.HistogramVec
	InFlight      prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors on reg, reusing any that are
// already registered. Latency buckets are in seconds; nil selects
// prometheus.DefBuckets.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	return &HTTPMetrics{
		Requests: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"})),
		Latency: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		ResponseBytes: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body sizes by route pattern.",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 7),
		}, []string{"route"})),
		InFlight: registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		})),
	}
}
