package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kalpdemo",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Total number of gateway calls by contract method and outcome.",
		},
		[]string{"method", "kind", "outcome"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kalpdemo",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of gateway calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"method", "kind"},
	)

	viewInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kalpdemo",
			Subsystem: "view",
			Name:      "inflight_calls",
			Help:      "Current number of in-flight calls per view.",
		},
		[]string{"view"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kalpdemo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kalpdemo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(gatewayCalls, gatewayDuration, viewInFlight, httpRequests, httpDuration)
}

// Outcome labels for gateway calls.
const (
	OutcomeOK             = "ok"
	OutcomeStatusError    = "status_error"
	OutcomeTransportError = "transport_error"
)

// ObserveGatewayCall records one finished gateway call.
func ObserveGatewayCall(method, kind, outcome string, d time.Duration) {
	gatewayCalls.WithLabelValues(method, kind, outcome).Inc()
	gatewayDuration.WithLabelValues(method, kind).Observe(d.Seconds())
}

// SetInFlight records how many calls a view currently has running.
func SetInFlight(view string, n int) {
	viewInFlight.WithLabelValues(view).Set(float64(n))
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler counts requests and their duration under a fixed route label.
func InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
