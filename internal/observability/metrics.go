// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Upstream metrics
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec

	// Resolver metrics
	StrategyOutcomes *prometheus.CounterVec
	SentinelsServed  *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests      *prometheus.CounterVec
	StreamConnections prometheus.Gauge

	// Gate metrics
	WalletVerifications *prometheus.CounterVec

	// Archive metrics
	ArchiveWriteErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "mnm_site"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		UpstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of upstream calls by service, operation and outcome",
		}, []string{"service", "operation", "outcome"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_latency_seconds",
			Help:      "Upstream call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),

		StrategyOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "strategy_outcomes_total",
			Help:      "Strategy outcomes by resolver, strategy and result",
		}, []string{"resolver", "strategy", "result"}),
		SentinelsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "sentinels_served_total",
			Help:      "Unavailable payloads served by resolver",
		}, []string{"resolver"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		StreamConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_connections",
			Help:      "Currently open price stream connections",
		}),

		WalletVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verifications_total",
			Help:      "Wallet verifications by result (granted, denied, failed)",
		}, []string{"result"}),

		ArchiveWriteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "write_errors_total",
			Help:      "Archive write failures by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordUpstreamCall records one upstream call.
func RecordUpstreamCall(service, operation string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.UpstreamCalls.WithLabelValues(service, operation, outcome).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(service, operation).Observe(seconds)
}

// RecordStrategyOutcome records whether a resolver strategy hit or fell through.
func RecordStrategyOutcome(resolver, strategy string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.StrategyOutcomes.WithLabelValues(resolver, strategy, result).Inc()
}

// RecordSentinel records an unavailable payload.
func RecordSentinel(resolver string) {
	DefaultMetrics.SentinelsServed.WithLabelValues(resolver).Inc()
}

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(route, method string, code int) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

// StreamOpened increments the open stream gauge.
func StreamOpened() {
	DefaultMetrics.StreamConnections.Inc()
}

// StreamClosed decrements the open stream gauge.
func StreamClosed() {
	DefaultMetrics.StreamConnections.Dec()
}

// RecordVerification records a wallet verification result.
func RecordVerification(result string) {
	DefaultMetrics.WalletVerifications.WithLabelValues(result).Inc()
}

// RecordArchiveError records a failed archive write.
func RecordArchiveError(store string) {
	DefaultMetrics.ArchiveWriteErrors.WithLabelValues(store).Inc()
}
