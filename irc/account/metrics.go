package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry is the Prometheus registry used by this package
	Registry = prometheus.NewRegistry()

	// HandshakesTotal counts finished handshakes by operation and result kind
	HandshakesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircd_account_handshakes_total",
			Help: "Total number of account handshakes with the IRC daemon by result",
		},
		[]string{"operation", "result"},
	)

	// HandshakeDuration measures handshake latency, connect excluded
	HandshakeDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ircd_account_handshake_duration_seconds",
			Help:    "Account handshake latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ConnectFailures counts refused or timed out dials
	ConnectFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ircd_account_connect_failures_total",
			Help: "Total number of failed connections to the IRC daemon",
		},
	)
)

func observe(operation string, res Result, seconds float64) {
	HandshakesTotal.WithLabelValues(operation, res.Kind.String()).Inc()
	HandshakeDuration.WithLabelValues(operation).Observe(seconds)
}
