// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	PoolsObserved     prometheus.Counter
	DuplicatePools    prometheus.Counter
	MalformedAccounts prometheus.Counter
	DetectionLatency  prometheus.Histogram

	// Risk metrics
	RiskChecks       *prometheus.CounterVec
	RiskCheckLatency prometheus.Histogram

	// Trade metrics
	TradesExecuted   prometheus.Counter
	TradesFailed     *prometheus.CounterVec
	RelaySubmissions *prometheus.CounterVec

	// Engine metrics
	HandlersInFlight prometheus.Gauge
	WalletLamports   prometheus.Gauge

	// Storage metrics
	StoreErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sniper_engine"
	}

	return &Metrics{
		// Feed metrics
		PoolsObserved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pools_observed_total",
			Help:      "Total number of new pool events observed",
		}),
		DuplicatePools: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "duplicate_pools_total",
			Help:      "Total number of pool events dropped as duplicates",
		}),
		MalformedAccounts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "malformed_accounts_total",
			Help:      "Total number of account notifications that failed to decode",
		}),
		DetectionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "detection_latency_seconds",
			Help:      "Latency from notification receipt to pipeline handoff",
			Buckets:   prometheus.DefBuckets,
		}),

		// Risk metrics
		RiskChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "checks_total",
			Help:      "Total number of risk gate checks by outcome",
		}, []string{"outcome"}),
		RiskCheckLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "check_latency_seconds",
			Help:      "Risk oracle call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Trade metrics
		TradesExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "executed_total",
			Help:      "Total number of buys broadcast and recorded",
		}),
		TradesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "failed_total",
			Help:      "Total number of failed buy attempts by reason",
		}, []string{"reason"}),
		RelaySubmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "relay_submissions_total",
			Help:      "Total number of relay submissions by endpoint outcome",
		}, []string{"outcome"}),

		// Engine metrics
		HandlersInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "handlers_in_flight",
			Help:      "Number of pool events currently being processed",
		}),
		WalletLamports: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "wallet_lamports",
			Help:      "Last observed wallet balance in lamports",
		}),

		// Storage metrics
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of storage operation failures",
		}, []string{"store", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
