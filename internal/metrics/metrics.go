// Package metrics defines the Prometheus collectors exported by tipsplit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for split calculations and RPC traffic.
type Metrics struct {
	SplitsComputed     *prometheus.CounterVec
	SplitWarnings      *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	SplitDuration      *prometheus.HistogramVec
	RPCRequests        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SplitsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipsplit",
			Name:      "splits_computed_total",
			Help:      "Splits computed, by rule type.",
		}, []string{"rule"}),
		SplitWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipsplit",
			Name:      "split_warnings_total",
			Help:      "Warnings attached to computed splits, by rule type.",
		}, []string{"rule"}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tipsplit",
			Name:      "split_validation_failures_total",
			Help:      "Split requests rejected by input validation.",
		}),
		SplitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tipsplit",
			Name:      "split_duration_seconds",
			Help:      "Time spent computing a split.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"rule"}),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipsplit",
			Name:      "rpc_requests_total",
			Help:      "RPC requests, by procedure and result code.",
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.SplitsComputed, m.SplitWarnings, m.ValidationFailures, m.SplitDuration, m.RPCRequests)
	return m
}

// ObserveSplit records one successful split.
func (m *Metrics) ObserveSplit(rule string, warnings int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SplitsComputed.WithLabelValues(rule).Inc()
	m.SplitWarnings.WithLabelValues(rule).Add(float64(warnings))
	m.SplitDuration.WithLabelValues(rule).Observe(elapsed.Seconds())
}

// ObserveValidationFailure records a rejected split request.
func (m *Metrics) ObserveValidationFailure() {
	if m == nil {
		return
	}
	m.ValidationFailures.Inc()
}

// ObserveRPC records one RPC outcome.
func (m *Metrics) ObserveRPC(procedure, code string) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
}
