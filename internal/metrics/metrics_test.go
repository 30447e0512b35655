package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSplit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSplit("hybrid", 2, 3*time.Millisecond)
	m.ObserveSplit("hybrid", 1, time.Millisecond)
	m.ObserveSplit("equal", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SplitsComputed.WithLabelValues("hybrid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SplitWarnings.WithLabelValues("hybrid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SplitsComputed.WithLabelValues("equal")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SplitDuration))
}

func TestObserveFailuresAndRPCs(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidationFailure()
	m.ObserveRPC("/tipsplit.v1.SplitService/ComputeSplits", "ok")
	m.ObserveRPC("/tipsplit.v1.SplitService/ComputeSplits", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("/tipsplit.v1.SplitService/ComputeSplits", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSplit("equal", 0, time.Millisecond)
		m.ObserveValidationFailure()
		m.ObserveRPC("p", "ok")
	})
}
