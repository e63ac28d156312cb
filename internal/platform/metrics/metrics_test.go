package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.ObserveRequest("/v1/passports", "POST", 201, 10*time.Millisecond)
	m.ObserveRequest("/v1/passports", "POST", 201, 20*time.Millisecond)
	m.ObserveRequest("/v1/passports", "POST", 400, time.Millisecond)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/passports", "POST", "201")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/passports", "POST", "400")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.RequestLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRequest("/", "GET", 200, time.Second) })
}
