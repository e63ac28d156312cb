package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP transport metrics.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	RequestsTotal  *prometheus.CounterVec
}

// New creates and registers the transport metrics on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the transport metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "passport_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
