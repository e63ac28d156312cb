package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for closed exchanges.
const (
	OutcomeTimeout          = "timeout"
	OutcomeFinish           = "finish"
	OutcomeDisputeOwner     = "dispute_owner"
	OutcomeDisputeRequester = "dispute_requester"
)

// Metrics provides observability for the exchange module.
type Metrics struct {
	Proposed prometheus.Counter

	// Closed exchanges by outcome
	Closed *prometheus.CounterVec

	// Value moved into and out of escrow
	EscrowLocked   prometheus.Counter
	EscrowReleased prometheus.Counter

	// Operation latency by operation name
	OperationLatency *prometheus.HistogramVec
}

// New registers exchange metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Proposed: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_exchanges_proposed_total",
			Help: "Total private data exchanges proposed",
		}),
		Closed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_exchanges_closed_total",
			Help: "Total private data exchanges closed by outcome",
		}, []string{"outcome"}),
		EscrowLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_escrow_locked_units_total",
			Help: "Value units locked into exchange escrow",
		}),
		EscrowReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_escrow_released_units_total",
			Help: "Value units released from exchange escrow",
		}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "passport_exchange_operation_duration_seconds",
			Help:    "Duration of exchange operations including the transaction",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementProposed(stake uint64) {
	if m != nil {
		m.Proposed.Inc()
		m.EscrowLocked.Add(float64(stake))
	}
}

func (m *Metrics) IncrementLocked(amount uint64) {
	if m != nil {
		m.EscrowLocked.Add(float64(amount))
	}
}

// IncrementClosed records one close and the value it released.
func (m *Metrics) IncrementClosed(outcome string, released uint64) {
	if m != nil {
		m.Closed.WithLabelValues(outcome).Inc()
		m.EscrowReleased.Add(float64(released))
	}
}

func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
