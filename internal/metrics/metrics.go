// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Metrics groups every collector the service reports. A nil *Metrics is
// valid and records nothing, so library callers can skip instrumentation.
type Metrics struct {
	computations    *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	warnings        *prometheus.CounterVec
	paymentsOK      *prometheus.CounterVec
	paymentsBad     prometheus.Counter
	reminders       prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "computations_total",
			Help:      "Balance and settlement computations, by operation.",
		}, []string{"operation"}),
		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "compute_duration_seconds",
			Help:      "Time spent loading and folding a group's ledger.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "warnings_total",
			Help:      "Split mismatches and ledger imbalances found while computing.",
		}, []string{"kind"}),
		paymentsOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded, by method.",
		}, []string{"method"}),
		paymentsBad: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Payments rejected by validation.",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Settlement reminders published.",
		}),
	}

	reg.MustRegister(
		m.computations,
		m.computeDuration,
		m.warnings,
		m.paymentsOK,
		m.paymentsBad,
		m.reminders,
	)
	return m
}

// ObserveComputation counts one computation and how long it took.
func (m *Metrics) ObserveComputation(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(operation).Inc()
	m.computeDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) Warning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

func (m *Metrics) PaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.paymentsOK.WithLabelValues(method).Inc()
}

func (m *Metrics) PaymentRejected() {
	if m == nil {
		return
	}
	m.paymentsBad.Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.reminders.Inc()
}
