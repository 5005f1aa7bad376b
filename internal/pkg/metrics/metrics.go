package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	eventTransitions     *prometheus.CounterVec
	reconcileCorrections prometheus.Counter
	reservationsCreated  prometheus.Counter
	reservationsRejected *prometheus.CounterVec
	reservationsExpired  prometheus.Counter
	maintenanceRuns      *prometheus.CounterVec
}

// New registers the engine metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	promautoFactory := promauto.With(reg)
	return &Metrics{
		eventTransitions: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "campushub_event_transitions_total",
			Help: "number of event state transitions",
		}, []string{"from", "to"}),
		reconcileCorrections: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "campushub_reconcile_corrections_total",
			Help: "number of event college copies corrected by reconciliation",
		}),
		reservationsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "campushub_reservations_created_total",
			Help: "number of study space reservations created",
		}),
		reservationsRejected: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "campushub_reservations_rejected_total",
			Help: "number of reservation requests refused",
		}, []string{"reason"}),
		reservationsExpired: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "campushub_reservations_expired_total",
			Help: "number of reservations moved to COMPLETED by expiry",
		}),
		maintenanceRuns: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "campushub_maintenance_runs_total",
			Help: "number of maintenance job runs",
		}, []string{"job", "result"}),
	}
}

func (m *Metrics) EventTransition(from, to string) {
	if m == nil {
		return
	}
	m.eventTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ReconcileCorrections(n int) {
	if m == nil {
		return
	}
	m.reconcileCorrections.Add(float64(n))
}

func (m *Metrics) ReservationCreated() {
	if m == nil {
		return
	}
	m.reservationsCreated.Inc()
}

func (m *Metrics) ReservationRejected(reason string) {
	if m == nil {
		return
	}
	m.reservationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReservationsExpired(n int) {
	if m == nil {
		return
	}
	m.reservationsExpired.Add(float64(n))
}

// MaintenanceRun records a job outcome: "ok", "error" or "skipped"
func (m *Metrics) MaintenanceRun(job, result string) {
	if m == nil {
		return
	}
	m.maintenanceRuns.WithLabelValues(job, result).Inc()
}
