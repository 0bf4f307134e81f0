package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the status workflow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	StatusTransitions  *prometheus.CounterVec
	TransitionRejected *prometheus.CounterVec
	ConcurrentConflict prometheus.Counter
	BulkItems          *prometheus.CounterVec
	ActivityDropped    prometheus.Counter
	ActivityPersisted  prometheus.Counter
	MigrationsApplied  prometheus.Counter
	MigrationRows      *prometheus.CounterVec
	IntegrityRepairs   prometheus.Counter
	StatusChangeTime   prometheus.Histogram
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrack_status_transitions_total",
			Help: "Status changes committed, by target status code and origin",
		}, []string{"to", "origin"}),
		TransitionRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrack_status_transitions_rejected_total",
			Help: "Status changes rejected by the workflow",
		}, []string{"reason"}),
		ConcurrentConflict: factory.NewCounter(prometheus.CounterOpts{
			Name: "casetrack_status_version_conflicts_total",
			Help: "Status changes aborted because the case version moved",
		}),
		BulkItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrack_bulk_items_total",
			Help: "Bulk operation items, by operation and outcome",
		}, []string{"operation", "outcome"}),
		ActivityDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "casetrack_activity_dropped_total",
			Help: "Activity entries dropped because the buffer was full",
		}),
		ActivityPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "casetrack_activity_persisted_total",
			Help: "Activity entries written to the database",
		}),
		MigrationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "casetrack_migrations_applied_total",
			Help: "Data migrations applied since start",
		}),
		MigrationRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrack_migration_rows_total",
			Help: "Rows changed by data migrations",
		}, []string{"migration"}),
		IntegrityRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "casetrack_integrity_repairs_total",
			Help: "Cases whose duplicated active statuses were repaired",
		}),
		StatusChangeTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casetrack_status_change_duration_seconds",
			Help:    "Duration of the status change transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncTransition(to, origin string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(to, origin).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.TransitionRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncConflict() {
	if m == nil {
		return
	}
	m.ConcurrentConflict.Inc()
}

func (m *Metrics) IncBulkItem(operation string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "successful"
	}
	m.BulkItems.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncActivityDropped() {
	if m == nil {
		return
	}
	m.ActivityDropped.Inc()
}

func (m *Metrics) IncActivityPersisted() {
	if m == nil {
		return
	}
	m.ActivityPersisted.Inc()
}

func (m *Metrics) ObserveMigration(id string, rows int64) {
	if m == nil {
		return
	}
	m.MigrationsApplied.Inc()
	m.MigrationRows.WithLabelValues(id).Add(float64(rows))
}

func (m *Metrics) IncIntegrityRepair() {
	if m == nil {
		return
	}
	m.IntegrityRepairs.Inc()
}

// ObserveStatusChange records the duration of a status change.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStatusChange(start time.Time) {
	if m == nil {
		return
	}
	m.StatusChangeTime.Observe(time.Since(start).Seconds())
}
