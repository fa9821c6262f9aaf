package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Navigation outcomes.
const (
	NavigationMoved    = "moved"
	NavigationUnknown  = "unknown_person"
	NavigationRestored = "restored"
)

// Metrics provides observability for tree loading, navigation and search.
type Metrics struct {
	TreePersons           prometheus.Gauge
	TreeUnresolvedParents prometheus.Gauge
	RecordsIngested       prometheus.Counter
	RecordsSkipped        prometheus.Counter
	TreeBuilds            *prometheus.CounterVec
	SearchDuration        prometheus.Histogram
	Navigations           *prometheus.CounterVec
}

// New registers all genealogy metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TreePersons: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_tree_persons",
			Help: "Number of persons in the currently published tree",
		}),
		TreeUnresolvedParents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_tree_unresolved_parents",
			Help: "Persons whose parent reference or hints matched nobody",
		}),
		RecordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "lineage_records_ingested_total",
			Help: "Total number of source records fed into tree builds",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "lineage_records_skipped_total",
			Help: "Total number of source records skipped for lacking a name",
		}),
		TreeBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_tree_builds_total",
			Help: "Tree builds by outcome",
		}, []string{"outcome"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_search_duration_ms",
			Help:    "Duration of person searches in milliseconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
		Navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_navigations_total",
			Help: "Navigation commands by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveBuild records a finished tree build and publishes its size.
func (m *Metrics) ObserveBuild(persons, unresolved, records, skipped int) {
	m.TreeBuilds.WithLabelValues(OutcomeSuccess).Inc()
	m.TreePersons.Set(float64(persons))
	m.TreeUnresolvedParents.Set(float64(unresolved))
	m.RecordsIngested.Add(float64(records))
	m.RecordsSkipped.Add(float64(skipped))
}

// IncrementBuildFailure records a load that was aborted before publishing.
func (m *Metrics) IncrementBuildFailure() {
	m.TreeBuilds.WithLabelValues(OutcomeFailure).Inc()
}

// ObserveSearch records the duration of one search.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSearch(start time.Time) {
	m.SearchDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func (m *Metrics) IncrementNavigation(outcome string) {
	m.Navigations.WithLabelValues(outcome).Inc()
}
