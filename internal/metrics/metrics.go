package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters, labelled by source.
type Metrics struct {
	CandidatesTotal     *prometheus.CounterVec
	DetailFailuresTotal *prometheus.CounterVec
	FilteredTotal       *prometheus.CounterVec
	DuplicatesTotal     *prometheus.CounterVec
	EmittedTotal        *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
}

// NewMetrics registers the counters on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CandidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_candidates_total",
			Help: "Candidates received from the listing pages.",
		}, []string{"source"}),
		DetailFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_detail_failures_total",
			Help: "Detail pages that could not be fetched or parsed.",
		}, []string{"source"}),
		FilteredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_filtered_total",
			Help: "Candidates dropped by the listing filter.",
		}, []string{"source", "reason"}),
		DuplicatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_duplicates_total",
			Help: "Candidates dropped as duplicates within a run.",
		}, []string{"source"}),
		EmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_emitted_total",
			Help: "Records written to the output sinks.",
		}, []string{"source"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listings_run_duration_seconds",
			Help:    "Duration of a full run over one source.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"source", "status"}),
	}
}

func (m *Metrics) IncCandidates(source string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncDetailFailures(source string) {
	if m == nil {
		return
	}
	m.DetailFailuresTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncFiltered(source, reason string) {
	if m == nil {
		return
	}
	m.FilteredTotal.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) IncDuplicates(source string) {
	if m == nil {
		return
	}
	m.DuplicatesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncEmitted(source string) {
	if m == nil {
		return
	}
	m.EmittedTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRun(source, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(source, status).Observe(seconds)
}
