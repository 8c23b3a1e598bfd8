// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate outcomes recorded by the input locator.
const (
	OutcomeAccepted  = "accepted"
	OutcomeEmpty     = "empty"
	OutcomeNoObject  = "no_object"
	OutcomeMalformed = "malformed"
	OutcomeNoProfile = "no_profile"
	OutcomeSkipped   = "skipped"
)

// Archive extraction results.
const (
	ArchiveExtracted = "extracted"
	ArchiveFailed    = "failed"
)

// Metrics holds the runner's collectors. All of them live on one registry so
// a run can be dumped to a textfile without touching the global default.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	CandidatesTotal *prometheus.CounterVec
	ArchivesTotal   *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	CreditScore     prometheus.Histogram
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorer_runs_total",
				Help: "Total number of scoring runs by terminal status",
			},
			[]string{"status"},
		),

		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorer_candidates_total",
				Help: "Candidate sources examined by the input locator, by outcome",
			},
			[]string{"outcome"},
		),

		ArchivesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorer_archives_total",
				Help: "Archives found during input expansion, by extraction result",
			},
			[]string{"result"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorer_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"stage"},
		),

		CreditScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scorer_credit_score",
				Help:    "Distribution of emitted credit scores",
				Buckets: []float64{300, 580, 670, 740, 800, 850},
			},
		),
	}
}

func (m *Metrics) RecordCandidate(outcome string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordArchive(result string) {
	if m == nil {
		return
	}
	m.ArchivesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordRun(status string, score int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if score > 0 {
		m.CreditScore.Observe(float64(score))
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
