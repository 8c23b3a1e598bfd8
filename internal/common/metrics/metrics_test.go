package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCandidate(OutcomeMalformed)
	m.RecordCandidate(OutcomeMalformed)
	m.RecordCandidate(OutcomeAccepted)
	m.RecordArchive(ArchiveFailed)
	m.RecordRun("SUCCESS", 850)
	m.RecordRun("FAILURE", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues(OutcomeMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArchivesTotal.WithLabelValues(ArchiveFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("FAILURE")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CreditScore))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a := New(nil)
	b := New(nil)

	a.RecordCandidate(OutcomeEmpty)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CandidatesTotal.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CandidatesTotal.WithLabelValues(OutcomeEmpty)))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCandidate(OutcomeSkipped)
		m.RecordArchive(ArchiveExtracted)
		m.ObserveStage("locating", time.Millisecond)
		m.RecordRun("SUCCESS", 700)
		require.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
	})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New(nil)
	m.ObserveStage("scoring", 2*time.Millisecond)
	m.RecordRun("SUCCESS", 742)

	path := filepath.Join(t.TempDir(), "scorer.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scorer_runs_total{status="SUCCESS"} 1`)
	assert.Contains(t, string(data), `scorer_stage_duration_seconds_count{stage="scoring"} 1`)
}
