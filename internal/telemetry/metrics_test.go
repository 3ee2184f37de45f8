package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordTick(150 * time.Millisecond)
	m.RecordSkippedTick()
	m.RecordSkippedTick()
	m.RecordFetch(FetchOK)
	m.RecordFetch(FetchNetwork)
	m.RecordMatch(true)
	m.RecordMatch(false)
	m.RecordMatch(false)
	m.SetMonitoringEnabled(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicksTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksSkippedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(FetchNetwork)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MonitoringEnabled))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTick(time.Second)
		m.RecordSkippedTick()
		m.RecordFetch(FetchStatus)
		m.RecordMatch(true)
		m.RecordNotifyFailure()
		m.RecordStorageError()
		m.RecordObservation("accepted")
		m.SetMonitoringEnabled(false)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordSkippedTick()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "keywatch_ticks_skipped_total 1")
}
