// Package telemetry exposes Prometheus metrics for the poller.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "keywatch"

// Fetch outcomes
const (
	FetchOK      = "ok"
	FetchStatus  = "status"
	FetchNetwork = "network"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing, which keeps tests free of registries.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal          prometheus.Counter
	TicksSkippedTotal   prometheus.Counter
	TickDuration        prometheus.Histogram
	FetchesTotal        *prometheus.CounterVec
	MatchesTotal        *prometheus.CounterVec
	NotifyFailuresTotal prometheus.Counter
	StorageErrorsTotal  prometheus.Counter
	ObservationsTotal   *prometheus.CounterVec
	MonitoringEnabled   prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "ticks_total",
			Help:      "Poll cycles that ran to completion",
		}),
		TicksSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "ticks_skipped_total",
			Help:      "Timer fires dropped because a poll cycle was still running",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full poll cycle",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "fetches_total",
			Help:      "URL fetches by outcome",
		}, []string{"result"}),
		MatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "matches_total",
			Help:      "Keyword matches by whether they were new",
		}, []string{"result"}),
		NotifyFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "notify_failures_total",
			Help:      "Notifications that could not be fully delivered",
		}),
		StorageErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "storage_errors_total",
			Help:      "Failed reads or writes against the local store",
		}),
		ObservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "observations_total",
			Help:      "Observer submissions by outcome",
		}, []string{"result"}),
		MonitoringEnabled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "monitoring_enabled",
			Help:      "1 when polling is enabled",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.TickDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordSkippedTick() {
	if m == nil {
		return
	}
	m.TicksSkippedTotal.Inc()
}

func (m *Metrics) RecordFetch(result string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordMatch(isNew bool) {
	if m == nil {
		return
	}
	result := "duplicate"
	if isNew {
		result = "new"
	}
	m.MatchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailuresTotal.Inc()
}

func (m *Metrics) RecordStorageError() {
	if m == nil {
		return
	}
	m.StorageErrorsTotal.Inc()
}

func (m *Metrics) RecordObservation(result string) {
	if m == nil {
		return
	}
	m.ObservationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetMonitoringEnabled(enabled bool) {
	if m == nil {
		return
	}
	if enabled {
		m.MonitoringEnabled.Set(1)
		return
	}
	m.MonitoringEnabled.Set(0)
}
