// Package metrics instruments sessions, decoders and ensemble runs with
// Prometheus collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uistream"

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	patches         *prometheus.CounterVec
	malformedLines  prometheus.Counter
	sessions        *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	ensembleEvents  *prometheus.CounterVec
	ensembleRuns    *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		patches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patches_total",
			Help:      "Patches handed to the applier, by outcome",
		}, []string{"outcome"}),
		malformedLines: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_lines_total",
			Help:      "Stream lines that did not decode as a patch",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Stream sessions by terminal state",
		}, []string{"state"}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Stream session duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		ensembleEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ensemble_events_total",
			Help:      "Ensemble channel events by type",
		}, []string{"type"}),
		ensembleRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ensemble_runs_total",
			Help:      "Ensemble runs by terminal state",
		}, []string{"state"}),
	}
}

// Patch counts one patch with the given outcome.
func (m *Metrics) Patch(outcome string) {
	if m == nil {
		return
	}
	m.patches.WithLabelValues(outcome).Inc()
}

// MalformedLine counts one undecodable line.
func (m *Metrics) MalformedLine() {
	if m == nil {
		return
	}
	m.malformedLines.Inc()
}

// SessionEnded records a session's terminal state and duration.
func (m *Metrics) SessionEnded(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(state).Inc()
	m.sessionDuration.Observe(d.Seconds())
}

// EnsembleEvent counts one ensemble channel event.
func (m *Metrics) EnsembleEvent(typ string) {
	if m == nil {
		return
	}
	m.ensembleEvents.WithLabelValues(typ).Inc()
}

// EnsembleEnded counts a finished ensemble run.
func (m *Metrics) EnsembleEnded(state string) {
	if m == nil {
		return
	}
	m.ensembleRuns.WithLabelValues(state).Inc()
}
