// Package metrics provides Prometheus metrics for the laddergen replay pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus metrics for a replay run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	matchesReplayed *prometheus.CounterVec
	matchesSkipped  *prometheus.CounterVec
	ratingEvents    prometheus.Counter
	replayDuration  *prometheus.HistogramVec
	ladderEntities  *prometheus.GaugeVec
	runsTotal       prometheus.Counter
}

// Global manager backed by its own registry so the default Go collectors
// never leak into the exported set.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "laddergen",
		subsystem:        "replay",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	m.matchesReplayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_replayed_total",
		Help:      "Matches successfully replayed through the rating model.",
	}, []string{"category"})

	m.matchesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_skipped_total",
		Help:      "Matches skipped with a warning during replay.",
	}, []string{"category", "reason"})

	m.ratingEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_events_total",
		Help:      "Rating events produced across all replays.",
	})

	m.replayDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of one category replay.",
		Buckets:   m.histogramBuckets,
	}, []string{"category"})

	m.ladderEntities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ladder_entities",
		Help:      "Entities listed on the most recently published ladder.",
	}, []string{"category", "role"})

	m.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Completed end-to-end runs.",
	})

	m.registry.MustRegister(
		m.matchesReplayed,
		m.matchesSkipped,
		m.ratingEvents,
		m.replayDuration,
		m.ladderEntities,
		m.runsTotal,
	)
}

// Registry exposes the manager's registry for an HTTP /metrics handler.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordMatchReplayed increments the replayed counter for a category.
func (m *Manager) RecordMatchReplayed(category string) {
	if !m.enabled {
		return
	}
	m.matchesReplayed.WithLabelValues(category).Inc()
}

// RecordMatchSkipped increments the skipped counter for a category and reason.
func (m *Manager) RecordMatchSkipped(category, reason string) {
	if !m.enabled {
		return
	}
	m.matchesSkipped.WithLabelValues(category, reason).Inc()
}

// RecordRatingEvents adds to the rating event counter.
func (m *Manager) RecordRatingEvents(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.ratingEvents.Add(float64(n))
}

// ObserveReplayDuration records the wall time of one category replay.
func (m *Manager) ObserveReplayDuration(category string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.replayDuration.WithLabelValues(category).Observe(d.Seconds())
}

// UpdateLadderEntities sets the published ladder size for a segment.
func (m *Manager) UpdateLadderEntities(category, role string, n int) {
	if !m.enabled {
		return
	}
	m.ladderEntities.WithLabelValues(category, role).Set(float64(n))
}

// RecordRunCompleted increments the completed-run counter.
func (m *Manager) RecordRunCompleted() {
	if !m.enabled {
		return
	}
	m.runsTotal.Inc()
}

// Package-level helpers delegating to the global manager.

func Registry() *prometheus.Registry                          { return globalManager.Registry() }
func RecordMatchReplayed(category string)                     { globalManager.RecordMatchReplayed(category) }
func RecordMatchSkipped(category, reason string)              { globalManager.RecordMatchSkipped(category, reason) }
func RecordRatingEvents(n int)                                { globalManager.RecordRatingEvents(n) }
func ObserveReplayDuration(category string, d time.Duration)  { globalManager.ObserveReplayDuration(category, d) }
func UpdateLadderEntities(category, role string, n int)       { globalManager.UpdateLadderEntities(category, role, n) }
func RecordRunCompleted()                                     { globalManager.RecordRunCompleted() }
