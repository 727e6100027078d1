// Package metrics provides Prometheus metrics for the crease rating pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for a pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pipeline outcomes per match file.
	matchesProcessed    prometheus.Counter
	matchesDuplicate    prometheus.Counter
	matchesMissingVenue prometheus.Counter
	matchesFailed       prometheus.Counter

	// Ball-level throughput.
	ballsProcessed prometheus.Counter
	ballsExcluded  prometheus.Counter

	// Rating history writes.
	ratingAppends prometheus.Counter
	decayAppends  prometheus.Counter
	batchWriteMS  prometheus.Histogram

	// Venue factor builds.
	venueProfiles prometheus.Gauge

	playersTracked prometheus.Gauge
}

// Global manager on a custom registry so default Go collectors stay out.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crease",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_processed_total",
		Help: "Total number of match files folded into rating history",
	})
	m.matchesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_skipped_duplicate_total",
		Help: "Total number of match files skipped by the idempotency marker",
	})
	m.matchesMissingVenue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_skipped_missing_venue_total",
		Help: "Total number of match files skipped for lack of venue factors",
	})
	m.matchesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_failed_total",
		Help: "Total number of match files aborted on bad input",
	})
	m.ballsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "balls_processed_total",
		Help: "Total number of deliveries applied to ratings",
	})
	m.ballsExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "balls_excluded_total",
		Help: "Total number of deliveries excluded from rating updates (run outs)",
	})
	m.ratingAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rating_appends_total",
		Help: "Total number of rating history entries appended by match updates",
	})
	m.decayAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "decay_appends_total",
		Help: "Total number of rating history entries appended by seasonal decay",
	})
	m.batchWriteMS = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "batch_write_milliseconds",
		Help:    "Histogram of batched rating write latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.venueProfiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "venue_profiles",
		Help: "Number of venue factor profiles written by the last factor build",
	})
	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "players_tracked",
		Help: "Number of distinct players with rating history",
	})
}

// Handler exposes the manager's registry for scraping.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers recording on the global manager.

func RecordMatchProcessed()    { globalManager.matchesProcessed.Inc() }
func RecordMatchDuplicate()    { globalManager.matchesDuplicate.Inc() }
func RecordMatchMissingVenue() { globalManager.matchesMissingVenue.Inc() }
func RecordMatchFailed()       { globalManager.matchesFailed.Inc() }

func RecordBallsProcessed(n int) { globalManager.ballsProcessed.Add(float64(n)) }
func RecordBallsExcluded(n int)  { globalManager.ballsExcluded.Add(float64(n)) }

func RecordRatingAppends(n int)         { globalManager.ratingAppends.Add(float64(n)) }
func RecordDecayAppends(n int)          { globalManager.decayAppends.Add(float64(n)) }
func RecordBatchWriteMillis(ms float64) { globalManager.batchWriteMS.Observe(ms) }

func UpdateVenueProfiles(n int)  { globalManager.venueProfiles.Set(float64(n)) }
func UpdatePlayersTracked(n int) { globalManager.playersTracked.Set(float64(n)) }

// Handler exposes the global registry for scraping.
func Handler() http.Handler { return globalManager.Handler() }
