// Package metrics provides centralized Prometheus metrics registry for the ingester.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mat_rankings"

// Event outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Row outcomes
const (
	RowRated            = "rated"
	RowDuplicate        = "duplicate"
	RowParseError       = "parse_error"
	RowPersistenceError = "persistence_error"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total number of events handled by outcome",
	}, []string{"season", "region", "outcome"})
	RowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_total",
		Help:      "Total number of raw match rows by outcome",
	}, []string{"season", "region", "outcome"})
	MatchesRatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_rated_total",
		Help:      "Total number of matches rated by result type",
	}, []string{"result_type"})
	NavigationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_errors_total",
		Help:      "Total number of navigation failures by error code",
	}, []string{"code"})
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of batch runs by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	CrawlProgress = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "crawl_progress_percent",
		Help:      "Percentage of a season's events with a terminal outcome",
	}, []string{"season", "region"})
	LastRunTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last finished batch run",
	}, []string{"season", "region"})
)

// Histogram metrics
var (
	EventDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_duration_seconds",
		Help:      "Time spent processing one event",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of result group fetches",
		Buckets:   prometheus.DefBuckets,
	})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of batch runs",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(EventsTotal)
		registry.MustRegister(RowsTotal)
		registry.MustRegister(MatchesRatedTotal)
		registry.MustRegister(NavigationErrorsTotal)
		registry.MustRegister(RunsTotal)

		registry.MustRegister(CrawlProgress)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(EventDuration)
		registry.MustRegister(FetchDuration)
		registry.MustRegister(RunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEvent records the terminal outcome of an event.
func RecordEvent(season, region, outcome string, durationSeconds float64) {
	EventsTotal.WithLabelValues(season, region, outcome).Inc()
	if outcome == OutcomeProcessed {
		EventDuration.Observe(durationSeconds)
	}
}

// RecordRows adds n rows with the given outcome.
func RecordRows(season, region, outcome string, n int) {
	if n <= 0 {
		return
	}
	RowsTotal.WithLabelValues(season, region, outcome).Add(float64(n))
}

// RecordMatchRated records one rated match.
func RecordMatchRated(resultType string) {
	MatchesRatedTotal.WithLabelValues(resultType).Inc()
}

// RecordNavigationError records a failed fetch.
func RecordNavigationError(code string) {
	NavigationErrorsTotal.WithLabelValues(code).Inc()
}

// RecordFetch records the duration of a group fetch.
func RecordFetch(durationSeconds float64) {
	FetchDuration.Observe(durationSeconds)
}

// UpdateProgress sets the crawl progress gauge.
func UpdateProgress(season, region string, percent float64) {
	CrawlProgress.WithLabelValues(season, region).Set(percent)
}

// RecordRun records a finished batch run.
func RecordRun(season, region, status string, durationSeconds float64, finishedUnix float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(durationSeconds)
	LastRunTimestamp.WithLabelValues(season, region).Set(finishedUnix)
}
