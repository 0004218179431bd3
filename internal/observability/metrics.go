// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	StatsLines   *prometheus.CounterVec
	RatingsBuilt prometheus.Gauge
	TeamsSkipped prometheus.Gauge

	// Evaluation metrics
	Evaluations     prometheus.Counter
	PairsAbsent     *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	Recommendations *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram

	// Sports-data API metrics
	APICallLatency *prometheus.HistogramVec
	APIRetries     *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Fan-out metrics
	PublishErrors *prometheus.CounterVec
	WSClients     prometheus.Gauge

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "safe_bets"
	}

	return &Metrics{
		// Ingestion metrics
		StatsLines: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "stats_lines_total",
			Help:      "Raw statistics lines read by outcome",
		}, []string{"outcome"}),
		RatingsBuilt: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ratings_built",
			Help:      "Team ratings in the cache of the last run",
		}),
		TeamsSkipped: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "teams_skipped",
			Help:      "Teams without a usable rating in the last run",
		}),

		// Evaluation metrics
		Evaluations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total number of match evaluations produced",
		}),
		PairsAbsent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pairs_absent_total",
			Help:      "Match pairs that produced no evaluation, by reason",
		}, []string{"reason"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Decisions by bet family and tier",
		}, []string{"bet", "tier"}),
		Recommendations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "recommendations_total",
			Help:      "Recommendations emitted by bet family",
		}, []string{"bet"}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of engine runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Engine run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),

		// Sports-data API metrics
		APICallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "call_latency_seconds",
			Help:      "Sports-data API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		APIRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Sports-data API retries by endpoint and reason",
		}, []string{"endpoint", "reason"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Fan-out metrics
		PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "errors_total",
			Help:      "Failed result deliveries by publisher",
		}, []string{"publisher"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients",
		}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful engine run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordStatsRead adds the outcome counts of one statistics file.
func RecordStatsRead(loaded, malformed, unusable, replaced int) {
	DefaultMetrics.StatsLines.WithLabelValues("loaded").Add(float64(loaded))
	DefaultMetrics.StatsLines.WithLabelValues("malformed").Add(float64(malformed))
	DefaultMetrics.StatsLines.WithLabelValues("unusable").Add(float64(unusable))
	DefaultMetrics.StatsLines.WithLabelValues("replaced").Add(float64(replaced))
}

// UpdateRatingCache sets the rating cache gauges.
func UpdateRatingCache(built, skipped int) {
	DefaultMetrics.RatingsBuilt.Set(float64(built))
	DefaultMetrics.TeamsSkipped.Set(float64(skipped))
}

// RecordEvaluation counts one evaluation and its two decisions.
func RecordEvaluation(overTier, resultTier string) {
	DefaultMetrics.Evaluations.Inc()
	DefaultMetrics.Decisions.WithLabelValues("Over15", overTier).Inc()
	DefaultMetrics.Decisions.WithLabelValues("Result", resultTier).Inc()
}

// RecordPairAbsent counts a pair that yielded no evaluation.
func RecordPairAbsent(reason string) {
	DefaultMetrics.PairsAbsent.WithLabelValues(reason).Inc()
}

// RecordRecommendation counts one emitted recommendation.
func RecordRecommendation(bet string) {
	DefaultMetrics.Recommendations.WithLabelValues(bet).Inc()
}

// RecordAPICall records sports-data API call latency.
func RecordAPICall(endpoint string, seconds float64) {
	DefaultMetrics.APICallLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordAPIRetry counts one retried API call.
func RecordAPIRetry(endpoint, reason string) {
	DefaultMetrics.APIRetries.WithLabelValues(endpoint, reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPublishError counts a failed delivery.
func RecordPublishError(publisher string) {
	DefaultMetrics.PublishErrors.WithLabelValues(publisher).Inc()
}

// UpdateWSClients sets the connected WebSocket client gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordPipelineRun records an engine run.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
}

// RecordSuccessfulRun stamps the last successful run time.
func RecordSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
