package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "interfacing_"

	resultSuccess = "success"
	resultError   = "error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	statementBuildTotal   *prometheus.CounterVec
	statementBuildLatency *prometheus.HistogramVec

	overviewBuildTotal    *prometheus.CounterVec
	overviewBuildLatency  *prometheus.HistogramVec
	overviewCountryErrors prometheus.Counter

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec

	bulkExportJobsTotal *prometheus.CounterVec
	bulkExportProgress  *prometheus.GaugeVec

	deadlineUpdatesTotal *prometheus.CounterVec
)

// Init registers engine metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		statementBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_build_total",
				Help: "Total country statement builds by result",
			},
			[]string{"result"},
		)
		statementBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_build_latency_seconds",
				Help:    "Country statement build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		overviewBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "overview_build_total",
				Help: "Total period overview builds by result",
			},
			[]string{"result"},
		)
		overviewBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "overview_build_latency_seconds",
				Help:    "Period overview build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		overviewCountryErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "overview_country_errors_total",
				Help: "Total countries that failed during overview aggregation",
			},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		bulkExportJobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "bulk_export_jobs_total",
				Help: "Total bulk export jobs by final status",
			},
			[]string{"status"},
		)
		bulkExportProgress = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "bulk_export_progress_ratio",
				Help: "Fraction of countries completed per running bulk export job",
			},
			[]string{"job"},
		)

		deadlineUpdatesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "deadline_updates_total",
				Help: "Total deadline updates by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			statementBuildTotal,
			statementBuildLatency,
			overviewBuildTotal,
			overviewBuildLatency,
			overviewCountryErrors,
			statementExportTotal,
			statementExportLatency,
			bulkExportJobsTotal,
			bulkExportProgress,
			deadlineUpdatesTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveStatementBuild records statement build latency and result.
func ObserveStatementBuild(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if statementBuildTotal != nil {
		statementBuildTotal.WithLabelValues(result).Inc()
	}
	if statementBuildLatency != nil {
		statementBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveOverviewBuild records overview latency, result and failed countries.
func ObserveOverviewBuild(result string, failedCountries int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if overviewBuildTotal != nil {
		overviewBuildTotal.WithLabelValues(result).Inc()
	}
	if overviewBuildLatency != nil {
		overviewBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if overviewCountryErrors != nil && failedCountries > 0 {
		overviewCountryErrors.Add(float64(failedCountries))
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// SetBulkExportProgress sets the completed fraction of a running job.
func SetBulkExportProgress(jobID string, fraction float64) {
	if bulkExportProgress != nil && jobID != "" {
		bulkExportProgress.WithLabelValues(jobID).Set(fraction)
	}
}

// FinishBulkExport counts a finished job and drops its progress series.
func FinishBulkExport(jobID, status string) {
	if status == "" {
		status = "unknown"
	}
	if bulkExportJobsTotal != nil {
		bulkExportJobsTotal.WithLabelValues(status).Inc()
	}
	if bulkExportProgress != nil && jobID != "" {
		bulkExportProgress.DeleteLabelValues(jobID)
	}
}

// IncDeadlineUpdate counts a deadline update by outcome.
func IncDeadlineUpdate(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if deadlineUpdatesTotal != nil {
		deadlineUpdatesTotal.WithLabelValues(outcome).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = resultPartial

	DeadlineChanged   = "changed"
	DeadlineUnchanged = "unchanged"
	DeadlineRejected  = "rejected"
)
