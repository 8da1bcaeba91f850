package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ledger_entries",
			Help: "Imported ledger entries",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM interfacing_ledger_entries")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "deadline_history_records",
			Help: "Deadline change records across all entities",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COALESCE(SUM(jsonb_array_length(deadline_history)), 0) FROM deadline_entities")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
