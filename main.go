package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"franchise-interfacing/internal/audit"
	deadlineapp "franchise-interfacing/internal/deadlines/application"
	deadlines "franchise-interfacing/internal/deadlines/domain"
	deadlinememory "franchise-interfacing/internal/deadlines/infrastructure/memory"
	deadlinerepo "franchise-interfacing/internal/deadlines/infrastructure/postgres"
	deadlinehttp "franchise-interfacing/internal/deadlines/interfaces/http"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	interfacingmemory "franchise-interfacing/internal/interfacing/infrastructure/memory"
	interfacingrepo "franchise-interfacing/internal/interfacing/infrastructure/postgres"
	interfacinginterfaces "franchise-interfacing/internal/interfacing/interfaces"
	"franchise-interfacing/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	engineCfg, err := interfacingapp.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	} else {
		logger.Printf("DATABASE_URL not set, using empty in-memory stores")
	}

	metrics.Init(db, logger)

	var (
		countries    interfacing.CountryDirectory
		ledger       interfacing.LedgerSource
		deadlineRepo deadlines.EntityRepository
		auditLogger  audit.Logger
	)
	if db != nil {
		countries = interfacingrepo.NewCountryRepository(db)
		ledger = interfacingrepo.NewLedgerRepository(db)
		deadlineRepo = deadlinerepo.NewEntityRepository(db)
		auditLogger = audit.NewRepository(db)
	} else {
		store := interfacingmemory.NewStore()
		countries = store
		ledger = store
		deadlineRepo = deadlinememory.NewRepository()
		auditLogger = audit.NewLogLogger(logger)
	}

	statementService, err := interfacingapp.NewStatementService(countries, ledger, engineCfg)
	if err != nil {
		logger.Fatalf("statement service init: %v", err)
	}
	overviewService, err := interfacingapp.NewOverviewService(countries, statementService, engineCfg, logger)
	if err != nil {
		logger.Fatalf("overview service init: %v", err)
	}
	renderer := interfacinginterfaces.NewRenderer()
	bulkExporter, err := interfacingapp.NewBulkExporter(countries, statementService, renderer, engineCfg, interfacingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("bulk exporter init: %v", err)
	}
	interfacingHandler, err := interfacinginterfaces.NewHandler(statementService, overviewService, bulkExporter, renderer, auditLogger, engineCfg.PaymentTerm, logger)
	if err != nil {
		logger.Fatalf("interfacing handler init: %v", err)
	}

	cal, err := engineCfg.Calendar()
	if err != nil {
		logger.Fatalf("calendar init: %v", err)
	}
	calendarHandler, err := interfacinginterfaces.NewCalendarHandler(cal)
	if err != nil {
		logger.Fatalf("calendar handler init: %v", err)
	}

	tracker, err := deadlineapp.NewTracker(deadlineRepo, deadlineapp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("deadline tracker init: %v", err)
	}
	deadlineHandler, err := deadlinehttp.NewHandler(tracker, auditLogger, logger)
	if err != nil {
		logger.Fatalf("deadline handler init: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/interfacing/", interfacingHandler)
	mux.Handle("/api/v1/calendar/working-days", calendarHandler)
	mux.Handle("/api/v1/deadlines/", deadlineHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(mux, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
}

func loadConfig() config {
	return config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		ReadHeaderTimeout: getenvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
