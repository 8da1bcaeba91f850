package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"franchise-interfacing/internal/audit"
	"franchise-interfacing/internal/calendar"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	"franchise-interfacing/internal/observability/metrics"
)

const (
	basePath  = "/api/v1/interfacing"
	dateQuery = "2006-01-02"
)

// StatementQuery builds single-country statements.
type StatementQuery interface {
	GetCountryStatement(ctx context.Context, countryID string, period calendar.Period, releaseDate time.Time, paymentTermDays int) (interfacing.CountryStatement, error)
}

// OverviewQuery builds period overviews and deltas.
type OverviewQuery interface {
	GetOverview(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (interfacing.Overview, error)
	GetOverviewDelta(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (interfacing.OverviewDelta, error)
}

// BulkExports manages bulk export jobs.
type BulkExports interface {
	Start(req interfacingapp.BulkExportRequest) (interfacingapp.BulkExportJob, error)
	Get(jobID string) (interfacingapp.BulkExportJob, bool)
	Cancel(jobID string) (interfacingapp.BulkExportJob, error)
	Download(jobID string) (string, []byte, error)
}

// Handler serves statement, overview and export endpoints.
type Handler struct {
	statements  StatementQuery
	overviews   OverviewQuery
	exports     BulkExports
	renderer    interfacingapp.DocumentRenderer
	auditLogger audit.Logger
	paymentTerm int
	logger      *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(statements StatementQuery, overviews OverviewQuery, exports BulkExports, renderer interfacingapp.DocumentRenderer, auditLogger audit.Logger, paymentTerm int, logger *log.Logger) (*Handler, error) {
	if statements == nil {
		return nil, errors.New("interfacing handler: nil statement query")
	}
	if overviews == nil {
		return nil, errors.New("interfacing handler: nil overview query")
	}
	if exports == nil {
		return nil, errors.New("interfacing handler: nil bulk exports")
	}
	if renderer == nil {
		return nil, errors.New("interfacing handler: nil renderer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		statements:  statements,
		overviews:   overviews,
		exports:     exports,
		renderer:    renderer,
		auditLogger: auditLogger,
		paymentTerm: paymentTerm,
		logger:      logger,
	}, nil
}

// ServeHTTP handles /api/v1/interfacing and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, basePath)
	switch {
	case path == "/statements":
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		h.handleStatement(w, r)
	case strings.HasPrefix(path, "/statements/export."):
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		h.handleStatementExport(w, r, strings.TrimPrefix(path, "/statements/export."))
	case path == "/overview":
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		h.handleOverview(w, r)
	case path == "/overview/delta":
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		h.handleOverviewDelta(w, r)
	case path == "/exports":
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		h.handleStartExport(w, r)
	case strings.HasPrefix(path, "/exports/"):
		h.handleExportJob(w, r, strings.TrimPrefix(path, "/exports/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	countryID, period, release, terms, err := h.parseStatementQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stmt, err := h.statements.GetCountryStatement(r.Context(), countryID, period, release, terms)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func (h *Handler) handleStatementExport(w http.ResponseWriter, r *http.Request, ext string) {
	format, err := interfacing.ParseExportFormat(ext)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	countryID, period, release, terms, err := h.parseStatementQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stmt, err := h.statements.GetCountryStatement(r.Context(), countryID, period, release, terms)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	start := time.Now()
	data, err := h.renderer.Render(stmt, format)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveStatementExport(string(format), result, time.Since(start))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	filename := interfacing.ExportFilename(stmt.Country.ID, period, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "statement.exported", "statement", countryID+"/"+period.String(), countryID, map[string]any{
		"format":   string(format),
		"filename": filename,
	})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	period, release, statuses, err := parseOverviewQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	overview, err := h.overviews.GetOverview(r.Context(), period, release, statuses)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleOverviewDelta(w http.ResponseWriter, r *http.Request) {
	period, release, statuses, err := parseOverviewQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	delta, err := h.overviews.GetOverviewDelta(r.Context(), period, release, statuses)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

type startExportRequest struct {
	Period      string `json:"period"`
	ReleaseDate string `json:"release_date"`
	Status      string `json:"status"`
	Format      string `json:"format"`
}

func (h *Handler) handleStartExport(w http.ResponseWriter, r *http.Request) {
	var req startExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	period, err := calendar.ParsePeriod(req.Period)
	if err != nil {
		http.Error(w, "period must be YYYYMM", http.StatusBadRequest)
		return
	}
	release, err := parseDate(req.ReleaseDate)
	if err != nil {
		http.Error(w, "release_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	statuses, err := parseStatuses(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := interfacing.ParseExportFormat(req.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.exports.Start(interfacingapp.BulkExportRequest{
		Period:      period,
		ReleaseDate: release,
		Statuses:    statuses,
		Format:      format,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobView(job))
	h.logAudit(r, "bulk_export.started", "bulk_export", job.ID, "", map[string]any{
		"period": period.String(),
		"format": string(format),
		"status": req.Status,
	})
}

func (h *Handler) handleExportJob(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	jobID := parts[0]
	if jobID == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		job, ok := h.exports.Get(jobID)
		if !ok {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, jobView(job))
	case "download":
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		filename, data, err := h.exports.Download(jobID)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", interfacing.FormatZIP.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case "cancel":
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		job, err := h.exports.Cancel(jobID)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobView(job))
		h.logAudit(r, "bulk_export.canceled", "bulk_export", jobID, "", nil)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type bulkJobResponse struct {
	interfacingapp.BulkExportJob
	Progress float64 `json:"progress"`
}

func jobView(job interfacingapp.BulkExportJob) bulkJobResponse {
	return bulkJobResponse{BulkExportJob: job, Progress: job.Progress()}
}

func (h *Handler) parseStatementQuery(r *http.Request) (string, calendar.Period, time.Time, int, error) {
	q := r.URL.Query()
	countryID := q.Get("country")
	if countryID == "" {
		return "", calendar.Period{}, time.Time{}, 0, errors.New("country is required")
	}
	period, err := calendar.ParsePeriod(q.Get("period"))
	if err != nil {
		return "", calendar.Period{}, time.Time{}, 0, errors.New("period must be YYYYMM")
	}
	release, err := parseDate(q.Get("release_date"))
	if err != nil {
		return "", calendar.Period{}, time.Time{}, 0, errors.New("release_date must be YYYY-MM-DD")
	}
	terms := h.paymentTerm
	if value := q.Get("payment_term_days"); value != "" {
		terms, err = strconv.Atoi(value)
		if err != nil || terms < 0 {
			return "", calendar.Period{}, time.Time{}, 0, errors.New("payment_term_days must be a non-negative integer")
		}
	}
	return countryID, period, release, terms, nil
}

func parseOverviewQuery(r *http.Request) (calendar.Period, time.Time, []interfacing.CountryStatus, error) {
	q := r.URL.Query()
	period, err := calendar.ParsePeriod(q.Get("period"))
	if err != nil {
		return calendar.Period{}, time.Time{}, nil, errors.New("period must be YYYYMM")
	}
	release, err := parseDate(q.Get("release_date"))
	if err != nil {
		return calendar.Period{}, time.Time{}, nil, errors.New("release_date must be YYYY-MM-DD")
	}
	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		return calendar.Period{}, time.Time{}, nil, err
	}
	return period, release, statuses, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateQuery, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

// parseStatuses reads a comma-separated status filter; empty means all countries.
func parseStatuses(value string) ([]interfacing.CountryStatus, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var out []interfacing.CountryStatus
	for _, part := range strings.Split(value, ",") {
		status, err := interfacing.ParseCountryStatus(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("status %q: %w", part, err)
		}
		out = append(out, status)
	}
	return out, nil
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfacing.ErrEmptyCountryID),
		errors.Is(err, interfacing.ErrInvalidPaymentTerm),
		errors.Is(err, interfacing.ErrInvalidCountryStatus),
		errors.Is(err, interfacing.ErrUnsupportedFormat),
		errors.Is(err, calendar.ErrInvalidPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfacing.ErrCountryNotFound),
		errors.Is(err, interfacingapp.ErrJobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, interfacingapp.ErrJobNotCancelable),
		errors.Is(err, interfacingapp.ErrJobNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, interfacing.ErrUnmappedPostingType):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Printf("interfacing handler: err=%v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, countryID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	var payload []byte
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	entry := audit.FromRequest(r, audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CountryID:    countryID,
		Metadata:     payload,
	})
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logger.Printf("interfacing audit: action=%s err=%v", action, err)
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
