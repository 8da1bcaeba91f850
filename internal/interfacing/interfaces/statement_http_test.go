package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"franchise-interfacing/internal/audit"
	"franchise-interfacing/internal/calendar"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
	interfacing "franchise-interfacing/internal/interfacing/domain"
)

type stubStatements struct {
	gotTerms int
}

func (s *stubStatements) GetCountryStatement(ctx context.Context, countryID string, period calendar.Period, releaseDate time.Time, paymentTermDays int) (interfacing.CountryStatement, error) {
	s.gotTerms = paymentTermDays
	if countryID != "PT" {
		return interfacing.CountryStatement{}, interfacing.ErrCountryNotFound
	}
	stmt := sampleStatement()
	stmt.AccountingPeriod = period
	return stmt, nil
}

type stubOverviews struct {
	gotStatuses []interfacing.CountryStatus
}

func (s *stubOverviews) GetOverview(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (interfacing.Overview, error) {
	s.gotStatuses = statuses
	return interfacing.BuildOverview(period, releaseDate, nil), nil
}

func (s *stubOverviews) GetOverviewDelta(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (interfacing.OverviewDelta, error) {
	return interfacing.OverviewDelta{Period: period, PreviousPeriod: period.Prev()}, nil
}

type stubExports struct {
	job interfacingapp.BulkExportJob
}

func (s *stubExports) Start(req interfacingapp.BulkExportRequest) (interfacingapp.BulkExportJob, error) {
	s.job = interfacingapp.BulkExportJob{ID: "job-1", Status: interfacingapp.JobQueued, Period: req.Period, Format: req.Format}
	return s.job, nil
}

func (s *stubExports) Get(jobID string) (interfacingapp.BulkExportJob, bool) {
	if jobID != s.job.ID {
		return interfacingapp.BulkExportJob{}, false
	}
	return s.job, true
}

func (s *stubExports) Cancel(jobID string) (interfacingapp.BulkExportJob, error) {
	if jobID != s.job.ID {
		return interfacingapp.BulkExportJob{}, interfacingapp.ErrJobNotFound
	}
	return interfacingapp.BulkExportJob{}, interfacingapp.ErrJobNotCancelable
}

func (s *stubExports) Download(jobID string) (string, []byte, error) {
	return "", nil, interfacingapp.ErrJobNotReady
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAudit) Log(ctx context.Context, entry audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *stubStatements, *stubOverviews, *recordingAudit) {
	t.Helper()
	statements := &stubStatements{}
	overviews := &stubOverviews{}
	auditLog := &recordingAudit{}
	handler, err := NewHandler(statements, overviews, &stubExports{}, NewRenderer(), auditLog, 30, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, statements, overviews, auditLog
}

func TestHandler_Statement(t *testing.T) {
	handler, statements, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/statements?country=PT&period=202501", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if statements.gotTerms != 30 {
		t.Fatalf("expected default payment term, got %d", statements.gotTerms)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["accounting_period"] != "202501" {
		t.Fatalf("unexpected period: %v", body["accounting_period"])
	}

	cases := map[string]int{
		"/api/v1/interfacing/statements?country=PT&period=2025-01":                        http.StatusBadRequest,
		"/api/v1/interfacing/statements?period=202501":                                    http.StatusBadRequest,
		"/api/v1/interfacing/statements?country=PT&period=202501&payment_term_days=-3":    http.StatusBadRequest,
		"/api/v1/interfacing/statements?country=PT&period=202501&release_date=10.02.2025": http.StatusBadRequest,
		"/api/v1/interfacing/statements?country=DE&period=202501":                         http.StatusNotFound,
	}
	for target, want := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", target, want, rec.Code)
		}
	}
}

func TestHandler_StatementExport(t *testing.T) {
	handler, statements, _, auditLog := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/statements/export.xlsx?country=PT&period=202501&payment_term_days=45", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if statements.gotTerms != 45 {
		t.Fatalf("expected payment term 45, got %d", statements.gotTerms)
	}
	if rec.Header().Get("Content-Type") != interfacing.FormatXLSX.ContentType() {
		t.Fatalf("unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Interfacing_PT_202501.xlsx") {
		t.Fatalf("unexpected disposition: %s", rec.Header().Get("Content-Disposition"))
	}
	if len(auditLog.entries) != 1 || auditLog.entries[0].Action != "statement.exported" || auditLog.entries[0].CountryID != "PT" {
		t.Fatalf("expected export audit entry, got %+v", auditLog.entries)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/statements/export.docx?country=PT&period=202501", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown format, got %d", rec.Code)
	}
}

func TestHandler_OverviewStatusFilter(t *testing.T) {
	handler, _, overviews, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/overview?period=202501&status=active,onboarding", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(overviews.gotStatuses) != 2 || overviews.gotStatuses[1] != interfacing.CountryOnboarding {
		t.Fatalf("unexpected statuses: %v", overviews.gotStatuses)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/overview?period=202501&status=paused", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/overview/delta?period=202501", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"previous_period":"202412"`) {
		t.Fatalf("unexpected delta response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_BulkExportLifecycle(t *testing.T) {
	handler, _, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"period":"202501","status":"active","format":"pdf"}`)
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/interfacing/exports", body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/exports/job-1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"progress":0`) {
		t.Fatalf("unexpected job response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interfacing/exports/job-1/download", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unfinished download, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/interfacing/exports/missing/cancel", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/interfacing/exports", strings.NewReader(`{"period":"202501","format":"zip"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zip format, got %d", rec.Code)
	}
}

func TestCalendarHandler_WorkingDays(t *testing.T) {
	handler, err := NewCalendarHandler(calendar.Portugal())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/calendar/working-days?period=202501&release_date=2025-02-20", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Period        string `json:"period"`
		WorkingDays   int    `json:"working_days"`
		DueUntil      string `json:"due_until"`
		ReleaseStatus string `json:"release_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "202501" || resp.WorkingDays != 8 || resp.DueUntil != "2025-02-15" || resp.ReleaseStatus != "late" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/calendar/working-days?period=13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
