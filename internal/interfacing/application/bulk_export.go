package application

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	"franchise-interfacing/internal/observability/metrics"
)

var (
	// ErrJobNotFound is returned for an unknown bulk export job.
	ErrJobNotFound = errors.New("bulk export: job not found")
	// ErrJobNotCancelable is returned when cancelling a finished job.
	ErrJobNotCancelable = errors.New("bulk export: job not cancelable")
	// ErrJobNotReady is returned when downloading a job without a result.
	ErrJobNotReady = errors.New("bulk export: job result not ready")
)

// DocumentRenderer renders a country statement into a document.
type DocumentRenderer interface {
	Render(stmt interfacing.CountryStatement, format interfacing.ExportFormat) ([]byte, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// JobStatus is the lifecycle state of a bulk export job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// Terminal reports whether the job can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCanceled
}

// BulkExportRequest selects the countries and format of a bulk export.
type BulkExportRequest struct {
	Period      calendar.Period
	ReleaseDate time.Time
	Statuses    []interfacing.CountryStatus
	Format      interfacing.ExportFormat
}

// BulkExportJob is a snapshot of a bulk export job.
type BulkExportJob struct {
	ID          string                       `json:"id"`
	Status      JobStatus                    `json:"status"`
	Period      calendar.Period              `json:"period"`
	Format      interfacing.ExportFormat     `json:"format"`
	Total       int                          `json:"total"`
	Completed   int                          `json:"completed"`
	Failures    []interfacing.CountryFailure `json:"failures"`
	Filename    string                       `json:"filename,omitempty"`
	Error       string                       `json:"error,omitempty"`
	RequestedAt time.Time                    `json:"requested_at"`
	StartedAt   *time.Time                   `json:"started_at,omitempty"`
	FinishedAt  *time.Time                   `json:"finished_at,omitempty"`
}

// Progress returns completed/total countries, 0 before the total is known.
func (j BulkExportJob) Progress() float64 {
	if j.Total == 0 {
		if j.Status == JobSucceeded {
			return 1
		}
		return 0
	}
	return float64(j.Completed) / float64(j.Total)
}

type bulkJobState struct {
	job     BulkExportJob
	request BulkExportRequest
	cancel  context.CancelFunc
	archive []byte
}

// BulkExporter renders per-country documents concurrently into one zip archive.
type BulkExporter struct {
	mu          sync.RWMutex
	jobs        map[string]*bulkJobState
	countries   interfacing.CountryDirectory
	statements  *StatementService
	renderer    DocumentRenderer
	workers     int
	paymentTerm int
	timeout     time.Duration
	resultTTL   time.Duration
	jobSlots    chan struct{}
	clock       Clock
	logger      *log.Logger
}

// NewBulkExporter constructs the exporter.
func NewBulkExporter(countries interfacing.CountryDirectory, statements *StatementService, renderer DocumentRenderer, cfg Config, clock Clock, logger *log.Logger) (*BulkExporter, error) {
	if countries == nil {
		return nil, errors.New("bulk export: nil country directory")
	}
	if statements == nil {
		return nil, errors.New("bulk export: nil statement service")
	}
	if renderer == nil {
		return nil, errors.New("bulk export: nil renderer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := cfg.ExportTimeout
	if timeout <= 0 {
		timeout = defaultExportTimeout
	}
	resultTTL := cfg.ResultTTL
	if resultTTL <= 0 {
		resultTTL = defaultResultTTL
	}
	return &BulkExporter{
		jobs:        map[string]*bulkJobState{},
		countries:   countries,
		statements:  statements,
		renderer:    renderer,
		workers:     workers,
		paymentTerm: cfg.PaymentTerm,
		timeout:     timeout,
		resultTTL:   resultTTL,
		jobSlots:    make(chan struct{}, workers),
		clock:       clock,
		logger:      logger,
	}, nil
}

// Start registers a job and returns immediately; rendering runs in the background.
func (e *BulkExporter) Start(req BulkExportRequest) (BulkExportJob, error) {
	if req.Period.IsZero() {
		return BulkExportJob{}, calendar.ErrInvalidPeriod
	}
	if _, err := interfacing.ParseExportFormat(string(req.Format)); err != nil {
		return BulkExportJob{}, err
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), e.timeout)
	state := &bulkJobState{
		job: BulkExportJob{
			ID:          uuid.NewString(),
			Status:      JobQueued,
			Period:      req.Period,
			Format:      req.Format,
			Failures:    []interfacing.CountryFailure{},
			RequestedAt: e.clock.Now(),
		},
		request: req,
		cancel:  cancel,
	}

	e.mu.Lock()
	e.pruneLocked()
	e.jobs[state.job.ID] = state
	job := cloneBulkJob(state.job)
	e.mu.Unlock()

	go e.run(jobCtx, state)
	return job, nil
}

// Get returns a snapshot of the job.
func (e *BulkExporter) Get(jobID string) (BulkExportJob, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pruneLocked()
	state, ok := e.jobs[jobID]
	if !ok {
		return BulkExportJob{}, false
	}
	return cloneBulkJob(state.job), true
}

// Cancel stops a queued or running job.
func (e *BulkExporter) Cancel(jobID string) (BulkExportJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.jobs[jobID]
	if !ok {
		return BulkExportJob{}, ErrJobNotFound
	}
	if state.job.Status.Terminal() {
		return cloneBulkJob(state.job), ErrJobNotCancelable
	}
	state.cancel()
	now := e.clock.Now()
	state.job.Status = JobCanceled
	state.job.FinishedAt = &now
	state.job.Error = "canceled by user"
	return cloneBulkJob(state.job), nil
}

// Download returns the archive of a succeeded job.
func (e *BulkExporter) Download(jobID string) (string, []byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pruneLocked()
	state, ok := e.jobs[jobID]
	if !ok {
		return "", nil, ErrJobNotFound
	}
	if state.job.Status != JobSucceeded {
		return "", nil, ErrJobNotReady
	}
	return state.job.Filename, state.archive, nil
}

// pruneLocked drops terminal jobs whose result outlived the TTL. Callers hold e.mu.
func (e *BulkExporter) pruneLocked() {
	now := e.clock.Now()
	for id, state := range e.jobs {
		finished := state.job.FinishedAt
		if !state.job.Status.Terminal() || finished == nil {
			continue
		}
		if now.Sub(*finished) >= e.resultTTL {
			delete(e.jobs, id)
		}
	}
}

func (e *BulkExporter) run(ctx context.Context, state *bulkJobState) {
	defer state.cancel()
	select {
	case e.jobSlots <- struct{}{}:
	case <-ctx.Done():
		e.finish(state, nil, ctx.Err())
		return
	}
	defer func() { <-e.jobSlots }()

	started := e.clock.Now()
	if !e.update(state, func(job *BulkExportJob) {
		job.Status = JobRunning
		job.StartedAt = &started
	}) {
		e.finish(state, nil, context.Canceled)
		return
	}

	archive, err := e.export(ctx, state)
	e.finish(state, archive, err)
}

func (e *BulkExporter) export(ctx context.Context, state *bulkJobState) ([]byte, error) {
	req := state.request
	jobID := state.job.ID
	countries, err := e.countries.ListCountries(ctx, req.Statuses)
	if err != nil {
		return nil, err
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].ID < countries[j].ID })
	e.update(state, func(job *BulkExportJob) { job.Total = len(countries) })

	docs := make([][]byte, len(countries))
	err = forEachLimit(ctx, e.workers, len(countries), func(ctx context.Context, i int) error {
		country := countries[i]
		data, err := e.renderCountry(ctx, country, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Printf("bulk export: job=%s country=%s err=%v", jobID, country.ID, err)
		}
		docs[i] = data
		e.update(state, func(job *BulkExportJob) {
			if err != nil {
				job.Failures = append(job.Failures, interfacing.CountryFailure{CountryID: country.ID, Error: err.Error()})
			}
			job.Completed++
			metrics.SetBulkExportProgress(job.ID, job.Progress())
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for i, country := range countries {
		if docs[i] == nil {
			continue
		}
		fw, err := zipWriter.Create(interfacing.ExportFilename(country.ID, req.Period, req.Format))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(docs[i]); err != nil {
			return nil, err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *BulkExporter) renderCountry(ctx context.Context, country interfacing.Country, req BulkExportRequest) ([]byte, error) {
	stmt, err := e.statements.BuildStatement(ctx, country, req.Period, req.ReleaseDate, e.paymentTerm)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := e.renderer.Render(stmt, req.Format)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveStatementExport(string(req.Format), result, time.Since(start))
	return data, err
}

func (e *BulkExporter) finish(state *bulkJobState, archive []byte, err error) {
	now := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	job := &state.job
	if job.Status.Terminal() {
		metrics.FinishBulkExport(job.ID, string(job.Status))
		return
	}
	job.FinishedAt = &now
	switch {
	case err == nil:
		job.Status = JobSucceeded
		job.Filename = interfacing.ExportFilename(interfacing.BulkName, job.Period, interfacing.FormatZIP)
		state.archive = archive
	case errors.Is(err, context.DeadlineExceeded):
		job.Status = JobFailed
		job.Error = fmt.Sprintf("timed out after %s", e.timeout)
	default:
		job.Status = JobFailed
		job.Error = err.Error()
	}
	metrics.FinishBulkExport(job.ID, string(job.Status))
}

// update mutates a non-terminal job and reports whether it was applied.
func (e *BulkExporter) update(state *bulkJobState, mutate func(job *BulkExportJob)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state.job.Status.Terminal() {
		return false
	}
	mutate(&state.job)
	return true
}

func cloneBulkJob(job BulkExportJob) BulkExportJob {
	clone := job
	clone.Failures = append([]interfacing.CountryFailure{}, job.Failures...)
	if job.StartedAt != nil {
		t := *job.StartedAt
		clone.StartedAt = &t
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		clone.FinishedAt = &t
	}
	return clone
}
