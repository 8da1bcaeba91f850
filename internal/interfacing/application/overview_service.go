package application

import (
	"context"
	"errors"
	"log"
	"time"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	"franchise-interfacing/internal/observability/metrics"
)

// OverviewService aggregates country statements into period overviews.
type OverviewService struct {
	countries   interfacing.CountryDirectory
	statements  *StatementService
	workers     int
	paymentTerm int
	thresholds  interfacing.Thresholds
	logger      *log.Logger
}

// NewOverviewService constructs the service.
func NewOverviewService(countries interfacing.CountryDirectory, statements *StatementService, cfg Config, logger *log.Logger) (*OverviewService, error) {
	if countries == nil {
		return nil, errors.New("overview service: nil country directory")
	}
	if statements == nil {
		return nil, errors.New("overview service: nil statement service")
	}
	if logger == nil {
		logger = log.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &OverviewService{
		countries:   countries,
		statements:  statements,
		workers:     workers,
		paymentTerm: cfg.PaymentTerm,
		thresholds:  cfg.DeltaThresholds(),
		logger:      logger,
	}, nil
}

// GetOverview builds the overview of every country matching the status filter.
// A failing country becomes a marked row; the batch is never aborted for it.
func (s *OverviewService) GetOverview(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (overview interfacing.Overview, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		} else if len(overview.Failures) > 0 {
			result = metrics.ResultPartial
		}
		metrics.ObserveOverviewBuild(result, len(overview.Failures), time.Since(start))
	}()

	if period.IsZero() {
		return overview, calendar.ErrInvalidPeriod
	}
	countries, err := s.countries.ListCountries(ctx, statuses)
	if err != nil {
		return overview, err
	}

	rows := make([]interfacing.OverviewRow, len(countries))
	err = forEachLimit(ctx, s.workers, len(countries), func(ctx context.Context, i int) error {
		country := countries[i]
		stmt, err := s.statements.BuildStatement(ctx, country, period, releaseDate, s.paymentTerm)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Printf("interfacing overview: country=%s period=%s err=%v", country.ID, period, err)
			rows[i] = interfacing.FailedOverviewRow(country, err)
			return nil
		}
		rows[i] = interfacing.NewOverviewRow(stmt)
		return nil
	})
	if err != nil {
		return overview, err
	}
	return interfacing.BuildOverview(period, releaseDate, rows), nil
}

// GetOverviewDelta compares the overview of period with the previous period.
func (s *OverviewService) GetOverviewDelta(ctx context.Context, period calendar.Period, releaseDate time.Time, statuses []interfacing.CountryStatus) (interfacing.OverviewDelta, error) {
	current, err := s.GetOverview(ctx, period, releaseDate, statuses)
	if err != nil {
		return interfacing.OverviewDelta{}, err
	}
	previous, err := s.GetOverview(ctx, period.Prev(), time.Time{}, statuses)
	if err != nil {
		return interfacing.OverviewDelta{}, err
	}
	return interfacing.AnalyzeOverview(current, previous, s.thresholds), nil
}
