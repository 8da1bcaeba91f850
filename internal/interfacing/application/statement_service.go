package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	"franchise-interfacing/internal/observability/metrics"
)

// StatementService builds country statements from imported ledger data.
type StatementService struct {
	countries  interfacing.CountryDirectory
	ledger     interfacing.LedgerSource
	classifier *interfacing.Classifier
	calculator *interfacing.Calculator
	currency   string
	payerName  string
}

// NewStatementService constructs the service.
func NewStatementService(countries interfacing.CountryDirectory, ledger interfacing.LedgerSource, cfg Config) (*StatementService, error) {
	if countries == nil {
		return nil, errors.New("statement service: nil country directory")
	}
	if ledger == nil {
		return nil, errors.New("statement service: nil ledger source")
	}
	table, err := cfg.ClassificationTable()
	if err != nil {
		return nil, err
	}
	currency := cfg.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return &StatementService{
		countries:  countries,
		ledger:     ledger,
		classifier: interfacing.NewClassifier(table),
		calculator: interfacing.NewCalculator(interfacing.WithLabelPolicy(cfg.LabelPolicy())),
		currency:   currency,
		payerName:  cfg.PayerName,
	}, nil
}

// GetCountryStatement resolves the country and builds its statement for the period.
func (s *StatementService) GetCountryStatement(ctx context.Context, countryID string, period calendar.Period, releaseDate time.Time, paymentTermDays int) (interfacing.CountryStatement, error) {
	if countryID == "" {
		return interfacing.CountryStatement{}, interfacing.ErrEmptyCountryID
	}
	country, err := s.countries.GetCountry(ctx, countryID)
	if err != nil {
		return interfacing.CountryStatement{}, err
	}
	if country == nil {
		return interfacing.CountryStatement{}, fmt.Errorf("%w: %s", interfacing.ErrCountryNotFound, countryID)
	}
	return s.BuildStatement(ctx, *country, period, releaseDate, paymentTermDays)
}

// BuildStatement builds the statement of a resolved country.
func (s *StatementService) BuildStatement(ctx context.Context, country interfacing.Country, period calendar.Period, releaseDate time.Time, paymentTermDays int) (stmt interfacing.CountryStatement, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveStatementBuild(result, time.Since(start))
	}()

	if period.IsZero() {
		return stmt, calendar.ErrInvalidPeriod
	}
	if paymentTermDays < 0 {
		return stmt, interfacing.ErrInvalidPaymentTerm
	}
	if country.Currency == "" {
		country.Currency = s.currency
	}

	previous, err := s.compute(ctx, country, period.Prev(), time.Time{}, 0, decimal.Zero)
	if err != nil {
		return stmt, fmt.Errorf("previous period %s: %w", period.Prev(), err)
	}
	current, err := s.compute(ctx, country, period, releaseDate, paymentTermDays, previous.account.BalanceOpenItems)
	if err != nil {
		return stmt, err
	}
	return interfacing.AssembleCountryStatement(country, period, releaseDate, paymentTermDays, current.classification, current.account), nil
}

type periodComputation struct {
	classification interfacing.Classification
	account        interfacing.AccountStatement
}

func (s *StatementService) compute(ctx context.Context, country interfacing.Country, period calendar.Period, releaseDate time.Time, paymentTermDays int, previousBalance decimal.Decimal) (periodComputation, error) {
	entries, err := s.ledger.ListLedgerEntries(ctx, country.AccountID, period)
	if err != nil {
		return periodComputation{}, err
	}
	classification, err := s.classifier.Classify(entries)
	if err != nil {
		return periodComputation{}, err
	}

	openItems, err := s.ledger.ListOpenItems(ctx, country.AccountID, period.Prev())
	if err != nil {
		return periodComputation{}, err
	}
	bySixt, err := s.ledger.ListPayments(ctx, country.AccountID, period, interfacing.PayerSixt)
	if err != nil {
		return periodComputation{}, err
	}
	byPartner, err := s.ledger.ListPayments(ctx, country.AccountID, period, interfacing.PayerPartner)
	if err != nil {
		return periodComputation{}, err
	}

	payer := country.PayerName
	if payer == "" {
		payer = s.payerName
	}
	account, err := s.calculator.Calculate(interfacing.AccountStatementInput{
		PreviousMonthItems:      openItems,
		DueUntilDate:            calendar.DueUntilDate(period),
		PaymentsBySixt:          bySixt,
		PaymentsByPartner:       byPartner,
		TotalInterfacingDue:     decimal.NewNullDecimal(classification.TotalInterfacingDue()),
		TotalInterfacingDueDate: interfacing.TotalInterfacingDueDate(releaseDate, paymentTermDays),
		PreviousPeriodBalance:   previousBalance,
		PayerName:               payer,
	})
	if err != nil {
		return periodComputation{}, err
	}
	return periodComputation{classification: classification, account: account}, nil
}
