package interfacing

import (
	"time"

	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/calendar"
)

// StatementLine is a derived line of a country statement.
type StatementLine struct {
	Type        PostingType     `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *time.Time      `json:"date,omitempty"`
}

// BreakdownEntry is one sub-category of a breakdown.
type BreakdownEntry struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CountryStatement is the classified monthly statement of a country.
// It is recomputed per request and never stored.
type CountryStatement struct {
	Country              Country          `json:"country"`
	AccountingPeriod     calendar.Period  `json:"accounting_period"`
	ReleaseDate          time.Time        `json:"release_date"`
	PaymentTermDays      int              `json:"payment_term_days"`
	Currency             string           `json:"currency"`
	Clearing             []StatementLine  `json:"clearing"`
	ClearingSubtotal     decimal.Decimal  `json:"clearing_subtotal"`
	Billing              []StatementLine  `json:"billing"`
	BillingSubtotal      decimal.Decimal  `json:"billing_subtotal"`
	TotalInterfacingDue  decimal.Decimal  `json:"total_interfacing_due"`
	ClearingBreakdown    []BreakdownEntry `json:"clearing_breakdown"`
	OperationalBreakdown []BreakdownEntry `json:"operational_breakdown"`
	ContractualBreakdown []BreakdownEntry `json:"contractual_breakdown"`
	AccountStatement     AccountStatement `json:"account_statement"`
}

// TotalInterfacingDueDate returns the release date shifted by the payment term.
func TotalInterfacingDueDate(release time.Time, paymentTermDays int) time.Time {
	if release.IsZero() {
		return time.Time{}
	}
	return release.AddDate(0, 0, paymentTermDays)
}

// AssembleCountryStatement combines a classification and its account statement.
func AssembleCountryStatement(country Country, period calendar.Period, release time.Time, paymentTermDays int, c Classification, account AccountStatement) CountryStatement {
	return CountryStatement{
		Country:              country,
		AccountingPeriod:     period,
		ReleaseDate:          release,
		PaymentTermDays:      paymentTermDays,
		Currency:             country.Currency,
		Clearing:             c.Clearing,
		ClearingSubtotal:     c.ClearingSubtotal,
		Billing:              c.Billing,
		BillingSubtotal:      c.BillingSubtotal,
		TotalInterfacingDue:  c.TotalInterfacingDue(),
		ClearingBreakdown:    c.ClearingBreakdown,
		OperationalBreakdown: c.OperationalBreakdown,
		ContractualBreakdown: c.ContractualBreakdown,
		AccountStatement:     account,
	}
}
