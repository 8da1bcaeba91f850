package interfacing

import (
	"context"

	"franchise-interfacing/internal/calendar"
)

// LedgerSource reads imported ledger data for a country account.
type LedgerSource interface {
	// ListLedgerEntries returns the postings of a period in import order.
	ListLedgerEntries(ctx context.Context, accountID string, period calendar.Period) ([]LedgerEntry, error)
	// ListOpenItems returns the items of a period that are still open.
	ListOpenItems(ctx context.Context, accountID string, period calendar.Period) ([]OpenItem, error)
	// ListPayments returns the payments of a period made by payer.
	ListPayments(ctx context.Context, accountID string, period calendar.Period, payer Payer) ([]PaymentItem, error)
}

// CountryDirectory resolves franchise countries.
type CountryDirectory interface {
	// GetCountry returns nil when the country does not exist.
	GetCountry(ctx context.Context, id string) (*Country, error)
	// ListCountries returns countries in any of the statuses, all countries when statuses is empty.
	ListCountries(ctx context.Context, statuses []CountryStatus) ([]Country, error)
}
