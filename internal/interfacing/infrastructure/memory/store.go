package memory

import (
	"context"
	"sort"
	"sync"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
)

type accountPeriod struct {
	accountID string
	period    string
}

type paymentKey struct {
	accountPeriod
	payer interfacing.Payer
}

// Store is an in-memory ledger and country directory for local runs and tests.
type Store struct {
	mu        sync.RWMutex
	countries map[string]interfacing.Country
	entries   map[accountPeriod][]interfacing.LedgerEntry
	openItems map[accountPeriod][]interfacing.OpenItem
	payments  map[paymentKey][]interfacing.PaymentItem
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		countries: make(map[string]interfacing.Country),
		entries:   make(map[accountPeriod][]interfacing.LedgerEntry),
		openItems: make(map[accountPeriod][]interfacing.OpenItem),
		payments:  make(map[paymentKey][]interfacing.PaymentItem),
	}
}

// PutCountry adds or replaces a country.
func (s *Store) PutCountry(country interfacing.Country) error {
	if country.ID == "" {
		return interfacing.ErrEmptyCountryID
	}
	if _, err := interfacing.ParseCountryStatus(string(country.Status)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[country.ID] = country
	return nil
}

// AddLedgerEntries appends postings to an account period.
func (s *Store) AddLedgerEntries(accountID string, period calendar.Period, entries ...interfacing.LedgerEntry) {
	key := accountPeriod{accountID, period.String()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append(s.entries[key], entries...)
}

// AddOpenItems appends open items to an account period.
func (s *Store) AddOpenItems(accountID string, period calendar.Period, items ...interfacing.OpenItem) {
	key := accountPeriod{accountID, period.String()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openItems[key] = append(s.openItems[key], items...)
}

// AddPayments appends payments of a payer to an account period.
func (s *Store) AddPayments(accountID string, period calendar.Period, payer interfacing.Payer, items ...interfacing.PaymentItem) {
	key := paymentKey{accountPeriod{accountID, period.String()}, payer}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[key] = append(s.payments[key], items...)
}

// GetCountry returns nil when the country is unknown.
func (s *Store) GetCountry(ctx context.Context, id string) (*interfacing.Country, error) {
	_ = ctx
	if id == "" {
		return nil, interfacing.ErrEmptyCountryID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	country, ok := s.countries[id]
	if !ok {
		return nil, nil
	}
	return &country, nil
}

// ListCountries returns countries in any of the statuses ordered by id.
func (s *Store) ListCountries(ctx context.Context, statuses []interfacing.CountryStatus) ([]interfacing.Country, error) {
	_ = ctx
	allowed := make(map[interfacing.CountryStatus]struct{}, len(statuses))
	for _, status := range statuses {
		allowed[status] = struct{}{}
	}

	s.mu.RLock()
	out := make([]interfacing.Country, 0, len(s.countries))
	for _, country := range s.countries {
		if len(allowed) > 0 {
			if _, ok := allowed[country.Status]; !ok {
				continue
			}
		}
		out = append(out, country)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListLedgerEntries returns a copy of the postings in insertion order.
func (s *Store) ListLedgerEntries(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.LedgerEntry, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]interfacing.LedgerEntry{}, s.entries[accountPeriod{accountID, period.String()}]...), nil
}

// ListOpenItems returns a copy of the open items in insertion order.
func (s *Store) ListOpenItems(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.OpenItem, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]interfacing.OpenItem{}, s.openItems[accountPeriod{accountID, period.String()}]...), nil
}

// ListPayments returns a copy of the payer's payments ordered by date.
func (s *Store) ListPayments(ctx context.Context, accountID string, period calendar.Period, payer interfacing.Payer) ([]interfacing.PaymentItem, error) {
	_ = ctx
	s.mu.RLock()
	out := append([]interfacing.PaymentItem{}, s.payments[paymentKey{accountPeriod{accountID, period.String()}, payer}]...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
