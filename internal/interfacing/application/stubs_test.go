package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func mustPeriod(key string) calendar.Period {
	p, err := calendar.ParsePeriod(key)
	if err != nil {
		panic(err)
	}
	return p
}

type ledgerKey struct {
	account string
	period  string
}

type stubLedger struct {
	mu        sync.Mutex
	entries   map[ledgerKey][]interfacing.LedgerEntry
	openItems map[ledgerKey][]interfacing.OpenItem
	sixt      map[ledgerKey][]interfacing.PaymentItem
	partner   map[ledgerKey][]interfacing.PaymentItem
	failing   map[string]error
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		entries:   map[ledgerKey][]interfacing.LedgerEntry{},
		openItems: map[ledgerKey][]interfacing.OpenItem{},
		sixt:      map[ledgerKey][]interfacing.PaymentItem{},
		partner:   map[ledgerKey][]interfacing.PaymentItem{},
		failing:   map[string]error{},
	}
}

func (s *stubLedger) ListLedgerEntries(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[accountID]; err != nil {
		return nil, err
	}
	return s.entries[ledgerKey{accountID, period.String()}], nil
}

func (s *stubLedger) ListOpenItems(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.OpenItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openItems[ledgerKey{accountID, period.String()}], nil
}

func (s *stubLedger) ListPayments(ctx context.Context, accountID string, period calendar.Period, payer interfacing.Payer) ([]interfacing.PaymentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerKey{accountID, period.String()}
	if payer == interfacing.PayerSixt {
		return s.sixt[key], nil
	}
	return s.partner[key], nil
}

type stubDirectory struct {
	countries []interfacing.Country
	err       error
}

func (d *stubDirectory) GetCountry(ctx context.Context, id string) (*interfacing.Country, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, c := range d.countries {
		if c.ID == id {
			country := c
			return &country, nil
		}
	}
	return nil, nil
}

func (d *stubDirectory) ListCountries(ctx context.Context, statuses []interfacing.CountryStatus) ([]interfacing.Country, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := []interfacing.Country{}
	for _, c := range d.countries {
		if len(statuses) == 0 {
			out = append(out, c)
			continue
		}
		for _, status := range statuses {
			if c.Status == status {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

var errLedgerDown = errors.New("ledger unavailable")

// seedPortugal loads a January 2025 statement for PT with a December 2024 predecessor.
func seedPortugal(ledger *stubLedger) interfacing.Country {
	country := interfacing.Country{ID: "PT", Name: "Portugal", ISOCode: "PT", FIRCode: "F01", AccountID: "ACC-PT", Status: interfacing.CountryActive}
	posted := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	ledger.entries[ledgerKey{"ACC-PT", "202501"}] = []interfacing.LedgerEntry{
		{ID: "1", AccountID: "ACC-PT", Type: interfacing.PostingClearing, SubType: "Royalty", Amount: dec("1000.00")},
		{ID: "2", AccountID: "ACC-PT", Type: interfacing.PostingClearing, SubType: "Marketing fee", Amount: dec("200.00")},
		{ID: "3", AccountID: "ACC-PT", Type: interfacing.PostingInvoice, SubType: "IT services", Amount: dec("-300.00"), PostingDate: posted},
		{ID: "4", AccountID: "ACC-PT", Type: interfacing.PostingCreditNote, Amount: dec("50.00"), PostingDate: posted},
	}
	ledger.openItems[ledgerKey{"ACC-PT", "202412"}] = []interfacing.OpenItem{
		{Reference: "A", NetDueDate: date(2025, 2, 14), Amount: dec("100.00")},
		{Reference: "B", NetDueDate: date(2025, 2, 15), Amount: dec("40.00")},
		{Reference: "C", Amount: dec("7.00")},
	}
	ledger.sixt[ledgerKey{"ACC-PT", "202501"}] = []interfacing.PaymentItem{{Date: posted, Amount: dec("-80.00"), Reference: "P1"}}
	ledger.partner[ledgerKey{"ACC-PT", "202501"}] = []interfacing.PaymentItem{{Date: posted, Amount: dec("-20.00"), Reference: "P2"}}
	ledger.entries[ledgerKey{"ACC-PT", "202412"}] = []interfacing.LedgerEntry{
		{ID: "0", AccountID: "ACC-PT", Type: interfacing.PostingInvoice, Amount: dec("25.00"), PostingDate: posted.AddDate(0, -1, 0)},
	}
	return country
}
