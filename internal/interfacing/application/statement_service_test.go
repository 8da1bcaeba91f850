package application

import (
	"context"
	"errors"
	"testing"
	"time"

	interfacing "franchise-interfacing/internal/interfacing/domain"
)

func TestStatementService_BuildsCountryStatement(t *testing.T) {
	ledger := newStubLedger()
	country := seedPortugal(ledger)
	service, err := NewStatementService(&stubDirectory{countries: []interfacing.Country{country}}, ledger, DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	release := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	stmt, err := service.GetCountryStatement(context.Background(), "PT", mustPeriod("202501"), release, 30)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}

	if !stmt.ClearingSubtotal.Equal(dec("1200")) || !stmt.BillingSubtotal.Equal(dec("-250")) {
		t.Fatalf("unexpected subtotals: clearing=%s billing=%s", stmt.ClearingSubtotal, stmt.BillingSubtotal)
	}
	if !stmt.TotalInterfacingDue.Equal(dec("950")) {
		t.Fatalf("unexpected total interfacing due: %s", stmt.TotalInterfacingDue)
	}
	if stmt.Currency != "EUR" {
		t.Fatalf("expected default currency, got %q", stmt.Currency)
	}

	acc := stmt.AccountStatement
	if !acc.OverdueBalance.Equal(dec("100")) || !acc.DueBalance.Equal(dec("40")) {
		t.Fatalf("unexpected balances: overdue=%s due=%s", acc.OverdueBalance, acc.DueBalance)
	}
	if len(acc.UndatedItems) != 1 || acc.UndatedItems[0].Reference != "C" {
		t.Fatalf("expected undated item C, got %+v", acc.UndatedItems)
	}
	if !acc.BalanceOpenItems.Equal(dec("990")) {
		t.Fatalf("unexpected balance open items: %s", acc.BalanceOpenItems)
	}
	if !acc.PreviousPeriodBalance.Equal(dec("25")) {
		t.Fatalf("unexpected previous period balance: %s", acc.PreviousPeriodBalance)
	}
	if !acc.DueUntilDate.Equal(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due until date: %s", acc.DueUntilDate)
	}
	if !acc.TotalInterfacingDueDate.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected total interfacing due date: %s", acc.TotalInterfacingDueDate)
	}
	if acc.BalanceLabel != "Payment will be initiated by Sixt" {
		t.Fatalf("unexpected label: %q", acc.BalanceLabel)
	}
}

func TestStatementService_CountryPayerOverridesLabel(t *testing.T) {
	ledger := newStubLedger()
	country := seedPortugal(ledger)
	country.PayerName = "Sixt Portugal"
	service, err := NewStatementService(&stubDirectory{countries: []interfacing.Country{country}}, ledger, DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	stmt, err := service.GetCountryStatement(context.Background(), "PT", mustPeriod("202501"), time.Time{}, 0)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if stmt.AccountStatement.BalanceLabel != "Payment will be initiated by Sixt Portugal" {
		t.Fatalf("unexpected label: %q", stmt.AccountStatement.BalanceLabel)
	}
}

func TestStatementService_Errors(t *testing.T) {
	ledger := newStubLedger()
	country := seedPortugal(ledger)
	service, err := NewStatementService(&stubDirectory{countries: []interfacing.Country{country}}, ledger, DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := service.GetCountryStatement(ctx, "", mustPeriod("202501"), time.Time{}, 0); !errors.Is(err, interfacing.ErrEmptyCountryID) {
		t.Fatalf("expected empty country error, got %v", err)
	}
	if _, err := service.GetCountryStatement(ctx, "DE", mustPeriod("202501"), time.Time{}, 0); !errors.Is(err, interfacing.ErrCountryNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := service.GetCountryStatement(ctx, "PT", mustPeriod("202501"), time.Time{}, -1); !errors.Is(err, interfacing.ErrInvalidPaymentTerm) {
		t.Fatalf("expected payment term error, got %v", err)
	}

	ledger.entries[ledgerKey{"ACC-PT", "202501"}] = append(ledger.entries[ledgerKey{"ACC-PT", "202501"}],
		interfacing.LedgerEntry{ID: "9", Type: "Accrual", Amount: dec("1")})
	if _, err := service.GetCountryStatement(ctx, "PT", mustPeriod("202501"), time.Time{}, 0); !errors.Is(err, interfacing.ErrUnmappedPostingType) {
		t.Fatalf("expected unmapped posting type error, got %v", err)
	}
}

func TestStatementService_ConfiguredBucket(t *testing.T) {
	ledger := newStubLedger()
	country := seedPortugal(ledger)
	ledger.entries[ledgerKey{"ACC-PT", "202501"}] = append(ledger.entries[ledgerKey{"ACC-PT", "202501"}],
		interfacing.LedgerEntry{ID: "9", Type: "Accrual", SubType: "Accrual", Amount: dec("10")})

	cfg := DefaultConfig()
	cfg.Classification.Buckets = map[string]string{"Accrual": "clearing"}
	service, err := NewStatementService(&stubDirectory{countries: []interfacing.Country{country}}, ledger, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	stmt, err := service.GetCountryStatement(context.Background(), "PT", mustPeriod("202501"), time.Time{}, 0)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if len(stmt.Clearing) != 3 || !stmt.ClearingSubtotal.Equal(dec("1210")) {
		t.Fatalf("expected accrual in clearing, got %d lines subtotal %s", len(stmt.Clearing), stmt.ClearingSubtotal)
	}
}
