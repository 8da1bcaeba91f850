package integration_test

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/audit"
	"franchise-interfacing/internal/calendar"
	deadlineapp "franchise-interfacing/internal/deadlines/application"
	deadlines "franchise-interfacing/internal/deadlines/domain"
	deadlinerepo "franchise-interfacing/internal/deadlines/infrastructure/postgres"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	interfacingrepo "franchise-interfacing/internal/interfacing/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := applyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestStatement_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accountID := "ACC-IT-PT"

	_, _ = db.ExecContext(ctx, "DELETE FROM interfacing_ledger_entries WHERE account_id = $1", accountID)
	_, _ = db.ExecContext(ctx, "DELETE FROM interfacing_payments WHERE account_id = $1", accountID)
	_, _ = db.ExecContext(ctx, "DELETE FROM interfacing_countries WHERE id = $1", "IT-PT")

	countries := interfacingrepo.NewCountryRepository(db)
	country := interfacing.Country{ID: "IT-PT", Name: "Portugal", ISOCode: "PT", FIRCode: "F01", AccountID: accountID, Status: interfacing.CountryActive, Currency: "EUR"}
	if err := countries.Save(ctx, country); err != nil {
		t.Fatalf("save country: %v", err)
	}

	ledger := interfacingrepo.NewLedgerRepository(db)
	jan := calendar.NewPeriod(2025, time.January)
	dec := calendar.NewPeriod(2024, time.December)
	posted := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	due := func(day int) *time.Time {
		d := time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC)
		return &d
	}
	seed := []struct {
		period calendar.Period
		entry  interfacing.LedgerEntry
		open   bool
	}{
		{jan, interfacing.LedgerEntry{ID: "it-1", AccountID: accountID, Type: interfacing.PostingClearing, SubType: "Royalty", PostingDate: posted, Amount: decimal.RequireFromString("1000")}, false},
		{jan, interfacing.LedgerEntry{ID: "it-2", AccountID: accountID, Type: interfacing.PostingClearing, SubType: "Marketing fee", PostingDate: posted, Amount: decimal.RequireFromString("200")}, false},
		{jan, interfacing.LedgerEntry{ID: "it-3", AccountID: accountID, Type: interfacing.PostingInvoice, SubType: "IT services", PostingDate: posted, Amount: decimal.RequireFromString("-300")}, false},
		{jan, interfacing.LedgerEntry{ID: "it-4", AccountID: accountID, Type: interfacing.PostingCreditNote, PostingDate: posted, Amount: decimal.RequireFromString("50")}, false},
		{dec, interfacing.LedgerEntry{ID: "it-5", AccountID: accountID, Type: interfacing.PostingInvoice, PostingDate: posted.AddDate(0, -1, 0), Amount: decimal.RequireFromString("25")}, false},
		{dec, interfacing.LedgerEntry{ID: "it-6", AccountID: accountID, Type: interfacing.PostingInvoice, Reference: "A", PostingDate: posted.AddDate(0, -1, 0), NetDueDate: due(14), Amount: decimal.RequireFromString("100")}, true},
		{dec, interfacing.LedgerEntry{ID: "it-7", AccountID: accountID, Type: interfacing.PostingInvoice, Reference: "B", PostingDate: posted.AddDate(0, -1, 0), NetDueDate: due(15), Amount: decimal.RequireFromString("40")}, true},
		{dec, interfacing.LedgerEntry{ID: "it-8", AccountID: accountID, Type: interfacing.PostingInvoice, Reference: "C", PostingDate: posted.AddDate(0, -1, 0), Amount: decimal.RequireFromString("7")}, true},
	}
	for _, s := range seed {
		if err := ledger.InsertLedgerEntry(ctx, s.period, s.entry, s.open); err != nil {
			t.Fatalf("insert entry %s: %v", s.entry.ID, err)
		}
	}
	if err := ledger.InsertPayment(ctx, "it-p1", accountID, jan, interfacing.PayerSixt, interfacing.PaymentItem{Date: posted, Amount: decimal.RequireFromString("-80"), Reference: "P1"}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	if err := ledger.InsertPayment(ctx, "it-p2", accountID, jan, interfacing.PayerPartner, interfacing.PaymentItem{Date: posted, Amount: decimal.RequireFromString("-20"), Reference: "P2"}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}

	service, err := interfacingapp.NewStatementService(countries, ledger, interfacingapp.DefaultConfig())
	if err != nil {
		t.Fatalf("statement service: %v", err)
	}
	stmt, err := service.GetCountryStatement(ctx, "IT-PT", jan, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 30)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if len(stmt.Clearing) != 2 || stmt.Clearing[0].Label != "Royalty" {
		t.Fatalf("expected clearing lines in import order, got %+v", stmt.Clearing)
	}
	if !stmt.TotalInterfacingDue.Equal(decimal.RequireFromString("950")) {
		t.Fatalf("unexpected total interfacing due: %s", stmt.TotalInterfacingDue)
	}
	acc := stmt.AccountStatement
	if !acc.OverdueBalance.Equal(decimal.RequireFromString("100")) || !acc.DueBalance.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("unexpected balances: overdue=%s due=%s", acc.OverdueBalance, acc.DueBalance)
	}
	if len(acc.UndatedItems) != 1 {
		t.Fatalf("expected one undated item, got %d", len(acc.UndatedItems))
	}
	if !acc.BalanceOpenItems.Equal(decimal.RequireFromString("990")) {
		t.Fatalf("unexpected balance: %s", acc.BalanceOpenItems)
	}
	// December: invoice 25 plus the three items still open.
	if !acc.PreviousPeriodBalance.Equal(decimal.RequireFromString("172")) {
		t.Fatalf("unexpected previous balance: %s", acc.PreviousPeriodBalance)
	}
}

func TestDeadlineTracker_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, _ = db.ExecContext(ctx, "DELETE FROM deadline_entities WHERE id = $1", "it-golive")
	repo := deadlinerepo.NewEntityRepository(db)
	if err := repo.Save(ctx, deadlines.Entity{ID: "it-golive", Name: "Go-live"}); err != nil {
		t.Fatalf("save entity: %v", err)
	}
	tracker, err := deadlineapp.NewTracker(repo, deadlineapp.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}

	target, _ := deadlines.ParseDeadline("2025-06-30")
	for i := 0; i < 3; i++ {
		if _, err := tracker.UpdateDeadline(ctx, "it-golive", target); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	moved, _ := deadlines.ParseDeadline("2025-07-31")
	res, err := tracker.UpdateDeadline(ctx, "it-golive", moved)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.HistoryAppended {
		t.Fatalf("expected appended history")
	}

	history, err := tracker.GetHistory(ctx, "it-golive")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || !deadlines.SameDay(history[1].From, target) || !deadlines.SameDay(history[1].To, moved) {
		t.Fatalf("unexpected history: %+v", history)
	}

	if _, err := db.ExecContext(ctx, `UPDATE deadline_entities SET deadline_history = '[{"from":"bad"}]'::jsonb WHERE id = $1`, "it-golive"); err != nil {
		t.Fatalf("corrupt history: %v", err)
	}
	if _, err := tracker.GetHistory(ctx, "it-golive"); err == nil {
		t.Fatalf("expected malformed history to be rejected")
	}
}

func TestAuditRepository_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	repo := audit.NewRepository(db)
	entry := audit.Entry{
		ID:           audit.NewID(),
		Actor:        "controller@example.com",
		Action:       "statement.exported",
		ResourceType: "statement",
		ResourceID:   "IT-PT/202501",
		CountryID:    "IT-PT",
		Metadata:     []byte(`{"format":"pdf"}`),
	}
	if err := repo.Log(ctx, entry); err != nil {
		t.Fatalf("log: %v", err)
	}
	var digest string
	if err := db.QueryRowContext(ctx, "SELECT payload_digest FROM audit_logs WHERE id = $1", entry.ID).Scan(&digest); err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if digest != audit.DigestJSON(entry.Metadata) {
		t.Fatalf("unexpected digest: %s", digest)
	}
}

func applyMigrations(db *sql.DB) error {
	root := projectRoot()
	files := []string{
		filepath.Join(root, "migrations", "001_interfacing.sql"),
		filepath.Join(root, "migrations", "002_deadlines.sql"),
		filepath.Join(root, "migrations", "003_audit_logs.sql"),
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
