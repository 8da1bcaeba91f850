package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
)

const (
	defaultLedgerTable   = "interfacing_ledger_entries"
	defaultPaymentsTable = "interfacing_payments"
)

// LedgerRepository reads imported ledger postings and payments from Postgres.
type LedgerRepository struct {
	db            DBTX
	entriesTable  string
	paymentsTable string
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db, entriesTable: defaultLedgerTable, paymentsTable: defaultPaymentsTable}
}

// ListLedgerEntries returns the postings of a period in import order.
func (r *LedgerRepository) ListLedgerEntries(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.LedgerEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, account_id, posting_type, sub_type, posting_date, net_due_date, amount, description, reference
FROM %s
WHERE account_id = $1 AND period = $2
ORDER BY seq`, r.entriesTable)
	rows, err := r.db.QueryContext(ctx, query, accountID, period.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []interfacing.LedgerEntry{}
	for rows.Next() {
		var entry interfacing.LedgerEntry
		var postingType string
		var netDue sql.NullTime
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&postingType,
			&entry.SubType,
			&entry.PostingDate,
			&netDue,
			&entry.Amount,
			&entry.Description,
			&entry.Reference,
		); err != nil {
			return nil, err
		}
		entry.Type = interfacing.PostingType(postingType)
		entry.PostingDate = entry.PostingDate.UTC()
		entry.NetDueDate = nullDate(netDue)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ListOpenItems returns the postings of a period that are still open.
func (r *LedgerRepository) ListOpenItems(ctx context.Context, accountID string, period calendar.Period) ([]interfacing.OpenItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT description, reference, net_due_date, amount
FROM %s
WHERE account_id = $1 AND period = $2 AND is_open
ORDER BY net_due_date NULLS LAST, seq`, r.entriesTable)
	rows, err := r.db.QueryContext(ctx, query, accountID, period.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []interfacing.OpenItem{}
	for rows.Next() {
		var item interfacing.OpenItem
		var netDue sql.NullTime
		if err := rows.Scan(&item.Description, &item.Reference, &netDue, &item.Amount); err != nil {
			return nil, err
		}
		item.NetDueDate = nullDate(netDue)
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListPayments returns the payments of a period made by payer, ordered by date.
func (r *LedgerRepository) ListPayments(ctx context.Context, accountID string, period calendar.Period, payer interfacing.Payer) ([]interfacing.PaymentItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT payment_date, amount, reference
FROM %s
WHERE account_id = $1 AND period = $2 AND payer = $3
ORDER BY payment_date, id`, r.paymentsTable)
	rows, err := r.db.QueryContext(ctx, query, accountID, period.String(), string(payer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []interfacing.PaymentItem{}
	for rows.Next() {
		var item interfacing.PaymentItem
		if err := rows.Scan(&item.Date, &item.Amount, &item.Reference); err != nil {
			return nil, err
		}
		item.Date = item.Date.UTC()
		out = append(out, item)
	}
	return out, rows.Err()
}

// InsertLedgerEntry stores an imported posting.
func (r *LedgerRepository) InsertLedgerEntry(ctx context.Context, period calendar.Period, entry interfacing.LedgerEntry, open bool) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	var netDue any
	if entry.NetDueDate != nil {
		netDue = *entry.NetDueDate
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, account_id, period, posting_type, sub_type, posting_date, net_due_date,
	amount, description, reference, is_open
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, r.entriesTable)
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AccountID, period.String(), string(entry.Type), entry.SubType, entry.PostingDate, netDue,
		entry.Amount, entry.Description, entry.Reference, open)
	return err
}

// InsertPayment stores an imported payment.
func (r *LedgerRepository) InsertPayment(ctx context.Context, id, accountID string, period calendar.Period, payer interfacing.Payer, item interfacing.PaymentItem) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, account_id, period, payer, payment_date, amount, reference)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.paymentsTable)
	_, err := r.db.ExecContext(ctx, query, id, accountID, period.String(), string(payer), item.Date, item.Amount, item.Reference)
	return err
}

func nullDate(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := time.Date(value.Time.Year(), value.Time.Month(), value.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}
