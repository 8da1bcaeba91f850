package interfacing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultRequestedLabel = "Payment is kindly requested"
	defaultInitiatedLabel = "Payment will be initiated by %s"
	defaultPayerName      = "Sixt"
)

// AccountStatement is the open-items section of a country statement.
type AccountStatement struct {
	OverdueBalance          decimal.Decimal `json:"overdue_balance"`
	DueBalance              decimal.Decimal `json:"due_balance"`
	DueUntilDate            time.Time       `json:"due_until_date"`
	PaymentBySixt           decimal.Decimal `json:"payment_by_sixt"`
	PaymentByPartner        decimal.Decimal `json:"payment_by_partner"`
	PaymentBySixtItems      []PaymentItem   `json:"payment_by_sixt_items"`
	PaymentByPartnerItems   []PaymentItem   `json:"payment_by_partner_items"`
	PreviousPeriodBalance   decimal.Decimal `json:"previous_period_balance"`
	TotalInterfacingAmount  decimal.Decimal `json:"total_interfacing_amount"`
	TotalInterfacingDueDate time.Time       `json:"total_interfacing_due_date"`
	BalanceOpenItems        decimal.Decimal `json:"balance_open_items"`
	PreviousMonthItems      []OpenItem      `json:"previous_month_items"`
	OverdueItems            []OpenItem      `json:"overdue_items"`
	DueItems                []OpenItem      `json:"due_items"`
	// UndatedItems have no net due date and sit in neither balance.
	UndatedItems []OpenItem `json:"undated_items"`
	BalanceLabel string     `json:"balance_label"`
}

// AccountStatementInput carries everything the calculator needs.
type AccountStatementInput struct {
	PreviousMonthItems      []OpenItem
	DueUntilDate            time.Time
	PaymentsBySixt          []PaymentItem
	PaymentsByPartner       []PaymentItem
	TotalInterfacingDue     decimal.NullDecimal
	TotalInterfacingDueDate time.Time
	PreviousPeriodBalance   decimal.Decimal
	PayerName               string
}

// LabelPolicy decides the balance label text. It never affects the numbers.
type LabelPolicy struct {
	Requested string
	Initiated string
}

// DefaultLabelPolicy returns the standard label texts.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{Requested: defaultRequestedLabel, Initiated: defaultInitiatedLabel}
}

// Label returns the balance label for a balance and payer.
func (p LabelPolicy) Label(balance decimal.Decimal, payer string) string {
	if payer == "" {
		payer = defaultPayerName
	}
	if balance.IsNegative() {
		return p.Requested
	}
	return fmt.Sprintf(p.Initiated, payer)
}

// Calculator computes account statements.
type Calculator struct {
	labels LabelPolicy
}

// CalculatorOption customizes a Calculator.
type CalculatorOption func(*Calculator)

// WithLabelPolicy overrides the balance label texts.
func WithLabelPolicy(policy LabelPolicy) CalculatorOption {
	return func(c *Calculator) {
		if policy.Requested != "" {
			c.labels.Requested = policy.Requested
		}
		if policy.Initiated != "" {
			c.labels.Initiated = policy.Initiated
		}
	}
}

// NewCalculator constructs a calculator.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{labels: DefaultLabelPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate partitions previous-month items at the cutoff and computes the open-items balance.
func (c *Calculator) Calculate(in AccountStatementInput) (AccountStatement, error) {
	if !in.TotalInterfacingDue.Valid {
		return AccountStatement{}, ErrInterfacingDueNotComputed
	}
	cutoff := dayOf(in.DueUntilDate)
	overdue, due, undated := PartitionOpenItems(in.PreviousMonthItems, cutoff)

	stmt := AccountStatement{
		OverdueBalance:          sumOpenItems(overdue),
		DueBalance:              sumOpenItems(due),
		DueUntilDate:            cutoff,
		PaymentBySixt:           sumPayments(in.PaymentsBySixt),
		PaymentByPartner:        sumPayments(in.PaymentsByPartner),
		PaymentBySixtItems:      nonNilPayments(in.PaymentsBySixt),
		PaymentByPartnerItems:   nonNilPayments(in.PaymentsByPartner),
		PreviousPeriodBalance:   in.PreviousPeriodBalance,
		TotalInterfacingAmount:  in.TotalInterfacingDue.Decimal,
		TotalInterfacingDueDate: in.TotalInterfacingDueDate,
		PreviousMonthItems:      nonNilOpenItems(in.PreviousMonthItems),
		OverdueItems:            overdue,
		DueItems:                due,
		UndatedItems:            undated,
	}
	stmt.BalanceOpenItems = stmt.OverdueBalance.
		Add(stmt.DueBalance).
		Add(stmt.PaymentBySixt).
		Add(stmt.PaymentByPartner).
		Add(stmt.TotalInterfacingAmount)
	stmt.BalanceLabel = c.labels.Label(RoundCents(stmt.BalanceOpenItems), in.PayerName)
	return stmt, nil
}

// PartitionOpenItems splits items by net due date: strictly before cutoff is overdue,
// on or after is due, and items without a due date are returned separately.
func PartitionOpenItems(items []OpenItem, cutoff time.Time) (overdue, due, undated []OpenItem) {
	overdue, due, undated = []OpenItem{}, []OpenItem{}, []OpenItem{}
	cutoff = dayOf(cutoff)
	for _, item := range items {
		switch {
		case item.NetDueDate == nil:
			undated = append(undated, item)
		case dayOf(*item.NetDueDate).Before(cutoff):
			overdue = append(overdue, item)
		default:
			due = append(due, item)
		}
	}
	return overdue, due, undated
}

func nonNilPayments(items []PaymentItem) []PaymentItem {
	if items == nil {
		return []PaymentItem{}
	}
	return items
}

func nonNilOpenItems(items []OpenItem) []OpenItem {
	if items == nil {
		return []OpenItem{}
	}
	return items
}

// dayOf truncates to the calendar day in UTC.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
