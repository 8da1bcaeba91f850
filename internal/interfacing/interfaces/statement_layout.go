package interfaces

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	interfacing "franchise-interfacing/internal/interfacing/domain"
)

// DisplayDateLayout is the date format of rendered documents.
const DisplayDateLayout = "02.01.2006"

// LayoutColumns is the fixed column count of every layout row.
const LayoutColumns = 5

// SectionKind identifies a layout section.
type SectionKind string

const (
	SectionTitle    SectionKind = "title"
	SectionMeta     SectionKind = "meta"
	SectionClearing SectionKind = "clearing"
	SectionBilling  SectionKind = "billing"
	SectionTotal    SectionKind = "total"
	SectionAccount  SectionKind = "account"
	SectionDeposit  SectionKind = "deposit"
)

// RowKind tells writers how to emphasise a row.
type RowKind string

const (
	RowHeader      RowKind = "header"
	RowLine        RowKind = "line"
	RowPlaceholder RowKind = "placeholder"
	RowSubtotal    RowKind = "subtotal"
	RowBand        RowKind = "band"
)

// Section colors, hex RGB.
const (
	ColorTitle    = "#1F3864"
	ColorClearing = "#DDEBF7"
	ColorBilling  = "#E2EFDA"
	ColorTotal    = "#FFF2CC"
	ColorAccount  = "#FCE4D6"
	ColorDeposit  = "#EDEDED"
)

// Cell is one painted cell. Amount is set for monetary cells; Text is always the display value.
type Cell struct {
	Text   string
	Amount *decimal.Decimal
}

// Row is a fixed-width row of cells.
type Row struct {
	Kind  RowKind
	Cells []Cell
}

// Section is a titled block of rows with a header color.
type Section struct {
	Kind  SectionKind
	Title string
	Color string
	Rows  []Row
}

// Layout is the format-independent statement document.
type Layout struct {
	Currency string
	Sections []Section
}

// AmountFormatter renders cent-rounded, currency-suffixed amounts.
type AmountFormatter struct {
	fraction  int
	grapheme  string
	formatter *money.Formatter
}

// NewAmountFormatter builds a formatter for an ISO currency code, e.g. "1,234.56 €".
func NewAmountFormatter(code string) AmountFormatter {
	cur := money.New(0, code).Currency()
	grapheme := cur.Grapheme
	if grapheme == "" {
		grapheme = code
	}
	return AmountFormatter{
		fraction:  2,
		grapheme:  grapheme,
		formatter: money.NewFormatter(2, ".", ",", grapheme, "1 $"),
	}
}

// Format rounds to cents and formats.
func (f AmountFormatter) Format(amount decimal.Decimal) string {
	cents := interfacing.RoundCents(amount).Shift(int32(f.fraction)).IntPart()
	return f.formatter.Format(cents)
}

func (f AmountFormatter) symbol() string { return f.grapheme }

// FormatDate renders DD.MM.YYYY; zero dates render empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// BuildStatementLayout lays out a country statement. It depends only on the statement.
func BuildStatementLayout(stmt interfacing.CountryStatement) Layout {
	currency := stmt.Currency
	if currency == "" {
		currency = stmt.Country.Currency
	}
	b := layoutBuilder{amounts: NewAmountFormatter(currency)}

	periodLabel := ""
	if !stmt.AccountingPeriod.IsZero() {
		periodLabel = stmt.AccountingPeriod.FirstDay().Format("January 2006")
	}
	title := Section{Kind: SectionTitle, Title: fmt.Sprintf("Interfacing Statement %s", periodLabel), Color: ColorTitle}
	title.Rows = append(title.Rows, b.textRow(RowBand, stmt.Country.Name, stmt.Country.ID, "", "", ""))

	meta := Section{Kind: SectionMeta}
	meta.Rows = append(meta.Rows, b.textRow(RowLine,
		"Period "+stmt.AccountingPeriod.String(),
		"Release "+FormatDate(stmt.ReleaseDate),
		fmt.Sprintf("Payment term %d days", stmt.PaymentTermDays),
		"FIR "+stmt.Country.FIRCode,
		"ISO "+stmt.Country.ISOCode,
	))

	clearing := Section{Kind: SectionClearing, Title: "CLEARING STATEMENT", Color: ColorClearing}
	clearing.Rows = append(clearing.Rows, b.textRow(RowHeader, "Type", "Description", "Reference", "", "Amount"))
	if len(stmt.Clearing) == 0 {
		clearing.Rows = append(clearing.Rows, b.textRow(RowPlaceholder, "No clearing items", "", "", "", ""))
	}
	for _, line := range stmt.Clearing {
		clearing.Rows = append(clearing.Rows, b.amountRow(RowLine, line.Amount, line.Label, line.Description, line.Reference, ""))
	}
	clearing.Rows = append(clearing.Rows, b.amountRow(RowSubtotal, stmt.ClearingSubtotal, "Subtotal clearing", "", "", ""))

	billing := Section{Kind: SectionBilling, Title: "BILLING STATEMENT", Color: ColorBilling}
	billing.Rows = append(billing.Rows, b.textRow(RowHeader, "Type", "Description", "Reference", "Date", "Amount"))
	if len(stmt.Billing) == 0 {
		billing.Rows = append(billing.Rows, b.textRow(RowPlaceholder, "No billing items", "", "", "", ""))
	}
	for _, line := range stmt.Billing {
		date := ""
		if line.Date != nil {
			date = FormatDate(*line.Date)
		}
		billing.Rows = append(billing.Rows, b.amountRow(RowLine, line.Amount, line.Label, line.Description, line.Reference, date))
	}
	billing.Rows = append(billing.Rows, b.amountRow(RowSubtotal, stmt.BillingSubtotal, "Subtotal billing", "", "", ""))

	total := Section{Kind: SectionTotal, Color: ColorTotal}
	total.Rows = append(total.Rows, b.amountRow(RowBand, stmt.TotalInterfacingDue, "TOTAL INTERFACING DUE", "", "", FormatDate(stmt.AccountStatement.TotalInterfacingDueDate)))

	acc := stmt.AccountStatement
	account := Section{Kind: SectionAccount, Title: "ACCOUNT STATEMENT", Color: ColorAccount}
	account.Rows = append(account.Rows,
		b.amountRow(RowLine, acc.OverdueBalance, "Overdue balance", "Net due before", "", FormatDate(acc.DueUntilDate)),
		b.amountRow(RowLine, acc.DueBalance, "Due balance", "Net due from", "", FormatDate(acc.DueUntilDate)),
	)
	account.Rows = append(account.Rows, b.paymentRows("Payment by Sixt", acc.PaymentBySixtItems)...)
	account.Rows = append(account.Rows, b.paymentRows("Payment by partner", acc.PaymentByPartnerItems)...)
	account.Rows = append(account.Rows,
		b.amountRow(RowLine, acc.TotalInterfacingAmount, "Total interfacing due", "", "", FormatDate(acc.TotalInterfacingDueDate)),
		b.amountRow(RowSubtotal, acc.BalanceOpenItems, "Balance open items", acc.BalanceLabel, "", ""),
	)

	deposit := Section{Kind: SectionDeposit, Title: "DEPOSIT", Color: ColorDeposit}
	deposit.Rows = append(deposit.Rows,
		b.amountRow(RowLine, decimal.Zero, "Deposit held", "", "", ""),
		b.amountRow(RowLine, decimal.Zero, "Deposit adjustment", "", "", ""),
	)

	return Layout{
		Currency: currency,
		Sections: []Section{title, meta, clearing, billing, total, account, deposit},
	}
}

type layoutBuilder struct {
	amounts AmountFormatter
}

func (b layoutBuilder) textRow(kind RowKind, texts ...string) Row {
	cells := make([]Cell, LayoutColumns)
	for i := 0; i < LayoutColumns && i < len(texts); i++ {
		cells[i] = Cell{Text: texts[i]}
	}
	return Row{Kind: kind, Cells: cells}
}

// amountRow fills the first four columns with texts and the last with the amount.
func (b layoutBuilder) amountRow(kind RowKind, amount decimal.Decimal, texts ...string) Row {
	row := b.textRow(kind, texts...)
	rounded := interfacing.RoundCents(amount)
	row.Cells[LayoutColumns-1] = Cell{Text: b.amounts.Format(rounded), Amount: &rounded}
	return row
}

func (b layoutBuilder) paymentRows(label string, items []interfacing.PaymentItem) []Row {
	if len(items) == 0 {
		return []Row{b.amountRow(RowLine, decimal.Zero, label, "", "", "")}
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, b.amountRow(RowLine, item.Amount, label, "", item.Reference, FormatDate(item.Date)))
	}
	return rows
}
