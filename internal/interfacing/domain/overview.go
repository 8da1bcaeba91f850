package interfacing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/calendar"
)

// OverviewFigures are the numeric columns shared by overview rows and totals.
type OverviewFigures struct {
	ClearingSubtotal      decimal.Decimal  `json:"clearing_subtotal"`
	BillingSubtotal       decimal.Decimal  `json:"billing_subtotal"`
	TotalInterfacingDue   decimal.Decimal  `json:"total_interfacing_due"`
	OverdueBalance        decimal.Decimal  `json:"overdue_balance"`
	DueBalance            decimal.Decimal  `json:"due_balance"`
	PaymentBySixt         decimal.Decimal  `json:"payment_by_sixt"`
	PaymentByPartner      decimal.Decimal  `json:"payment_by_partner"`
	PreviousPeriodBalance decimal.Decimal  `json:"previous_period_balance"`
	BalanceOpenItems      decimal.Decimal  `json:"balance_open_items"`
	ClearingBreakdown     []BreakdownEntry `json:"clearing_breakdown"`
	OperationalBreakdown  []BreakdownEntry `json:"operational_breakdown"`
	ContractualBreakdown  []BreakdownEntry `json:"contractual_breakdown"`
}

// OverviewRow is one country in a period overview. Error marks a country that could not be computed.
type OverviewRow struct {
	Country Country `json:"country"`
	OverviewFigures
	Error string `json:"error,omitempty"`
}

// Failed reports whether the row carries an error marker.
func (r OverviewRow) Failed() bool { return r.Error != "" }

// CountryFailure reports a country that failed during aggregation.
type CountryFailure struct {
	CountryID string `json:"country_id"`
	Error     string `json:"error"`
}

// Overview is the multi-country roll-up of a period.
type Overview struct {
	Period            calendar.Period  `json:"period"`
	ReleaseDate       time.Time        `json:"release_date"`
	Rows              []OverviewRow    `json:"rows"`
	Totals            OverviewFigures  `json:"totals"`
	ClearingLabels    []string         `json:"clearing_labels"`
	OperationalLabels []string         `json:"operational_labels"`
	ContractualLabels []string         `json:"contractual_labels"`
	Failures          []CountryFailure `json:"failures"`
}

// NewOverviewRow projects a country statement to an overview row.
func NewOverviewRow(stmt CountryStatement) OverviewRow {
	acc := stmt.AccountStatement
	return OverviewRow{
		Country: stmt.Country,
		OverviewFigures: OverviewFigures{
			ClearingSubtotal:      stmt.ClearingSubtotal,
			BillingSubtotal:       stmt.BillingSubtotal,
			TotalInterfacingDue:   stmt.TotalInterfacingDue,
			OverdueBalance:        acc.OverdueBalance,
			DueBalance:            acc.DueBalance,
			PaymentBySixt:         acc.PaymentBySixt,
			PaymentByPartner:      acc.PaymentByPartner,
			PreviousPeriodBalance: acc.PreviousPeriodBalance,
			BalanceOpenItems:      acc.BalanceOpenItems,
			ClearingBreakdown:     stmt.ClearingBreakdown,
			OperationalBreakdown:  stmt.OperationalBreakdown,
			ContractualBreakdown:  stmt.ContractualBreakdown,
		},
	}
}

// FailedOverviewRow returns a zero row carrying an error marker.
func FailedOverviewRow(country Country, err error) OverviewRow {
	return OverviewRow{Country: country, Error: err.Error()}
}

// BuildOverview unions breakdown labels across rows, zero-fills missing labels and sums totals.
// Failed rows keep their marker and do not contribute to totals. Rows are ordered by country id.
func BuildOverview(period calendar.Period, release time.Time, rows []OverviewRow) Overview {
	sorted := make([]OverviewRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Country.ID < sorted[j].Country.ID })

	clearingLabels := unionLabels(sorted, func(f OverviewFigures) []BreakdownEntry { return f.ClearingBreakdown })
	operationalLabels := unionLabels(sorted, func(f OverviewFigures) []BreakdownEntry { return f.OperationalBreakdown })
	contractualLabels := unionLabels(sorted, func(f OverviewFigures) []BreakdownEntry { return f.ContractualBreakdown })

	totals := OverviewFigures{}
	failures := []CountryFailure{}
	for i := range sorted {
		row := &sorted[i]
		row.ClearingBreakdown = alignBreakdown(clearingLabels, row.ClearingBreakdown)
		row.OperationalBreakdown = alignBreakdown(operationalLabels, row.OperationalBreakdown)
		row.ContractualBreakdown = alignBreakdown(contractualLabels, row.ContractualBreakdown)
		if row.Failed() {
			failures = append(failures, CountryFailure{CountryID: row.Country.ID, Error: row.Error})
			continue
		}
		totals = totals.add(row.OverviewFigures)
	}
	totals.ClearingBreakdown = alignBreakdown(clearingLabels, totals.ClearingBreakdown)
	totals.OperationalBreakdown = alignBreakdown(operationalLabels, totals.OperationalBreakdown)
	totals.ContractualBreakdown = alignBreakdown(contractualLabels, totals.ContractualBreakdown)

	return Overview{
		Period:            period,
		ReleaseDate:       release,
		Rows:              sorted,
		Totals:            totals,
		ClearingLabels:    clearingLabels,
		OperationalLabels: operationalLabels,
		ContractualLabels: contractualLabels,
		Failures:          failures,
	}
}

func (f OverviewFigures) add(o OverviewFigures) OverviewFigures {
	return OverviewFigures{
		ClearingSubtotal:      f.ClearingSubtotal.Add(o.ClearingSubtotal),
		BillingSubtotal:       f.BillingSubtotal.Add(o.BillingSubtotal),
		TotalInterfacingDue:   f.TotalInterfacingDue.Add(o.TotalInterfacingDue),
		OverdueBalance:        f.OverdueBalance.Add(o.OverdueBalance),
		DueBalance:            f.DueBalance.Add(o.DueBalance),
		PaymentBySixt:         f.PaymentBySixt.Add(o.PaymentBySixt),
		PaymentByPartner:      f.PaymentByPartner.Add(o.PaymentByPartner),
		PreviousPeriodBalance: f.PreviousPeriodBalance.Add(o.PreviousPeriodBalance),
		BalanceOpenItems:      f.BalanceOpenItems.Add(o.BalanceOpenItems),
		ClearingBreakdown:     mergeBreakdown(f.ClearingBreakdown, o.ClearingBreakdown),
		OperationalBreakdown:  mergeBreakdown(f.OperationalBreakdown, o.OperationalBreakdown),
		ContractualBreakdown:  mergeBreakdown(f.ContractualBreakdown, o.ContractualBreakdown),
	}
}

func unionLabels(rows []OverviewRow, pick func(OverviewFigures) []BreakdownEntry) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, row := range rows {
		for _, entry := range pick(row.OverviewFigures) {
			if _, ok := seen[entry.Label]; ok {
				continue
			}
			seen[entry.Label] = struct{}{}
			labels = append(labels, entry.Label)
		}
	}
	sort.Strings(labels)
	if labels == nil {
		labels = []string{}
	}
	return labels
}

// alignBreakdown returns one entry per label in order; absent labels contribute zero.
func alignBreakdown(labels []string, entries []BreakdownEntry) []BreakdownEntry {
	amounts := make(map[string]decimal.Decimal, len(entries))
	for _, entry := range entries {
		amounts[entry.Label] = amounts[entry.Label].Add(entry.Amount)
	}
	out := make([]BreakdownEntry, 0, len(labels))
	for _, label := range labels {
		out = append(out, BreakdownEntry{Label: label, Amount: amounts[label]})
	}
	return out
}

func mergeBreakdown(a, b []BreakdownEntry) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(a)+len(b))
	index := make(map[string]int, len(a)+len(b))
	for _, entries := range [][]BreakdownEntry{a, b} {
		for _, entry := range entries {
			if i, ok := index[entry.Label]; ok {
				out[i].Amount = out[i].Amount.Add(entry.Amount)
				continue
			}
			index[entry.Label] = len(out)
			out = append(out, entry)
		}
	}
	return out
}
