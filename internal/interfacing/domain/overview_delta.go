package interfacing

import (
	"github.com/shopspring/decimal"

	"franchise-interfacing/internal/calendar"
)

// Fixed delta categories; breakdown categories are "<group>:<label>".
const (
	CategoryClearingSubtotal    = "clearing_subtotal"
	CategoryBillingSubtotal     = "billing_subtotal"
	CategoryTotalInterfacingDue = "total_interfacing_due"
	CategoryBalanceOpenItems    = "balance_open_items"
)

// CategoryValue is a named figure of an overview row.
type CategoryValue struct {
	Category string
	Amount   decimal.Decimal
}

// CategoryDelta compares a category between two periods.
type CategoryDelta struct {
	Category string          `json:"category"`
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	DeltaResult
}

// CountryDelta holds the category deltas of one country.
type CountryDelta struct {
	CountryID  string          `json:"country_id"`
	Categories []CategoryDelta `json:"categories"`
}

// OverviewDelta compares two period overviews.
type OverviewDelta struct {
	Period         calendar.Period `json:"period"`
	PreviousPeriod calendar.Period `json:"previous_period"`
	Countries      []CountryDelta  `json:"countries"`
	Totals         []CategoryDelta `json:"totals"`
}

// Categories lists the comparable figures in a stable order.
func (f OverviewFigures) Categories() []CategoryValue {
	values := []CategoryValue{
		{CategoryClearingSubtotal, f.ClearingSubtotal},
		{CategoryBillingSubtotal, f.BillingSubtotal},
		{CategoryTotalInterfacingDue, f.TotalInterfacingDue},
		{CategoryBalanceOpenItems, f.BalanceOpenItems},
	}
	for _, group := range []struct {
		prefix  string
		entries []BreakdownEntry
	}{
		{"clearing:", f.ClearingBreakdown},
		{string(GroupOperational) + ":", f.OperationalBreakdown},
		{string(GroupContractual) + ":", f.ContractualBreakdown},
	} {
		for _, entry := range group.entries {
			values = append(values, CategoryValue{group.prefix + entry.Label, entry.Amount})
		}
	}
	return values
}

// CompareFigures classifies every category of current against previous.
// Categories only present in previous are compared against zero.
func CompareFigures(current, previous OverviewFigures, thresholds Thresholds) []CategoryDelta {
	prev := make(map[string]decimal.Decimal)
	var prevOrder []string
	for _, v := range previous.Categories() {
		if _, ok := prev[v.Category]; !ok {
			prevOrder = append(prevOrder, v.Category)
		}
		prev[v.Category] = v.Amount
	}
	seen := make(map[string]struct{})
	out := []CategoryDelta{}
	for _, v := range current.Categories() {
		seen[v.Category] = struct{}{}
		p := prev[v.Category]
		out = append(out, CategoryDelta{
			Category:    v.Category,
			Current:     v.Amount,
			Previous:    p,
			DeltaResult: Compare(v.Amount, p, thresholds.For(v.Category)),
		})
	}
	for _, category := range prevOrder {
		if _, ok := seen[category]; ok {
			continue
		}
		p := prev[category]
		out = append(out, CategoryDelta{
			Category:    category,
			Current:     decimal.Zero,
			Previous:    p,
			DeltaResult: Compare(decimal.Zero, p, thresholds.For(category)),
		})
	}
	return out
}

// AnalyzeOverview compares each computed country and the totals against the previous overview.
// Failed rows are skipped; countries absent from previous compare against zero.
func AnalyzeOverview(current, previous Overview, thresholds Thresholds) OverviewDelta {
	prevRows := make(map[string]OverviewRow, len(previous.Rows))
	for _, row := range previous.Rows {
		if !row.Failed() {
			prevRows[row.Country.ID] = row
		}
	}
	countries := []CountryDelta{}
	for _, row := range current.Rows {
		if row.Failed() {
			continue
		}
		countries = append(countries, CountryDelta{
			CountryID:  row.Country.ID,
			Categories: CompareFigures(row.OverviewFigures, prevRows[row.Country.ID].OverviewFigures, thresholds),
		})
	}
	return OverviewDelta{
		Period:         current.Period,
		PreviousPeriod: previous.Period,
		Countries:      countries,
		Totals:         CompareFigures(current.Totals, previous.Totals, thresholds),
	}
}
