package interfacing

import (
	"errors"
	"testing"
	"time"

	"franchise-interfacing/internal/calendar"
)

func row(id string, clearing, billing string, clearingBreakdown []BreakdownEntry) OverviewRow {
	c, b := dec(clearing), dec(billing)
	return OverviewRow{
		Country: Country{ID: id},
		OverviewFigures: OverviewFigures{
			ClearingSubtotal:    c,
			BillingSubtotal:     b,
			TotalInterfacingDue: c.Add(b),
			BalanceOpenItems:    c.Add(b),
			ClearingBreakdown:   clearingBreakdown,
		},
	}
}

func TestBuildOverview_UnionsBreakdownLabels(t *testing.T) {
	period, _ := calendar.ParsePeriod("202501")
	rows := []OverviewRow{
		row("PT", "10", "5", []BreakdownEntry{{Label: "Voucher", Amount: dec("10")}}),
		row("ES", "3", "1", []BreakdownEntry{{Label: "Damage", Amount: dec("3")}}),
	}
	overview := BuildOverview(period, time.Time{}, rows)

	if overview.Rows[0].Country.ID != "ES" {
		t.Fatalf("expected rows ordered by country id")
	}
	if len(overview.ClearingLabels) != 2 || overview.ClearingLabels[0] != "Damage" || overview.ClearingLabels[1] != "Voucher" {
		t.Fatalf("unexpected labels: %v", overview.ClearingLabels)
	}
	es := overview.Rows[0]
	if len(es.ClearingBreakdown) != 2 || es.ClearingBreakdown[1].Label != "Voucher" || !es.ClearingBreakdown[1].Amount.IsZero() {
		t.Fatalf("expected zero-filled Voucher for ES, got %+v", es.ClearingBreakdown)
	}
	if !overview.Totals.TotalInterfacingDue.Equal(dec("19")) {
		t.Fatalf("totals: %s", overview.Totals.TotalInterfacingDue)
	}
	if len(overview.Totals.ClearingBreakdown) != 2 || !overview.Totals.ClearingBreakdown[1].Amount.Equal(dec("10")) {
		t.Fatalf("unexpected totals breakdown: %+v", overview.Totals.ClearingBreakdown)
	}
	if overview.OperationalLabels == nil || len(overview.Rows[0].OperationalBreakdown) != 0 {
		t.Fatalf("expected empty operational labels")
	}
}

func TestBuildOverview_FailedRowsExcludedFromTotals(t *testing.T) {
	period, _ := calendar.ParsePeriod("202501")
	rows := []OverviewRow{
		row("PT", "10", "5", nil),
		FailedOverviewRow(Country{ID: "GR"}, errors.New("ledger timeout")),
	}
	overview := BuildOverview(period, time.Time{}, rows)
	if len(overview.Rows) != 2 {
		t.Fatalf("failed rows must stay visible")
	}
	if len(overview.Failures) != 1 || overview.Failures[0].CountryID != "GR" {
		t.Fatalf("unexpected failures: %+v", overview.Failures)
	}
	if !overview.Totals.TotalInterfacingDue.Equal(dec("15")) {
		t.Fatalf("totals: %s", overview.Totals.TotalInterfacingDue)
	}
}

func TestAnalyzeOverview(t *testing.T) {
	current, _ := calendar.ParsePeriod("202502")
	previous := current.Prev()
	cur := BuildOverview(current, time.Time{}, []OverviewRow{
		row("PT", "150", "0", []BreakdownEntry{{Label: "Voucher", Amount: dec("150")}}),
		row("ES", "5", "0", nil),
	})
	prev := BuildOverview(previous, time.Time{}, []OverviewRow{
		row("PT", "100", "0", []BreakdownEntry{{Label: "Fuel", Amount: dec("100")}}),
	})
	delta := AnalyzeOverview(cur, prev, DefaultThresholds())
	if len(delta.Countries) != 2 {
		t.Fatalf("expected 2 countries, got %d", len(delta.Countries))
	}
	byCategory := func(cd CountryDelta) map[string]CategoryDelta {
		out := map[string]CategoryDelta{}
		for _, c := range cd.Categories {
			out[c.Category] = c
		}
		return out
	}
	var pt, es map[string]CategoryDelta
	for _, cd := range delta.Countries {
		switch cd.CountryID {
		case "PT":
			pt = byCategory(cd)
		case "ES":
			es = byCategory(cd)
		}
	}
	if got := pt[CategoryClearingSubtotal]; got.Pct == nil || *got.Pct != 50 || got.Level != LevelWarning {
		t.Fatalf("PT clearing delta: %+v", got)
	}
	if got := pt[CategoryBillingSubtotal]; got.Pct == nil || *got.Pct != 0 || got.Level != LevelNormal {
		t.Fatalf("PT billing delta: %+v", got)
	}
	if got := pt["clearing:Voucher"]; !got.IsNew() || got.Level != LevelDanger {
		t.Fatalf("PT voucher delta: %+v", got)
	}
	if got, ok := pt["clearing:Fuel"]; !ok || got.Pct == nil || *got.Pct != -100 {
		t.Fatalf("PT vanished fuel delta: %+v", got)
	}
	if got := es[CategoryClearingSubtotal]; !got.IsNew() {
		t.Fatalf("ES is new: %+v", got)
	}
}
