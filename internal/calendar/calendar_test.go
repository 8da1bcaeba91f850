package calendar

import (
	"testing"
	"time"
)

func TestEasterSunday_KnownYears(t *testing.T) {
	cases := map[int]string{
		1981: "1981-04-19",
		2000: "2000-04-23",
		2019: "2019-04-21",
		2024: "2024-03-31",
		2025: "2025-04-20",
		2049: "2049-04-18",
	}
	for year, want := range cases {
		if got := DateKey(EasterSunday(year)); got != want {
			t.Fatalf("easter %d: expected %s, got %s", year, want, got)
		}
	}
}

func TestHolidaySet_EasterRelative(t *testing.T) {
	set := Portugal().HolidaySet(2025)
	for _, key := range []string{
		"2025-03-04", // carnival
		"2025-04-18", // good friday
		"2025-04-20",
		"2025-06-19", // corpus christi
		"2025-04-25",
		"2025-12-25",
	} {
		if _, ok := set[key]; !ok {
			t.Fatalf("expected holiday %s", key)
		}
	}
	if _, ok := set["2025-02-14"]; ok {
		t.Fatalf("unexpected holiday 2025-02-14")
	}
	if len(set) != 14 {
		t.Fatalf("expected 14 holidays, got %d", len(set))
	}
}

func TestWorkingDays_Window(t *testing.T) {
	cal := Portugal()
	cases := []struct {
		period string
		want   int
	}{
		// 2025-02-05..15: Wed..Sat, no holidays.
		{"202501", 8},
		// 2024-02-05..15 contains carnival on Tue 13th.
		{"202401", 8},
		// 2025-04-05..15: Sat..Tue, no holidays (good friday is the 18th).
		{"202503", 7},
		// 2025-12-05..15: Fri..Mon with 8th a holiday (Monday).
		{"202511", 6},
	}
	for _, tc := range cases {
		period, err := ParsePeriod(tc.period)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.period, err)
		}
		if got := cal.DefaultWorkingDays(period); got != tc.want {
			t.Fatalf("working days %s: expected %d, got %d", tc.period, tc.want, got)
		}
	}
}

func TestWorkingDays_InclusiveBounds(t *testing.T) {
	cal := New(nil)
	period, _ := ParsePeriod("202501")
	// 2025-02-05 is a Wednesday, 2025-02-14 a Friday.
	if got := cal.WorkingDays(period, 5, 5); got != 1 {
		t.Fatalf("expected single-day window to count 1, got %d", got)
	}
	if got := cal.WorkingDays(period, 14, 15); got != 1 {
		t.Fatalf("expected friday only, got %d", got)
	}
	if got := cal.WorkingDays(period, 20, 40); got != 7 {
		t.Fatalf("expected clamp to month end, got %d", got)
	}
}

func TestDueUntilDate(t *testing.T) {
	period, _ := ParsePeriod("202412")
	got := DueUntilDate(period)
	want := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestReleaseStatusOf(t *testing.T) {
	period, _ := ParsePeriod("202501")
	if got := ReleaseStatusOf(period, time.Date(2025, 2, 15, 18, 0, 0, 0, time.UTC)); got != ReleaseOnTime {
		t.Fatalf("expected on_time, got %s", got)
	}
	if got := ReleaseStatusOf(period, time.Date(2025, 2, 16, 0, 0, 0, 0, time.UTC)); got != ReleaseLate {
		t.Fatalf("expected late, got %s", got)
	}
}

func TestPeriod_ParseAndNavigate(t *testing.T) {
	if _, err := ParsePeriod("2025-01"); err == nil {
		t.Fatalf("expected error for dashed period")
	}
	if _, err := ParsePeriod("202513"); err == nil {
		t.Fatalf("expected error for month 13")
	}
	p, err := ParsePeriod("202501")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Prev().String() != "202412" || p.Next().String() != "202502" {
		t.Fatalf("unexpected navigation: %s %s", p.Prev(), p.Next())
	}
	if !p.Contains(time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)) || p.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected contains result")
	}
}

func TestParseMonthDay(t *testing.T) {
	md, err := ParseMonthDay("12-24")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if md.Month != time.December || md.Day != 24 {
		t.Fatalf("unexpected month day: %+v", md)
	}
	if _, err := ParseMonthDay("24.12"); err == nil {
		t.Fatalf("expected error")
	}
}
