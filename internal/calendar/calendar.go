package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DateKeyLayout is the layout of holiday keys.
	DateKeyLayout = "2006-01-02"

	// DefaultWindowStartDay and DefaultWindowEndDay bound the release planning window.
	DefaultWindowStartDay = 5
	DefaultWindowEndDay   = 15

	dueUntilDay = 15
)

// ErrInvalidHoliday is returned when a fixed holiday is not MM-DD.
var ErrInvalidHoliday = errors.New("calendar: holiday must be MM-DD")

// ReleaseStatus badges a release date against the period target.
type ReleaseStatus string

const (
	ReleaseOnTime ReleaseStatus = "on_time"
	ReleaseLate   ReleaseStatus = "late"
)

// MonthDay is a fixed yearly holiday.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses an MM-DD value.
func ParseMonthDay(value string) (MonthDay, error) {
	t, err := time.Parse("01-02", value)
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidHoliday, value)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// PortugalFixedHolidays are the national fixed-date public holidays.
var PortugalFixedHolidays = []MonthDay{
	{time.January, 1},
	{time.April, 25},
	{time.May, 1},
	{time.June, 10},
	{time.August, 15},
	{time.October, 5},
	{time.November, 1},
	{time.December, 1},
	{time.December, 8},
	{time.December, 25},
}

// Calendar answers business-day questions for a holiday regime.
type Calendar struct {
	fixed []MonthDay
}

// New constructs a calendar with the given fixed holidays.
// Easter-relative holidays are always included.
func New(fixed []MonthDay) *Calendar {
	copied := make([]MonthDay, len(fixed))
	copy(copied, fixed)
	return &Calendar{fixed: copied}
}

// Portugal returns the default calendar.
func Portugal() *Calendar { return New(PortugalFixedHolidays) }

// DateKey formats a day as YYYY-MM-DD.
func DateKey(t time.Time) string { return t.Format(DateKeyLayout) }

// HolidaySet returns the holidays of a year as date keys.
func (c *Calendar) HolidaySet(year int) map[string]struct{} {
	set := make(map[string]struct{}, len(c.fixed)+4)
	for _, md := range c.fixed {
		set[DateKey(time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC))] = struct{}{}
	}
	easter := EasterSunday(year)
	for _, offset := range []int{-47, -2, 0, 60} {
		set[DateKey(easter.AddDate(0, 0, offset))] = struct{}{}
	}
	return set
}

// IsHoliday reports whether the day is a holiday.
func (c *Calendar) IsHoliday(day time.Time) bool {
	_, ok := c.HolidaySet(day.Year())[DateKey(day)]
	return ok
}

// IsWorkingDay reports whether the day is neither weekend nor holiday.
func (c *Calendar) IsWorkingDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(day)
}

// WorkingDays counts working days in [startDay, endDay] of the month after period.
// Both bounds are inclusive; the window is clamped to the month length.
func (c *Calendar) WorkingDays(period Period, startDay, endDay int) int {
	month := period.Next().FirstDay()
	last := month.AddDate(0, 1, -1).Day()
	if startDay < 1 {
		startDay = 1
	}
	if endDay > last {
		endDay = last
	}
	holidays := c.HolidaySet(month.Year())
	count := 0
	for day := startDay; day <= endDay; day++ {
		t := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)
		if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			continue
		}
		if _, ok := holidays[DateKey(t)]; ok {
			continue
		}
		count++
	}
	return count
}

// DefaultWorkingDays counts working days in the default 5..15 window.
func (c *Calendar) DefaultWorkingDays(period Period) int {
	return c.WorkingDays(period, DefaultWindowStartDay, DefaultWindowEndDay)
}

// DueUntilDate returns the 15th of the month following period.
func DueUntilDate(period Period) time.Time {
	next := period.Next()
	return time.Date(next.Year(), next.Month(), dueUntilDay, 0, 0, 0, 0, time.UTC)
}

// ReleaseTarget is the latest on-time release date of a period.
func ReleaseTarget(period Period) time.Time { return DueUntilDate(period) }

// ReleaseStatusOf badges a release date against the period target.
func ReleaseStatusOf(period Period, release time.Time) ReleaseStatus {
	target := ReleaseTarget(period)
	day := time.Date(release.Year(), release.Month(), release.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(target) {
		return ReleaseLate
	}
	return ReleaseOnTime
}
