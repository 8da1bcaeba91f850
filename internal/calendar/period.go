package calendar

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned when a period key is not YYYYMM.
var ErrInvalidPeriod = errors.New("calendar: period must be YYYYMM")

// Period is an accounting month.
type Period struct {
	year  int
	month time.Month
}

// NewPeriod returns the period of the given month, normalizing overflowing months.
func NewPeriod(year int, month time.Month) Period {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{year: t.Year(), month: t.Month()}
}

// ParsePeriod parses a YYYYMM key.
func ParsePeriod(key string) (Period, error) {
	if len(key) != 6 {
		return Period{}, ErrInvalidPeriod
	}
	t, err := time.Parse("200601", key)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period { return NewPeriod(t.Year(), t.Month()) }

// Year returns the period year.
func (p Period) Year() int { return p.year }

// Month returns the period month.
func (p Period) Month() time.Month { return p.month }

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool { return p.year == 0 && p.month == 0 }

// String returns the YYYYMM key.
func (p Period) String() string { return p.FirstDay().Format("200601") }

// FirstDay returns the first day of the period at midnight UTC.
func (p Period) FirstDay() time.Time { return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC) }

// End returns the first day of the following period.
func (p Period) End() time.Time { return p.FirstDay().AddDate(0, 1, 0) }

// Prev returns the previous period.
func (p Period) Prev() Period { return NewPeriod(p.year, p.month-1) }

// Next returns the following period.
func (p Period) Next() Period { return NewPeriod(p.year, p.month+1) }

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.FirstDay()) && t.Before(p.End())
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(data []byte) error {
	parsed, err := ParsePeriod(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
