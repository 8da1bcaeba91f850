package calendar

import "time"

// EasterSunday returns Easter Sunday of a Gregorian year using Gauss's algorithm.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year % 4
	c := year % 7
	k := year / 100
	p := (13 + 8*k) / 25
	q := k / 4
	m := (15 - p + k - q) % 30
	n := (4 + k - q) % 7
	d := (19*a + m) % 30
	e := (2*b + 4*c + 6*d + n) % 7

	// Gauss's exceptions: April 26 becomes April 19, and April 25 becomes April 18
	// when the lunar correction allows it.
	if d == 29 && e == 6 {
		return time.Date(year, time.April, 19, 0, 0, 0, 0, time.UTC)
	}
	if d == 28 && e == 6 && (11*m+11)%30 < 19 {
		return time.Date(year, time.April, 18, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.March, 22+d+e, 0, 0, 0, 0, time.UTC)
}
