// Package timeutil contains calendar-date helpers for window math.
// The analytics API deals in whole days, so everything here is UTC midnight.
package timeutil

import "time"

// DateLayout is the wire format the analytics API and state store use
const DateLayout = "2006-01-02"

// Date is a calendar day pinned to UTC midnight
type Date struct{ t time.Time }

// ParseDate parses a YYYY-MM-DD string into a Date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t.UTC()}, nil
}

// DateOf truncates an instant to its UTC calendar day
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day
func Today() Date { return DateOf(time.Now()) }

// String renders the date as YYYY-MM-DD
func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns the underlying UTC midnight instant
func (d Date) Time() time.Time { return d.t }

// AddDays returns the date n days later (negative n goes back)
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// After reports whether d is strictly after o
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Before reports whether d is strictly before o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Equal reports whether d and o are the same day
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool { return d.t.IsZero() }

// DaysUntil returns the number of days from d to o, negative if o is earlier
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// Min returns the earlier of a and b
func Min(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// Max returns the later of a and b
func Max(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}
