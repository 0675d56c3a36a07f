package fec

import (
	"fmt"
	"time"
)

// DateFormat is the format used to render dates in tables and exports.
const DateFormat = "2006-01-02"

// ecritureDateFormat is the 8-digit numeral encoding used by FEC exports.
const ecritureDateFormat = "20060102"

// Date is a calendar date with day granularity and no time component.
// The zero value is the zero date and reports IsZero.
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseEcritureDate parses an 8-digit YYYYMMDD numeral into a Date.
// Anything else is an error: the date field is the primary sort and
// aggregation key, so there is no coercion fallback.
func ParseEcritureDate(s string) (Date, error) {
	if len(s) != 8 {
		return Date{}, fmt.Errorf("invalid date %q: want 8-digit YYYYMMDD", s)
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return Date{}, fmt.Errorf("invalid date %q: want 8-digit YYYYMMDD", s)
		}
	}
	t, err := time.Parse(ecritureDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// ParseDate parses an ISO-8601 date (2006-01-02), the format used by the
// HTML date inputs of the interactive surface.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want %s: %w", s, DateFormat, err)
	}
	return Date{t: t}, nil
}

// Add returns the date shifted by the given number of days.
func (d Date) Add(days int) Date {
	return Date{t: d.t.AddDate(0, 0, days)}
}

// Before reports whether d falls before x.
func (d Date) Before(x Date) bool { return d.t.Before(x.t) }

// After reports whether d falls after x.
func (d Date) After(x Date) bool { return d.t.After(x.t) }

// Equal reports whether d and x are the same calendar day.
func (d Date) Equal(x Date) bool { return d.t.Equal(x.t) }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the canonical time representation of the day (midnight UTC).
func (d Date) Time() time.Time { return d.t }

// String renders the date in ISO-8601 form.
func (d Date) String() string { return d.t.Format(DateFormat) }
