package tradingday

import (
	"fmt"
	"time"
)

// IST is the exchange timezone. All calendar days are interpreted in it.
var IST = time.FixedZone("IST", 19800)

const isoLayout = "2006-01-02"

// Date is a calendar day with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, normalising out-of-range values the way time.Date does.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, IST))
}

// FromTime truncates t to its calendar day in IST.
func FromTime(t time.Time) Date {
	t = t.In(IST)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current calendar day in IST.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns midnight IST of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, IST)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays moves d by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

func (d Date) Equal(o Date) bool {
	return d == o
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// ISO renders d as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Time().Format(isoLayout)
}

func (d Date) String() string {
	return d.ISO()
}

// valid reports whether year/month/day name a real calendar day.
func (d Date) valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return New(d.Year, d.Month, d.Day) == d
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (Date, error) {
	t, err := time.ParseInLocation(isoLayout, s, IST)
	if err != nil {
		return Date{}, &ParseError{Input: s, Reason: fmt.Sprintf("expected YYYY-MM-DD: %v", err)}
	}
	return FromTime(t), nil
}

// ParseAny accepts either the wire layout (DDMMYYYY) or YYYY-MM-DD.
func ParseAny(s string) (Date, error) {
	if len(s) == wireLen {
		return ParseWire(s)
	}
	return ParseISO(s)
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
// Exchange holidays are not modelled.
func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsTradingDay reports whether the exchange is expected to be open on d.
func IsTradingDay(d Date) bool {
	return !IsWeekend(d)
}

// PreviousTradingDay returns d itself when it is a trading day, otherwise
// the closest earlier trading day.
func PreviousTradingDay(d Date) Date {
	for !IsTradingDay(d) {
		d = d.AddDays(-1)
	}
	return d
}
