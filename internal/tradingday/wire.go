package tradingday

import (
	"fmt"
	"strconv"
	"time"
)

const wireLen = 8

// WireDate is the DDMMYYYY string the report backend speaks.
type WireDate string

// ParseError reports a date string that could not be read.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

// ToWire renders d as DDMMYYYY.
func ToWire(d Date) WireDate {
	return WireDate(fmt.Sprintf("%02d%02d%04d", d.Day, int(d.Month), d.Year))
}

// ParseWire reads a DDMMYYYY string. Anything that is not exactly eight
// digits, or does not name a real calendar day, is a *ParseError.
func ParseWire(s string) (Date, error) {
	if len(s) != wireLen {
		return Date{}, &ParseError{Input: s, Reason: "expected 8 digits DDMMYYYY"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Date{}, &ParseError{Input: s, Reason: "expected 8 digits DDMMYYYY"}
		}
	}

	day, _ := strconv.Atoi(s[0:2])
	month, _ := strconv.Atoi(s[2:4])
	year, _ := strconv.Atoi(s[4:8])

	d := Date{Year: year, Month: time.Month(month), Day: day}
	if !d.valid() {
		return Date{}, &ParseError{Input: s, Reason: "not a calendar day"}
	}
	return d, nil
}

// Date parses w, see ParseWire.
func (w WireDate) Date() (Date, error) {
	return ParseWire(string(w))
}

func (w WireDate) String() string {
	return string(w)
}
