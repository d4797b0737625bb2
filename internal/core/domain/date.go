package domain

import (
	"fmt"
	"time"
)

// displayLayout renders dates the way finished filenames carry them,
// e.g. "15 March 2024". The day is never zero-padded.
const displayLayout = "2 January 2006"

// UnknownDateLabel substitutes for the date segment when no date was found.
const UnknownDateLabel = "Unknown Date"

// Date is a calendar day. The zero value is not valid; construct through
// NewDate so impossible days are rejected up front.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates year/month/day as a real calendar day.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if month < time.January || month > time.December || day < 1 {
		return Date{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// ParseDate parses the canonical display form back into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(displayLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%d %s %d", d.Day, d.Month, d.Year)
}

// DisplayDate renders a possibly-absent date for filenames and reports.
func DisplayDate(d *Date) string {
	if d == nil {
		return UnknownDateLabel
	}
	return d.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date must be a string")
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
