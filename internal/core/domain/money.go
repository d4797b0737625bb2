package domain

import (
	"fmt"
	"strings"
)

// Amount is a monetary value in whole cents. Receipts never need fractions
// of a cent and float rounding must not leak into filenames, so arithmetic
// and comparison stay integral.
type Amount struct {
	cents int64
}

func AmountFromCents(cents int64) Amount {
	return Amount{cents: cents}
}

// ParseAmount parses a plain decimal like "45.67", "1,234.56" or "45".
// Thousands separators are accepted and ignored; a fractional part must be
// exactly two digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	intPart := s
	var fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if len(fracPart) != 2 {
			return Amount{}, fmt.Errorf("amount %q: fractional part must have two digits", s)
		}
	}
	intPart = strings.ReplaceAll(intPart, ",", "")
	if intPart == "" {
		return Amount{}, fmt.Errorf("amount %q: missing integer part", s)
	}
	var cents int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("amount %q: unexpected character %q", s, r)
		}
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("amount %q: unexpected character %q", s, r)
		}
	}
	if fracPart != "" {
		cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	}
	return Amount{cents: cents}, nil
}

func (a Amount) Cents() int64 { return a.cents }

// String renders with exactly two fractional digits, e.g. "45.67".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a.cents/100, a.cents%100)
}

func (a Amount) LessThan(other Amount) bool { return a.cents < other.cents }

// DisplayAmount renders a possibly-absent amount for filenames and reports.
func DisplayAmount(a *Amount) string {
	if a == nil {
		return "0.00"
	}
	return a.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.String())), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
