// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal unit representations.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	cents, err := parseUnsignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimalToCents is like ParseDecimalToCents but keeps the sign and
// accepts zero. Used at the JSON boundary where validation happens later and
// must be able to see negative inputs.
func ParseSignedDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	cents, err := parseUnsignedCents(s)
	if err != nil {
		return 0, err
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

func parseUnsignedCents(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	if iv*100 > math.MaxInt64-fracCents {
		return 0, ErrInvalidAmount
	}
	return iv*100 + fracCents, nil
}

// MoneyFromUnits converts a decimal unit amount (e.g. 12.34) to Money.
// Callers must keep units within CheckedMoneyFromUnits' range.
func MoneyFromUnits(units float64) Money {
	return Money{Cents: int64(math.Round(units * 100))}
}

// CheckedMoneyFromUnits is MoneyFromUnits for untrusted input: the result
// must fit in int64 cents.
func CheckedMoneyFromUnits(units float64) (Money, error) {
	cents := math.Round(units * 100)
	if math.IsNaN(cents) || cents >= 0x1p63 || cents < -0x1p63 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(cents)}, nil
}

// Add returns m+o, or ErrInvalidAmount when the sum leaves the int64 range.
func (m Money) Add(o Money) (Money, error) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) {
		return Money{}, fmt.Errorf("%s + %s overflows: %w", m, o, ErrInvalidAmount)
	}
	return Money{Cents: sum}, nil
}

// sumOverflow reports a running total that no longer fits in Money.
func sumOverflow(field string) error {
	verr := &ValidationError{}
	verr.Add(field, "total exceeds the supported amount range")
	return verr
}

// Units returns the value as a float64 for display and ratio purposes.
// Note: Use cents for sums to avoid floating-point drift.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "-12.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a decimal JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Money{}
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a number: %w", err)
		}
		s = n.String()
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, ErrInvalidAmount)
		}
		checked, err := CheckedMoneyFromUnits(f)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*m = checked
		return nil
	}
	cents, err := ParseSignedDecimalToCents(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*m = Money{Cents: cents}
	return nil
}
