// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing and formatting go through
// shopspring/decimal so that no value ever passes through a float.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney converts a decimal string to Money rounded to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Zero, negative and
// unparsable values are rejected with a ValidationError.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,34")  -> 1234 cents
//	ParseMoney("12.345") -> 1235 cents
func ParseMoney(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Money{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return Money{}, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	return m, nil
}

// MoneyFromDecimal rounds d to cents. It fails when |d| exceeds 10,000,000,000.00.
//
// The magnitude is bounded from the coefficient length and exponent before
// rounding, so inputs like 1e99999999 never reach the big-int rescale.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if !d.IsZero() && magnitude > maxAmountDigits {
		return Money{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	// Below 0.001 everything rounds to zero.
	if d.IsZero() || magnitude < -2 {
		return Money{}, nil
	}
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, &ValidationError{Field: "amount", Value: d.String(), Err: ErrInvalidAmount}
	}
	return Money{Cents: cents.IntPart()}, nil
}

const (
	// maxCents is the per-record ceiling, 10,000,000,000.00.
	maxCents = 1_000_000_000_000
	// maxAmountDigits is the count of integer digits in maxCents/100.
	maxAmountDigits = 11
)

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > maxCents {
		return &ValidationError{Field: "amount", Value: m.String(), Err: ErrInvalidAmount}
	}
	return nil
}

// Decimal returns the amount as a decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "15.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns the sum of m and o, saturating at the int64 bounds.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// MarshalJSON encodes the amount as a bare JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) and rounds it to cents.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
