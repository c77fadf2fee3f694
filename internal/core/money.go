// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal in the domain and stored as integer
// cents. Conversions round half away from zero to two places.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the rounding slack accepted when comparing money amounts.
var Tolerance = decimal.New(1, -2)

// ParseAmount converts a user-entered decimal string to an amount rounded to
// cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative,
// zero and malformed values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil (half-up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = RoundCents(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCents rounds d to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToCents converts d to integer cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts integer cents to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FromFloat converts a float produced by the amortization engine to a
// cent-rounded amount.
func FromFloat(f float64) decimal.Decimal {
	return RoundCents(decimal.NewFromFloat(f))
}

// WithinTolerance reports whether a and b differ by at most one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}
