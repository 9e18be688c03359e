// Package money converts between dollar amounts at the API boundary and the
// integer cents used for storage and split arithmetic.
//
// Conversions go through shopspring/decimal so that a float such as 10.01 is
// read as the decimal the caller wrote rather than its binary approximation.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// MaxCents bounds the magnitude of any single amount (ten trillion dollars),
// so sums over many rows stay inside int64.
const MaxCents int64 = 1_000_000_000_000_000

var maxCents = decimal.NewFromInt(MaxCents)

// Cents rounds dollars to the nearest cent, half away from zero. NaN,
// infinities and magnitudes above MaxCents fail with ErrInvalidAmount.
func Cents(dollars float64) (int64, error) {
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0, ErrInvalidAmount
	}
	cents := decimal.NewFromFloat(dollars).Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ToCents is Cents for amounts that were already validated or read back from
// storage. Anything Cents rejects converts to 0.
func ToCents(dollars float64) int64 {
	cents, _ := Cents(dollars)
	return cents
}

// ToDollars converts cents back to dollars.
func ToDollars(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// Format renders cents as a fixed two-decimal string, e.g. "-3.50".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseCents converts user input to positive cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Signs, exponents, empty input and zero
// are rejected.
//
// Examples:
//
//	ParseCents("12.34")  -> 1234, nil
//	ParseCents("12,34")  -> 1234, nil
//	ParseCents("12.345") -> 1235, nil
//	ParseCents("-1")     -> 0, ErrInvalidAmount
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}
