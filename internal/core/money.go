// Package core provides the finance computations behind the dashboard.
//
// This file contains amount parsing and display formatting. Every amount is a
// decimal.Decimal so that sums and percentages stay exact.
package core

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a configured currency code is unknown.
const DefaultCurrency = money.USD

// Bounds on accepted amounts. Tokens outside them are rejected as invalid
// numbers so that sums and their string forms stay small.
const (
	maxAmountLen    = 64
	maxAmountDigits = 40
	maxAmountExp    = 30
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts a user-entered number to a decimal.
//
// Leading and trailing whitespace is ignored. Signs and exponents are
// accepted; NaN and infinities are not. Tokens longer than 64 characters,
// with more than 40 significant digits or with an exponent beyond ±30 are
// rejected.
//
// Examples:
//
//	ParseAmount("200.5") -> 200.5, nil
//	ParseAmount(" -50 ") -> -50, nil
//	ParseAmount("abc")   -> 0, ErrInvalidNumber
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidNumber
	}
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "inf", "infinity":
		return decimal.Zero, ErrInvalidNumber
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	if exp := d.Exponent(); exp > maxAmountExp || exp < -maxAmountExp {
		return decimal.Zero, ErrInvalidNumber
	}
	if digits := len(d.Abs().Coefficient().String()); digits > maxAmountDigits {
		return decimal.Zero, ErrInvalidNumber
	}
	return d, nil
}

// ParseNonNegative is ParseAmount with the widget minimum of zero applied.
// An empty string yields the fallback value.
func ParseNonNegative(s string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// FormatMoney renders an amount in the given ISO currency, e.g. "$3,000.00".
// Unknown currency codes fall back to DefaultCurrency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(currency)))
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	f := cur.Formatter()
	minor := amount.Shift(int32(f.Fraction)).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return formatWide(amount, f)
	}
	return f.Format(minor.IntPart())
}

// formatWide applies the currency layout to amounts whose minor units do not
// fit in an int64.
func formatWide(amount decimal.Decimal, f *money.Formatter) string {
	whole, frac, _ := strings.Cut(amount.Abs().StringFixed(int32(f.Fraction)), ".")
	if f.Thousand != "" {
		for i := len(whole) - 3; i > 0; i -= 3 {
			whole = whole[:i] + f.Thousand + whole[i:]
		}
	}
	if f.Fraction > 0 {
		whole += f.Decimal + frac
	}
	out := strings.Replace(f.Template, "1", whole, 1)
	out = strings.Replace(out, "$", f.Grapheme, 1)
	if amount.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatPercent renders a percentage with two decimals, e.g. "30.00%".
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

// KnownCurrency reports whether code is an ISO currency known to the formatter.
func KnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}
